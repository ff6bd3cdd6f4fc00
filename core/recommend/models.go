package recommend

import (
	"github.com/trezcool/soma/core"
)

type CourseSummary struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// Request asks for course recommendations; when AvailableCourses is empty the whole catalog is used.
type Request struct {
	Prompt           string          `json:"prompt" validate:"notblank,max=2000"`
	AvailableCourses []CourseSummary `json:"available_courses" validate:"omitempty,max=200,dive"`
}

func (r *Request) Clean() {
	r.Prompt = core.CleanString(r.Prompt)
	for i := range r.AvailableCourses {
		r.AvailableCourses[i].Title = core.CleanString(r.AvailableCourses[i].Title)
		r.AvailableCourses[i].Description = core.CleanString(r.AvailableCourses[i].Description)
	}
}

type Result struct {
	Recommendation    string `json:"recommendation"`
	RequestCount      int    `json:"request_count"`
	RemainingRequests int    `json:"remaining_requests"`
	Cached            bool   `json:"cached"`
}

type Usage struct {
	RequestCount      int `json:"request_count"`
	MaxRequests       int `json:"max_requests"`
	RemainingRequests int `json:"remaining_requests"`
}
