package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

type ContentItem struct {
	ID    string `json:"id"`
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=20000"`
}

type Course struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	InstructorID  string        `json:"instructor_id"`
	Instructor    string        `json:"instructor"` // instructor's name
	Content       []ContentItem `json:"content"`
	EnrolledCount int           `json:"enrolled_count"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string        `json:"title" validate:"required,min=3,max=100"`
	Description string        `json:"description" validate:"required,max=500"`
	Content     []ContentItem `json:"content" validate:"omitempty,max=100,dive"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	cleanContent(nc.Content)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nc.Title)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Blank fields are left unchanged; an empty (non-null) content list clears the content.
type UpdateCourse struct {
	Title       string        `json:"title" validate:"required,min=3,max=100"`
	Description string        `json:"description" validate:"required,max=500"`
	Content     []ContentItem `json:"content" validate:"omitempty,max=100,dive"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, origCourse Course, validate *validator.Validate, svc *Service) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = origCourse.Title
	}

	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCourse.Description
	}

	if uc.Content == nil {
		uc.Content = origCourse.Content
	} else {
		cleanContent(uc.Content)
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uc.Title, origCourse)
}

func cleanContent(items []ContentItem) {
	for i := range items {
		items[i].ID = core.CleanString(items[i].ID)
		items[i].Title = core.CleanString(items[i].Title)
		items[i].Body = core.CleanString(items[i].Body)
	}
}

type QueryFilter struct {
	Search       string `query:"search"`
	InstructorID string `query:"instructor_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.InstructorID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.InstructorID = core.CleanString(qf.InstructorID)
}

// OrderingFields are the fields courses can be ordered by.
var OrderingFields = []string{"title", "created_at", "updated_at"}
