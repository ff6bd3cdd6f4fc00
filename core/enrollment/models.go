package enrollment

import (
	"time"

	"github.com/trezcool/soma/core/course"
)

type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// Student is a course roster entry.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// StudentCourse is a Course as seen by a student.
type StudentCourse struct {
	course.Course
	IsEnrolled bool `json:"is_enrolled"`
}

// QueryFilter applies AND operation on its non-empty fields.
type QueryFilter struct {
	CourseID  string
	StudentID string
}
