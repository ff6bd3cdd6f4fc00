package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/user"
)

var (
	// errors
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
)

type (
	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled when the student is already enrolled in the course.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		// DeleteEnrollment returns ErrNotEnrolled when there is nothing to delete.
		DeleteEnrollment(ctx context.Context, courseID, studentID string) error
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		// QueryStudents returns the roster of the course, oldest enrollment first.
		QueryStudents(ctx context.Context, courseID string) ([]Student, error)
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
	}
)

func NewService(repo Repository, courseSvc *course.Service) *Service {
	return &Service{repo: repo, courseSvc: courseSvc}
}

// Enroll adds the student to the course; fails with course.ErrNotFound or ErrAlreadyEnrolled.
func (svc *Service) Enroll(ctx context.Context, courseID string, student user.User) (Enrollment, error) {
	c, err := svc.courseSvc.GetByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:         uuid.NewString(),
		CourseID:   c.ID,
		StudentID:  student.ID,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, ErrAlreadyEnrolled
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return e, nil
}

// Unenroll removes the student from the course; fails with course.ErrNotFound or ErrNotEnrolled.
func (svc *Service) Unenroll(ctx context.Context, courseID string, student user.User) error {
	c, err := svc.courseSvc.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteEnrollment(ctx, c.ID, student.ID); err != nil {
		if errors.Cause(err) == ErrNotEnrolled {
			return ErrNotEnrolled
		}
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}

func (svc *Service) Students(ctx context.Context, courseID string) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// Catalog returns the courses matching filter, flagged with the student's enrollment status.
func (svc *Service) Catalog(ctx context.Context, studentID string, filter course.QueryFilter, ordering []core.DBOrdering) ([]StudentCourse, error) {
	courses, err := svc.courseSvc.Query(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	enrolled, err := svc.enrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	catalog := make([]StudentCourse, 0, len(courses))
	for _, c := range courses {
		_, ok := enrolled[c.ID]
		catalog = append(catalog, StudentCourse{Course: c, IsEnrolled: ok})
	}
	return catalog, nil
}

// EnrolledCourses returns only the courses the student is enrolled in.
func (svc *Service) EnrolledCourses(ctx context.Context, studentID string, ordering []core.DBOrdering) ([]StudentCourse, error) {
	catalog, err := svc.Catalog(ctx, studentID, course.QueryFilter{}, ordering)
	if err != nil {
		return nil, err
	}
	enrolled := make([]StudentCourse, 0, len(catalog))
	for _, sc := range catalog {
		if sc.IsEnrolled {
			enrolled = append(enrolled, sc)
		}
	}
	return enrolled, nil
}

func (svc *Service) enrolledCourseIDs(ctx context.Context, studentID string) (map[string]struct{}, error) {
	enrollments, err := svc.repo.QueryEnrollments(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	ids := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		ids[e.CourseID] = struct{}{}
	}
	return ids, nil
}
