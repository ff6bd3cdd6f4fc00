package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/soma/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.CourseID == e.CourseID && existing.StudentID == e.StudentID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, e := range repo.db.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			delete(repo.db.enrollments, id)
			return nil
		}
	}
	return enrollment.ErrNotEnrolled
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		enrollments = append(enrollments, *e)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

func (repo *enrollmentRepository) QueryStudents(ctx context.Context, courseID string) ([]enrollment.Student, error) {
	enrollments, err := repo.QueryEnrollments(ctx, enrollment.QueryFilter{CourseID: courseID})
	if err != nil {
		return nil, err
	}

	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]enrollment.Student, 0, len(enrollments))
	for _, e := range enrollments {
		usr, ok := repo.db.users[e.StudentID]
		if !ok {
			continue
		}
		students = append(students, enrollment.Student{
			ID:         usr.ID,
			Name:       usr.Name,
			Email:      usr.Email,
			EnrolledAt: e.EnrolledAt,
		})
	}
	return students, nil
}
