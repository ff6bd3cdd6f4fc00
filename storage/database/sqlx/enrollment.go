package sqlxrepos

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/enrollment"
)

const enrollmentsTable = "enrollments"

type enrollmentRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	StudentID  string    `db:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

type studentRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

type enrollmentRepository struct {
	db core.DBExecutor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db core.DBExecutor) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	query, args, err := NewQueryBuilder().
		Insert(enrollmentsTable).
		Columns("id", "course_id", "student_id", "enrolled_at").
		Values(e.ID, e.CourseID, e.StudentID, e.EnrolledAt).
		ToSql()
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, courseID, studentID string) error {
	query, args, err := NewQueryBuilder().
		Delete(enrollmentsTable).
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return checkAffected(res, enrollment.ErrNotEnrolled)
}

func queryEnrollments(filter enrollment.QueryFilter) squirrel.SelectBuilder {
	q := NewQueryBuilder().
		Select("id", "course_id", "student_id", "enrolled_at").
		From(enrollmentsTable)
	if filter.CourseID != "" {
		q = q.Where(squirrel.Eq{"course_id": filter.CourseID})
	}
	if filter.StudentID != "" {
		q = q.Where(squirrel.Eq{"student_id": filter.StudentID})
	}
	return q.OrderBy("enrolled_at ASC")
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	for _, id := range []string{filter.CourseID, filter.StudentID} {
		if _, err := uuid.Parse(id); id != "" && err != nil {
			return []enrollment.Enrollment{}, nil
		}
	}
	query, args, err := queryEnrollments(filter).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []enrollmentRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}

	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, enrollment.Enrollment{
			ID:         row.ID,
			CourseID:   row.CourseID,
			StudentID:  row.StudentID,
			EnrolledAt: row.EnrolledAt.UTC(),
		})
	}
	return enrollments, nil
}

func queryStudents(courseID string) squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select("u.id", "u.name", "u.email", "e.enrolled_at").
		From(enrollmentsTable + " e").
		Join(usersTable + " u ON u.id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("e.enrolled_at ASC")
}

func (repo *enrollmentRepository) QueryStudents(ctx context.Context, courseID string) ([]enrollment.Student, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return []enrollment.Student{}, nil
	}
	query, args, err := queryStudents(courseID).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}

	students := make([]enrollment.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, enrollment.Student{
			ID:         row.ID,
			Name:       row.Name,
			Email:      row.Email,
			EnrolledAt: row.EnrolledAt.UTC(),
		})
	}
	return students, nil
}
