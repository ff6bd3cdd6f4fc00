package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
)

const coursesTable = "courses"

var courseColumns = []string{
	"c.id",
	"c.title",
	"c.description",
	"c.instructor_id",
	"COALESCE(u.name, '') AS instructor",
	"c.content",
	"(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrolled_count",
	"c.created_at",
	"c.updated_at",
}

type courseRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	InstructorID  string         `db:"instructor_id"`
	Instructor    string         `db:"instructor"`
	Content       types.JSONText `db:"content"`
	EnrolledCount int            `db:"enrolled_count"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row courseRow) toCourse() (course.Course, error) {
	c := course.Course{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		InstructorID:  row.InstructorID,
		Instructor:    row.Instructor,
		EnrolledCount: row.EnrolledCount,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if err := row.Content.Unmarshal(&c.Content); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding content")
	}
	if c.Content == nil {
		c.Content = []course.ContentItem{}
	}
	return c, nil
}

func encodeContent(items []course.ContentItem) (string, error) {
	if items == nil {
		items = []course.ContentItem{}
	}
	b, err := json.Marshal(items)
	return string(b), errors.Wrap(err, "encoding content")
}

type courseRepository struct {
	db core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db core.DBExecutor) course.Repository {
	return &courseRepository{db: db}
}

func countCoursesByTitle(title string, excludedCourses ...course.Course) squirrel.SelectBuilder {
	q := NewQueryBuilder().
		Select("COUNT(*)").
		From(coursesTable).
		Where("LOWER(title) = LOWER(?)", title)
	if len(excludedCourses) > 0 {
		ids := make([]string, 0, len(excludedCourses))
		for _, c := range excludedCourses {
			ids = append(ids, c.ID)
		}
		q = q.Where(squirrel.NotEq{"id": ids})
	}
	return q
}

func (repo *courseRepository) CheckTitleUniqueness(ctx context.Context, title string, excludedCourses ...course.Course) error {
	query, args, err := countCoursesByTitle(title, excludedCourses...).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "counting courses")
	}
	if count > 0 {
		return course.ErrTitleExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	content, err := encodeContent(c.Content)
	if err != nil {
		return course.Course{}, err
	}
	query, args, err := NewQueryBuilder().
		Insert(coursesTable).
		Columns("id", "title", "description", "instructor_id", "content", "created_at", "updated_at").
		Values(c.ID, c.Title, c.Description, c.InstructorID, squirrel.Expr("?::jsonb", content), c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrTitleExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func selectCourses() squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select(courseColumns...).
		From(coursesTable + " c").
		LeftJoin(usersTable + " u ON u.id = c.instructor_id")
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	query, args, err := selectCourses().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	var row courseRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return row.toCourse()
}

// likeEscaper makes the search match LIKE wildcards literally (backslash is the default escape).
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func queryCourses(filter course.QueryFilter, ordering []core.DBOrdering) squirrel.SelectBuilder {
	q := selectCourses()
	if filter.InstructorID != "" {
		q = q.Where(squirrel.Eq{"c.instructor_id": filter.InstructorID})
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"c.title": pattern},
			squirrel.ILike{"c.description": pattern},
		})
	}
	for _, ord := range ordering {
		q = q.OrderBy("c." + ord.String())
	}
	return q.OrderBy("c.id ASC")
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	if filter.InstructorID != "" {
		if _, err := uuid.Parse(filter.InstructorID); err != nil {
			return []course.Course{}, nil
		}
	}
	query, args, err := queryCourses(filter, ordering).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCourse()
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	content, err := encodeContent(c.Content)
	if err != nil {
		return course.Course{}, err
	}
	query, args, err := NewQueryBuilder().
		Update(coursesTable).
		SetMap(map[string]interface{}{
			"title":       c.Title,
			"description": c.Description,
			"content":     squirrel.Expr("?::jsonb", content),
			"updated_at":  c.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrTitleExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	query, args, err := NewQueryBuilder().Delete(coursesTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	// enrollments are deleted on cascade
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound)
}
