package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("course not found")
	ErrTitleExists = errors.New("a course with this title already exists")
)

type (
	Repository interface {
		// CheckTitleUniqueness does a case-insensitive check, ignoring excludedCourses.
		CheckTitleUniqueness(ctx context.Context, title string, excludedCourses ...Course) error
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Description.
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse deletes the Course and its enrollments.
		DeleteCourse(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, title string, exclCourses ...Course) error {
	if err := svc.repo.CheckTitleUniqueness(ctx, title, exclCourses...); err != nil {
		if errors.Cause(err) == ErrTitleExists {
			return core.NewFieldError("title", ErrTitleExists)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse, instructor user.User) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		ID:           uuid.NewString(),
		Title:        nc.Title,
		Description:  nc.Description,
		InstructorID: instructor.ID,
		Instructor:   instructor.Name,
		Content:      withItemIDs(nc.Content),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "creating course")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

// QueryByInstructor returns the courses taught by the instructor.
func (svc *Service) QueryByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	return svc.Query(ctx, QueryFilter{InstructorID: instructorID}, nil)
}

func (svc *Service) Update(ctx context.Context, origCourse Course, uc UpdateCourse) (Course, error) {
	c := origCourse
	c.Title = uc.Title
	c.Description = uc.Description
	c.Content = withItemIDs(uc.Content)
	c.UpdatedAt = time.Now().UTC()

	c, err := svc.repo.UpdateCourse(ctx, c)
	return c, errors.Wrap(err, "updating course")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeleteCourse(ctx, id), "deleting course")
}

// CanManage tells whether the User may update, delete or see the roster of the Course.
func CanManage(usr user.User, c Course) bool {
	return usr.IsAdmin() || (usr.IsInstructor() && c.InstructorID == usr.ID)
}

func withItemIDs(items []ContentItem) []ContentItem {
	withIDs := make([]ContentItem, len(items))
	for i, item := range items {
		if _, err := uuid.Parse(item.ID); err != nil {
			item.ID = uuid.NewString()
		}
		withIDs[i] = item
	}
	return withIDs
}
