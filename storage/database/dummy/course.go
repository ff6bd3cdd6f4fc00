package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// load returns a copy of the course with its computed fields set; the caller holds the lock.
func (repo *courseRepository) load(c *course.Course) course.Course {
	loaded := *c
	loaded.Content = append([]course.ContentItem{}, c.Content...)
	if instructor, ok := repo.db.users[c.InstructorID]; ok {
		loaded.Instructor = instructor.Name
	}
	loaded.EnrolledCount = 0
	for _, e := range repo.db.enrollments {
		if e.CourseID == c.ID {
			loaded.EnrolledCount++
		}
	}
	return loaded
}

func (repo *courseRepository) save(c course.Course) {
	c.Content = append([]course.ContentItem{}, c.Content...)
	c.Instructor = ""
	c.EnrolledCount = 0
	repo.db.courses[c.ID] = &c
}

func (repo *courseRepository) titleTaken(title string, excluded map[string]struct{}) bool {
	for _, c := range repo.db.courses {
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		if strings.EqualFold(c.Title, title) {
			return true
		}
	}
	return false
}

func (repo *courseRepository) CheckTitleUniqueness(_ context.Context, title string, excludedCourses ...course.Course) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedCourses))
	for _, c := range excludedCourses {
		excluded[c.ID] = struct{}{}
	}
	if repo.titleTaken(title, excluded) {
		return course.ErrTitleExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.titleTaken(c.Title, nil) {
		return course.Course{}, course.ErrTitleExists
	}
	repo.save(c)
	return repo.load(repo.db.courses[c.ID]), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return repo.load(c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter.InstructorID != "" && c.InstructorID != filter.InstructorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		courses = append(courses, repo.load(c))
	}

	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareCourses(courses[i], courses[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func compareCourses(a, b course.Course, field string) int {
	switch field {
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if repo.titleTaken(c.Title, map[string]struct{}{c.ID: {}}) {
		return course.Course{}, course.ErrTitleExists
	}
	repo.save(c)
	return repo.load(repo.db.courses[c.ID]), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	for eid, e := range repo.db.enrollments {
		if e.CourseID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	return nil
}
