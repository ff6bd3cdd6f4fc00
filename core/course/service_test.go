package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/user"
	dummydb "github.com/trezcool/soma/storage/database/dummy"
	"github.com/trezcool/soma/testutil"
)

type testEnv struct {
	svc      *course.Service
	usrRepo  user.Repository
	validate *validator.Validate
}

func setup() *testEnv {
	db := dummydb.Open()
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return &testEnv{
		svc:      course.NewService(dummydb.NewCourseRepository(db)),
		usrRepo:  dummydb.NewUserRepository(db),
		validate: validate,
	}
}

func TestService_Create(t *testing.T) {
	env := setup()
	ctx := context.Background()
	alan := testutil.CreateUser(t, env.usrRepo, "Alan Turing", "alan@soma.test", "", user.RoleInstructor, true)

	nc := course.NewCourse{
		Title:       "  Go 101 ",
		Description: "Learn Go",
		Content:     []course.ContentItem{{Title: " Intro ", Body: "Hello"}, {ID: "keep-me?", Title: "Types"}},
	}
	require.NoError(t, nc.Validate(ctx, env.validate, env.svc))
	assert.Equal(t, "Go 101", nc.Title)
	assert.Equal(t, "Intro", nc.Content[0].Title)

	c, err := env.svc.Create(ctx, nc, alan)
	require.NoError(t, err)
	assert.Equal(t, "Go 101", c.Title)
	assert.Equal(t, alan.ID, c.InstructorID)
	assert.Equal(t, "Alan Turing", c.Instructor)
	require.Len(t, c.Content, 2)
	for _, item := range c.Content {
		_, err := uuid.Parse(item.ID)
		assert.NoError(t, err, "content items get a UUID")
	}

	dup := course.NewCourse{Title: "GO 101", Description: "Again"}
	err = dup.Validate(ctx, env.validate, env.svc)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, map[string]string{"title": "a course with this title already exists"}, vErr.FieldsMap())

	got, err := env.svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = env.svc.GetByID(ctx, "not-a-uuid")
	assert.Equal(t, course.ErrNotFound, err)
	_, err = env.svc.GetByID(ctx, uuid.NewString())
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
}

func TestService_Query(t *testing.T) {
	env := setup()
	ctx := context.Background()
	alan := testutil.CreateUser(t, env.usrRepo, "Alan Turing", "alan@soma.test", "", user.RoleInstructor, true)
	grace := testutil.CreateUser(t, env.usrRepo, "Grace Hopper", "grace@soma.test", "", user.RoleInstructor, true)

	var ids []string
	for _, nc := range []struct {
		title, desc string
		instructor  user.User
	}{
		{"Go 101", "Learn Go", alan},
		{"Algorithms", "Sorting and searching in Go", alan},
		{"COBOL", "Legacy systems", grace},
	} {
		c, err := env.svc.Create(ctx, course.NewCourse{Title: nc.title, Description: nc.desc}, nc.instructor)
		require.NoError(t, err)
		ids = append(ids, c.ID)
		time.Sleep(time.Millisecond)
	}

	titles := func(courses []course.Course) []string {
		res := make([]string, 0, len(courses))
		for _, c := range courses {
			res = append(res, c.Title)
		}
		return res
	}

	courses, err := env.svc.Query(ctx, course.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"COBOL", "Algorithms", "Go 101"}, titles(courses), "newest first by default")

	courses, err = env.svc.Query(ctx, course.QueryFilter{}, []core.DBOrdering{{Field: "password_hash"}, {Field: "title", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithms", "COBOL", "Go 101"}, titles(courses))

	courses, err = env.svc.Query(ctx, course.QueryFilter{Search: "go"}, []core.DBOrdering{{Field: "title", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithms", "Go 101"}, titles(courses))

	courses, err = env.svc.QueryByInstructor(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"COBOL"}, titles(courses))
	assert.Equal(t, ids[2], courses[0].ID)
}

func TestService_Update(t *testing.T) {
	env := setup()
	ctx := context.Background()
	alan := testutil.CreateUser(t, env.usrRepo, "Alan Turing", "alan@soma.test", "", user.RoleInstructor, true)

	orig, err := env.svc.Create(ctx, course.NewCourse{
		Title:       "Go 101",
		Description: "Learn Go",
		Content:     []course.ContentItem{{Title: "Intro"}},
	}, alan)
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, course.NewCourse{Title: "SQL", Description: "Learn SQL"}, alan)
	require.NoError(t, err)

	t.Run("blank fields are kept", func(t *testing.T) {
		uc := course.UpdateCourse{Description: "  Learn Go fast "}
		require.NoError(t, uc.Validate(ctx, orig, env.validate, env.svc))
		assert.Equal(t, course.UpdateCourse{Title: "Go 101", Description: "Learn Go fast", Content: orig.Content}, uc)

		updated, err := env.svc.Update(ctx, orig, uc)
		require.NoError(t, err)
		assert.Equal(t, "Learn Go fast", updated.Description)
		assert.Equal(t, orig.Content, updated.Content)
		assert.True(t, updated.UpdatedAt.After(orig.UpdatedAt) || updated.UpdatedAt.Equal(orig.UpdatedAt))
	})

	t.Run("title taken", func(t *testing.T) {
		uc := course.UpdateCourse{Title: "sql"}
		err := uc.Validate(ctx, orig, env.validate, env.svc)
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, map[string]string{"title": "a course with this title already exists"}, vErr.FieldsMap())
	})

	t.Run("empty content clears it", func(t *testing.T) {
		uc := course.UpdateCourse{Content: []course.ContentItem{}}
		require.NoError(t, uc.Validate(ctx, orig, env.validate, env.svc))
		updated, err := env.svc.Update(ctx, orig, uc)
		require.NoError(t, err)
		assert.Empty(t, updated.Content)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, env.svc.Delete(ctx, orig.ID))
		_, err := env.svc.GetByID(ctx, orig.ID)
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))
		assert.Equal(t, course.ErrNotFound, errors.Cause(env.svc.Delete(ctx, orig.ID)))
	})
}

func TestCanManage(t *testing.T) {
	c := course.Course{InstructorID: "i1"}
	assert.True(t, course.CanManage(user.User{ID: "i1", Role: user.RoleInstructor}, c))
	assert.True(t, course.CanManage(user.User{ID: "a1", Role: user.RoleAdmin}, c))
	assert.False(t, course.CanManage(user.User{ID: "i2", Role: user.RoleInstructor}, c))
	assert.False(t, course.CanManage(user.User{ID: "i1", Role: user.RoleStudent}, c))
}
