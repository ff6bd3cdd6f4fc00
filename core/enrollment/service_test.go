package enrollment_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/enrollment"
	"github.com/trezcool/soma/core/user"
	dummydb "github.com/trezcool/soma/storage/database/dummy"
	"github.com/trezcool/soma/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	courseSvc := course.NewService(dummydb.NewCourseRepository(db))
	svc := enrollment.NewService(dummydb.NewEnrollmentRepository(db), courseSvc)

	alan := testutil.CreateUser(t, usrRepo, "Alan Turing", "alan@soma.test", "", user.RoleInstructor, true)
	ada := testutil.CreateUser(t, usrRepo, "Ada Lovelace", "ada@soma.test", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob Smith", "bob@soma.test", "", user.RoleStudent, true)

	goCourse, err := courseSvc.Create(ctx, course.NewCourse{Title: "Go 101", Description: "Learn Go"}, alan)
	require.NoError(t, err)
	sqlCourse, err := courseSvc.Create(ctx, course.NewCourse{Title: "SQL", Description: "Learn SQL"}, alan)
	require.NoError(t, err)
	byTitle := []core.DBOrdering{{Field: "title", Ascending: true}}

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.Enroll(ctx, uuid.NewString(), ada)
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))
		assert.Equal(t, course.ErrNotFound, errors.Cause(svc.Unenroll(ctx, "lol", ada)))
	})

	t.Run("not enrolled", func(t *testing.T) {
		assert.Equal(t, enrollment.ErrNotEnrolled, svc.Unenroll(ctx, goCourse.ID, ada))
	})

	t.Run("enroll", func(t *testing.T) {
		e, err := svc.Enroll(ctx, goCourse.ID, ada)
		require.NoError(t, err)
		assert.Equal(t, goCourse.ID, e.CourseID)
		assert.Equal(t, ada.ID, e.StudentID)
		assert.False(t, e.EnrolledAt.IsZero())

		_, err = svc.Enroll(ctx, goCourse.ID, ada)
		assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)

		_, err = svc.Enroll(ctx, goCourse.ID, bob)
		require.NoError(t, err)
	})

	t.Run("catalog", func(t *testing.T) {
		catalog, err := svc.Catalog(ctx, ada.ID, course.QueryFilter{}, byTitle)
		require.NoError(t, err)
		require.Len(t, catalog, 2)
		assert.Equal(t, goCourse.ID, catalog[0].ID)
		assert.True(t, catalog[0].IsEnrolled)
		assert.Equal(t, 2, catalog[0].EnrolledCount)
		assert.Equal(t, sqlCourse.ID, catalog[1].ID)
		assert.False(t, catalog[1].IsEnrolled)

		enrolled, err := svc.EnrolledCourses(ctx, ada.ID, byTitle)
		require.NoError(t, err)
		require.Len(t, enrolled, 1)
		assert.Equal(t, goCourse.ID, enrolled[0].ID)
	})

	t.Run("students", func(t *testing.T) {
		students, err := svc.Students(ctx, goCourse.ID)
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, ada.ID, students[0].ID)
		assert.Equal(t, "Ada Lovelace", students[0].Name)
		assert.Equal(t, bob.ID, students[1].ID)

		students, err = svc.Students(ctx, sqlCourse.ID)
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Empty(t, students)
	})

	t.Run("unenroll", func(t *testing.T) {
		require.NoError(t, svc.Unenroll(ctx, goCourse.ID, ada))
		enrolled, err := svc.EnrolledCourses(ctx, ada.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, enrolled)
	})

	t.Run("deleting the course drops its enrollments", func(t *testing.T) {
		require.NoError(t, courseSvc.Delete(ctx, goCourse.ID))
		enrolled, err := svc.EnrolledCourses(ctx, bob.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, enrolled)
	})
}
