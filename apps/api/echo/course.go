package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/enrollment"
)

var errCourseNotFoundInCtx = errors.New("course object not found in echo.Context")

type courseApi struct {
	svc           *course.Service
	enrollmentSvc *enrollment.Service
	validate      *validator.Validate
}

func registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc, s *Server) {
	api := courseApi{
		svc:           s.CourseSvc,
		enrollmentSvc: s.EnrollmentSvc,
		validate:      s.Validate,
	}
	instructor := append(authed[:len(authed):len(authed)], instructorMiddleware())
	manager := append(instructor[:len(instructor):len(instructor)], courseManagerMiddleware(api.svc))

	cg := g.Group("/courses")

	// public endpoints
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// instructor endpoints
	cg.POST("/create", api.create, instructor...)
	cg.GET("/my-courses/list", api.queryMine, instructor...)
	cg.PUT("/:id", api.update, manager...)
	cg.DELETE("/:id", api.destroy, manager...)
	cg.GET("/:id/students", api.queryStudents, manager...)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	courses, err := api.svc.Query(ctx.Request().Context(), *filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Message: "course created successfully", Course: c})
}

func (api *courseApi) queryMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryByInstructor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying instructor courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(course.Course)
	if !ok {
		return errors.Wrap(errCourseNotFoundInCtx, "retrieving object from context")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(ctx.Request().Context(), c, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Message: "course updated successfully", Course: c})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(course.Course)
	if !ok {
		return errors.Wrap(errCourseNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "course deleted successfully"})
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(course.Course)
	if !ok {
		return errors.Wrap(errCourseNotFoundInCtx, "retrieving object from context")
	}
	students, err := api.enrollmentSvc.Students(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

type CourseResponse struct {
	Message string        `json:"message"`
	Course  course.Course `json:"course"`
}
