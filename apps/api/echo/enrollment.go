package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/enrollment"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, s *Server) {
	api := enrollmentApi{svc: s.EnrollmentSvc}
	student := append(authed[:len(authed):len(authed)], studentMiddleware())

	cg := g.Group("/courses")
	cg.GET("/for-students", api.catalog, student...)
	cg.GET("/enrolled/list", api.queryEnrolled, student...)
	cg.POST("/enroll/:id", api.enroll, student...)
	cg.POST("/unenroll/:id", api.unenroll, student...)
}

// Handlers

func (api *enrollmentApi) catalog(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(course.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.StudentCourse{})
	}
	filter.Clean()
	courses, err := api.svc.Catalog(ctx.Request().Context(), usr.ID, *filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying catalog")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *enrollmentApi) queryEnrolled(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.EnrolledCourses(ctx.Request().Context(), usr.ID, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying enrolled courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, EnrollmentResponse{Message: "enrolled successfully", Enrollment: e})
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Unenroll(ctx.Request().Context(), ctx.Param("id"), usr); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "unenrolled successfully"})
}

type EnrollmentResponse struct {
	Message    string                `json:"message"`
	Enrollment enrollment.Enrollment `json:"enrollment"`
}
