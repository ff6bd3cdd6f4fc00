package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/recommend"
)

type recommendApi struct {
	svc       *recommend.Service
	courseSvc *course.Service
	logger    core.Logger
	validate  *validator.Validate
}

func registerRecommendAPI(g *echo.Group, authed []echo.MiddlewareFunc, s *Server) {
	api := recommendApi{
		svc:       s.RecommendSvc,
		courseSvc: s.CourseSvc,
		logger:    s.Logger,
		validate:  s.Validate,
	}
	student := append(authed[:len(authed):len(authed)], studentMiddleware())

	cg := g.Group("/chat")
	cg.POST("/recommendations", api.recommend, student...)
	cg.GET("/request-count", api.usage, student...)
}

// Handlers

func (api *recommendApi) recommend(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data recommend.Request
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Request")
	}
	data.Clean()
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if len(data.AvailableCourses) == 0 {
		if data.AvailableCourses, err = api.catalogSummaries(ctx); err != nil {
			return err
		}
	}

	res, err := api.svc.Recommend(ctx.Request().Context(), usr.ID, data)
	switch cause := errors.Cause(err).(type) {
	case nil:
		recommendations.With(outcomeLabel(res.Cached, "ok")).Inc()
		return ctx.JSON(http.StatusOK, res)
	case *recommend.AdvisorError:
		recommendations.With(outcomeLabel(false, "error")).Inc()
		api.logger.Error(cause.Error(), err, usr)
		return ctx.JSON(http.StatusInternalServerError, RecommendErrorResponse{
			Message:           "failed to get recommendations",
			RequestCount:      res.RequestCount,
			RemainingRequests: res.RemainingRequests,
		})
	default:
		if cause == recommend.ErrQuotaExceeded {
			recommendations.With(outcomeLabel(false, "quota_exceeded")).Inc()
			return ctx.JSON(http.StatusTooManyRequests, RecommendErrorResponse{
				Message:           cause.Error(),
				RequestCount:      res.RequestCount,
				RemainingRequests: res.RemainingRequests,
			})
		}
		if cause == recommend.ErrRateLimited {
			recommendations.With(outcomeLabel(false, "rate_limited")).Inc()
		}
		return errors.Wrap(err, "getting recommendations")
	}
}

func (api *recommendApi) catalogSummaries(ctx echo.Context) ([]recommend.CourseSummary, error) {
	courses, err := api.courseSvc.Query(ctx.Request().Context(), course.QueryFilter{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	summaries := make([]recommend.CourseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, recommend.CourseSummary{Title: c.Title, Description: c.Description})
	}
	return summaries, nil
}

func (api *recommendApi) usage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Usage())
}

type RecommendErrorResponse struct {
	Message           string `json:"message"`
	RequestCount      int    `json:"request_count"`
	RemainingRequests int    `json:"remaining_requests"`
}
