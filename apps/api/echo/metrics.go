package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soma",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "soma",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies by route & method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soma",
		Name:      "recommendations_total",
		Help:      "Number of recommendation requests by outcome.",
	}, []string{"outcome", "cached"})
)

func outcomeLabel(cached bool, outcome string) prometheus.Labels {
	return prometheus.Labels{"outcome": outcome, "cached": strconv.FormatBool(cached)}
}

// metricsMiddleware records the count & latency of the requests, labeled by route pattern.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err) // commits the response status
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method

			httpRequests.With(prometheus.Labels{"route": route, "method": method, "code": strconv.Itoa(ctx.Response().Status)}).Inc()
			httpDuration.With(prometheus.Labels{"route": route, "method": method}).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
