package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/enrollment"
	"github.com/trezcool/soma/core/recommend"
	"github.com/trezcool/soma/core/user"
)

const invalidInputMsg = "invalid input"

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked       = echo.NewHTTPError(http.StatusUnauthorized, "token no longer valid")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, user.ErrAccountDeactivated.Error())
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")

	// domain errors that are safe to show
	domainErrCodes = map[error]int{
		user.ErrInvalidCredentials:    http.StatusBadRequest,
		user.ErrAccountDeactivated:    http.StatusForbidden,
		user.ErrEmailExists:           http.StatusBadRequest,
		user.ErrNotFound:              http.StatusNotFound,
		course.ErrNotFound:            http.StatusNotFound,
		course.ErrTitleExists:         http.StatusBadRequest,
		enrollment.ErrAlreadyEnrolled: http.StatusBadRequest,
		enrollment.ErrNotEnrolled:     http.StatusBadRequest,
		recommend.ErrQuotaExceeded:    http.StatusTooManyRequests,
		recommend.ErrRateLimited:      http.StatusTooManyRequests,
	}
)

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var code int
		var resp interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp = errorResponse{Message: fmt.Sprint(origErr.Message)}
				break
			}
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp = errorResponse{Message: msg}
			} else {
				resp = origErr.Message
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			resp = errorResponse{Message: invalidInputMsg, Errors: fldErrs}
		case *core.ValidationError:
			code = http.StatusBadRequest
			if flds := origErr.FieldsMap(); flds != nil {
				resp = errorResponse{Message: invalidInputMsg, Errors: flds}
			} else {
				resp = errorResponse{Message: origErr.Error()}
			}
		case *recommend.AdvisorError:
			code = http.StatusInternalServerError
			resp = errorResponse{Message: "failed to get recommendations"}
			logger.Error(origErr.Error(), err, contextUser(ctx))
		default:
			if c, ok := domainErrCodes[origErr]; ok {
				code = c
				resp = errorResponse{Message: origErr.Error()}
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp = errorResponse{Message: msg}
			logger.Error(msg, errors.Wrap(err, msg), contextUser(ctx))

			if ctx.Echo().Debug {
				resp = errorResponse{Message: err.Error()}
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, resp)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

// contextUser returns what is known of the request User, for error reports.
func contextUser(ctx echo.Context) user.User {
	if usr, err := getContextUser(ctx); err == nil {
		return usr
	}
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.Subject
		usr.Email = claims.Email
	}
	return usr
}
