package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/user"
)

const contextObjectKey = "object"

// sessionMiddleware loads the token's User and rejects tokens issued before the last logout or password change.
func sessionMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if claims.Version != usr.TokenVersion {
				return errTokenRevoked
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}

			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// roleMiddleware lets through the Users having one of the roles; admins pass unless strict.
func roleMiddleware(strict bool, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if usr.HasRole(roles...) || (!strict && usr.IsAdmin()) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func instructorMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(false, user.RoleInstructor)
}

func studentMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(true, user.RoleStudent)
}

// courseManagerMiddleware puts the Course of the `:id` param in the context when the User can manage it.
func courseManagerMiddleware(svc *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			c, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if !course.CanManage(usr, c) {
				return errHttpForbidden
			}
			ctx.Set(contextObjectKey, c)
			return next(ctx)
		}
	}
}
