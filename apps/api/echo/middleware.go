package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core/school"
)

const contextSchoolKey = "school"

// schoolAdminMiddleware resolves the `:school` path param and only lets through its admins, and system admins.
// The resolved school is kept in the context for the handlers.
func schoolAdminMiddleware(schools school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sch, err := schools.GetByName(ctx.Request().Context(), ctx.Param("school"))
			if err != nil {
				return errors.Wrap(err, "finding school by name")
			}
			if !claims.canAdminister(sch) {
				return errHttpForbidden
			}
			ctx.Set(contextSchoolKey, sch)
			return next(ctx)
		}
	}
}

func systemMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSystem {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
