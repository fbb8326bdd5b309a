package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/staff"
)

// writerRoles may change school data.
var writerRoles = []string{staff.RoleAdministrator, staff.RoleHeadTeacher, staff.RoleAccountant}

func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
