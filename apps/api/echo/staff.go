package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/staff"
)

type staffApi struct {
	svc *staff.Service
}

func registerStaffAPI(g *echo.Group, deps ServerDeps) {
	api := staffApi{svc: deps.StaffSvc}

	sg := g.Group("/staff")
	sg.GET("", api.query)
	sg.GET("/roles", api.queryRoles)
	sg.POST("", api.create, rolesMiddleware(staff.RoleAdministrator, staff.RoleHeadTeacher))
	sg.GET("/:id", api.retrieve)
}

func (api *staffApi) query(ctx echo.Context) error {
	filter, err := bindStaffFilter(ctx)
	if err != nil {
		return err
	}
	members, err := api.svc.Query(ctx.Request().Context(), filter, bindOrderings(ctx))
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *staffApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, staff.Roles)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := bindJSON(ctx, &data, "NewStaff"); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}
