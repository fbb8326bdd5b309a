package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/feewizard"
	"github.com/trezcool/masomo-admin/core/staff"
)

// ReferenceResponse is everything the wizards need when they open.
type ReferenceResponse struct {
	feewizard.ReferenceData
	BoardingTypes []string                `json:"boardingTypes"`
	TermTemplates []calendar.TermTemplate `json:"termTemplates"`
	StaffRoles    []staff.Role            `json:"staffRoles"`
}

func registerReferenceAPI(g *echo.Group, deps ServerDeps) {
	g.GET("/reference", func(ctx echo.Context) error {
		ref, err := feewizard.LoadReferenceData(ctx.Request().Context(), deps.CalendarRepo, deps.FeeSvc.Repo(), ctx.QueryParam("schoolType"))
		if err != nil {
			return errors.Wrap(err, "loading reference data")
		}
		return ctx.JSON(http.StatusOK, ReferenceResponse{
			ReferenceData: ref,
			BoardingTypes: fee.BoardingTypes,
			TermTemplates: calendar.TermTemplates,
			StaffRoles:    staff.Roles,
		})
	})
}
