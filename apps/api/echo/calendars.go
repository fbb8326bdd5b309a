package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
)

type calendarApi struct {
	repo       calendar.Repository
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

// YearDefaults is what the calendar form is prefilled with for a year name.
type YearDefaults struct {
	Name      string             `json:"name"`
	StartDate core.Date          `json:"startDate"`
	EndDate   core.Date          `json:"endDate"`
	Terms     []calendar.NewTerm `json:"terms"`
}

func registerCalendarAPI(g *echo.Group, deps ServerDeps) {
	api := calendarApi{
		repo:       deps.CalendarRepo,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
	}

	cg := g.Group("/calendars")
	cg.GET("", api.query)
	cg.GET("/defaults", api.defaults)
	cg.POST("", api.create, rolesMiddleware(writerRoles...))
}

func (api *calendarApi) query(ctx echo.Context) error {
	years, err := api.repo.QueryAcademicYears(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying academic years")
	}
	return ctx.JSON(http.StatusOK, years)
}

// defaults derives the dates of ?name=2025-2026 and splits them with ?template (3 terms by default).
func (api *calendarApi) defaults(ctx echo.Context) error {
	name := ctx.QueryParam("name")
	start, end, err := calendar.DefaultYearDates(name)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
	}
	tmplName := ctx.QueryParam("template")
	if tmplName == "" {
		tmplName = "3"
	}
	tmpl, err := calendar.FindTemplate(tmplName)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, YearDefaults{
		Name:      core.CleanString(name),
		StartDate: start,
		EndDate:   end,
		Terms:     tmpl.Apply(start, end),
	})
}

// create runs a whole calendar creation: the year first, then its terms.
func (api *calendarApi) create(ctx echo.Context) error {
	var data CalendarRequest
	if err := bindJSON(ctx, &data, "CalendarRequest"); err != nil {
		return err
	}

	ny, terms, err := calendar.FillDefaults(data.Year, data.Template, data.Terms)
	if err != nil {
		return err
	}

	creator := calendar.NewCreator(api.repo, api.validate, api.translator, api.logger)
	reqCtx := ctx.Request().Context()
	if _, err := creator.CreateYear(reqCtx, ny); err != nil {
		return err
	}

	summary, err := creator.SubmitTerms(reqCtx, terms)
	if summary == nil {
		if err == nil {
			err = errors.New("no terms were created")
		}
		return err
	}
	if termsErr, ok := errors.Cause(err).(*calendar.TermsError); ok {
		return ctx.JSON(http.StatusMultiStatus, echo.Map{"summary": summary, "error": termsErr.Error()})
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, summary)
}
