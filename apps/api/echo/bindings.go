package echoapi

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/feewizard"
	"github.com/trezcool/masomo-admin/core/staff"
)

var orderingParam = "ordering"

func bindOrderings(ctx echo.Context) []core.Ordering {
	return core.ParseOrderings(ctx.QueryParam(orderingParam))
}

// splitParam accepts both repeated params (?role=a&role=b) and comma separated values (?role=a,b).
func splitParam(ctx echo.Context, name string) []string {
	var values []string
	for _, v := range ctx.QueryParams()[name] {
		for _, s := range strings.Split(v, ",") {
			if s = core.CleanString(s); s != "" {
				values = append(values, s)
			}
		}
	}
	return values
}

func bindStaffFilter(ctx echo.Context) (staff.QueryFilter, error) {
	var (
		filter staff.QueryFilter
		errs   core.FieldErrors
		err    error
	)
	filter.Search = ctx.QueryParam("search")
	filter.Roles = splitParam(ctx, "role")
	filter.Departments = splitParam(ctx, "department")
	if v := ctx.QueryParam("is_active"); v != "" {
		isActive, pErr := strconv.ParseBool(v)
		if pErr != nil {
			errs.Add("is_active", "must be true or false")
		} else {
			filter.IsActive = &isActive
		}
	}
	if filter.HiredFrom, err = core.ParseDate(ctx.QueryParam("hired_from")); err != nil {
		errs.Add("hired_from", "must be a date formatted as YYYY-MM-DD")
	}
	if filter.HiredTo, err = core.ParseDate(ctx.QueryParam("hired_to")); err != nil {
		errs.Add("hired_to", "must be a date formatted as YYYY-MM-DD")
	}
	if err := errs.Err("invalid filters"); err != nil {
		return staff.QueryFilter{}, err
	}
	filter.Clean()
	return filter, nil
}

type (
	// DraftRequest carries a whole draft; the API keeps no wizard state between requests.
	DraftRequest struct {
		Draft fee.Draft `json:"draft"`
		Step  int       `json:"step"`
	}

	ApplyRequest struct {
		Draft   fee.Draft    `json:"draft"`
		Actions []fee.Action `json:"actions"`
	}

	PerTermRequest struct {
		Form feewizard.PerTermForm `json:"form"`
		Edit *feewizard.EditState  `json:"edit,omitempty"`
	}

	DocumentRequest struct {
		Form    fee.FeeStructureForm `json:"form"`
		Catalog []fee.FeeBucket      `json:"catalog"`
	}

	Recipient struct {
		Name  string `json:"name"`
		Email string `json:"email" validate:"required,email"`
	}

	EmailDocumentRequest struct {
		DocumentRequest
		To   []Recipient `json:"to" validate:"required,min=1,dive"`
		Note string      `json:"note" validate:"max=1000"`
	}

	CalendarRequest struct {
		Year     calendar.NewAcademicYear `json:"year"`
		Template string                   `json:"template"`
		Terms    []calendar.NewTerm       `json:"terms"`
	}
)

func (r EmailDocumentRequest) addresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(r.To))
	for _, to := range r.To {
		addrs = append(addrs, mail.Address{Name: core.CleanString(to.Name), Address: core.CleanString(to.Email, true /* lower */)})
	}
	return addrs
}

// bindJSON binds the request body into data, naming the target in the error.
func bindJSON(ctx echo.Context, data interface{}, name string) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}
