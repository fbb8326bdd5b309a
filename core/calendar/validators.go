package calendar

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-admin/core"
)

var (
	endAfterStartTag  = "endafterstart"
	endAfterStartText = "End date must be after start date"
)

// InitValidators registers the calendar struct validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(dateRangeStructValidation, NewAcademicYear{}, NewTerm{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

// dateRangeStructValidation checks that EndDate is strictly after StartDate.
// Malformed dates are left to the isodate field validation.
func dateRangeStructValidation(sl validator.StructLevel) {
	var start, end string
	switch v := sl.Current().Interface().(type) {
	case NewAcademicYear:
		start, end = v.StartDate, v.EndDate
	case NewTerm:
		start, end = v.StartDate, v.EndDate
	default:
		return
	}
	startDate, err1 := time.Parse(core.DateLayout, start)
	endDate, err2 := time.Parse(core.DateLayout, end)
	if err1 != nil || err2 != nil {
		return
	}
	if !endDate.After(startDate) {
		sl.ReportError(end, "endDate", "EndDate", endAfterStartTag, "")
	}
}
