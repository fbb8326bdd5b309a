package staff

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-admin/core"
)

var (
	staffRoleTag  = "staffrole"
	staffRoleText = "invalid role"

	phoneTag   = "phone"
	phoneText  = "invalid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)

	hireDateTag  = "hiredate"
	hireDateText = "hire date cannot be in the future"
)

// InitValidators registers the staff validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(staffRoleTag, staffRoleValidation)
	core.RegisterCustomTranslation(validate, translator, staffRoleTag, staffRoleText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	validate.RegisterStructValidation(staffStructValidation, NewStaff{})
	core.RegisterCustomTranslation(validate, translator, hireDateTag, hireDateText)
}

// staffRoleValidation checks that the role is one of AllRoles
func staffRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// staffStructValidation rejects hire dates in the future.
func staffStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewStaff)
	if !ok {
		return
	}
	hired, err := core.ParseDate(ns.HireDate)
	if err != nil || hired.IsZero() {
		return
	}
	if hired.After(NowFunc().UTC()) {
		sl.ReportError(ns.HireDate, "hireDate", "HireDate", hireDateTag, "")
	}
}
