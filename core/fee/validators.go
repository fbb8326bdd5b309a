package fee

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-admin/core"
)

var (
	boardingTypeTag  = "boardingtype"
	boardingTypeText = "boarding type must be one of day, boarding or both"
)

// InitValidators registers the fee validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(boardingTypeTag, boardingTypeValidation)
	core.RegisterCustomTranslation(validate, translator, boardingTypeTag, boardingTypeText)
}

func boardingTypeValidation(fl validator.FieldLevel) bool {
	return IsBoardingType(fl.Field().String())
}
