package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	categoryTag  = "category"
	categoryText = "unknown category"

	levelTag  = "level"
	levelText = "unknown level"

	statusTag  = "status"
	statusText = "invalid status"
)

// RegisterValidators registers the course validation tags on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, oneOfValidation(Categories))
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(levelTag, oneOfValidation(Levels))
	core.RegisterCustomTranslation(validate, translator, levelTag, levelText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// Custom Validators

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val, ok := fl.Field().Interface().(string)
		return ok && anyOf(allowed, val)
	}
}

func statusValidation(fl validator.FieldLevel) bool {
	switch status := fl.Field().Interface().(type) {
	case Status:
		return status.Valid()
	case string:
		return Status(status).Valid()
	default:
		return false
	}
}
