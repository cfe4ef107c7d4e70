package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"
)

// RegisterValidators registers the user validation tags on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// Custom Validators

// roleValidation checks that the role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	switch role := fl.Field().Interface().(type) {
	case Role:
		return role.Valid()
	case string:
		return Role(role).Valid()
	default:
		return false
	}
}
