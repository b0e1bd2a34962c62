// Package validator holds the request rules of the auth module.
package validator

import (
	"regexp"

	"membership_backend/internal/auth/transport"
	"membership_backend/platform/apperr"
	platformvalidator "membership_backend/platform/validator"

	"github.com/go-playground/validator/v10"
)

// EmailShapeTag is the struct tag of the loose email shape rule.
const EmailShapeTag = "emailshape"

// MsgInvalidEmail is reported when an email is present but malformed.
const MsgInvalidEmail = "Invalid email format"

// Only the shape local@domain.tld is checked; anything after the first
// match is accepted.
var emailShape = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

var messages = platformvalidator.Messages{
	"email." + EmailShapeTag: MsgInvalidEmail,
}

// IsValidEmail reports whether email has the local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailShape.MatchString(email)
}

// RegisterRules adds the auth rules to v.
func RegisterRules(v *platformvalidator.Validator) error {
	return v.RegisterValidation(EmailShapeTag, func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
}

// ValidateRegistration checks presence of every registration field and the
// email shape. An empty result means the request is acceptable.
// Password strength is not checked.
func ValidateRegistration(v *platformvalidator.Validator, req transport.RegisterRequest) []apperr.FieldError {
	return v.Check(req, messages)
}

// ValidateLogin checks presence of email and password only.
func ValidateLogin(v *platformvalidator.Validator, req transport.LoginRequest) []apperr.FieldError {
	return v.Check(req, messages)
}
