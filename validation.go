package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 30
	maxNameLength     = 100
)

// Validate runs the registration rules. When allowedRoles is not empty
// the role must be one of them, otherwise any role is stored as given.
func (r RegisterUserMessage) Validate(allowedRoles ...string) error {
	roleRules := []validation.Rule{}
	if len(allowedRoles) > 0 {
		roles := make([]any, 0, len(allowedRoles))
		for _, role := range allowedRoles {
			roles = append(roles, role)
		}
		roleRules = append(roleRules,
			validation.Required.Error("Role field is required"),
			validation.In(roles...).Error("Role is invalid"),
		)
	}

	err := validation.ValidateStruct(&r,
		validation.Field(&r.FirstName,
			validation.Required.Error("First name field is required"),
			validation.Length(1, maxNameLength).Error("First name is too long"),
		),
		validation.Field(&r.LastName,
			validation.Required.Error("Last name field is required"),
			validation.Length(1, maxNameLength).Error("Last name is too long"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email field is required"),
			is.Email.Error("Email is invalid"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password field is required"),
			validation.Length(minPasswordLength, maxPasswordLength).Error("Password must be between 6 and 30 characters"),
		),
		validation.Field(&r.Password2,
			validation.Required.Error("Confirm password field is required"),
			validation.By(ValidateStringEquals(r.Password, "Passwords must match")),
		),
		validation.Field(&r.Role, roleRules...),
	)

	return FormatValidationError(err)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email field is required"),
			is.Email.Error("Email is invalid"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password field is required"),
		),
	)
	return FormatValidationError(err)
}

// ValidateStringEquals checks that a field equals str
func ValidateStringEquals(str, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(message)
		}
		return nil
	}
}

// FormatValidationError turns ozzo errors into a validation error whose
// field messages are available through ValidationMap. nil stays nil.
func FormatValidationError(err error) error {
	if err == nil {
		return nil
	}

	fields := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
		if len(fields) == 0 {
			return nil
		}
	} else {
		fields["form"] = err.Error()
	}

	return goerrors.NewValidationFromMap("validation failed", fields).
		WithCode(goerrors.CodeBadRequest)
}

// ValidationFields returns the field messages carried by err
func ValidationFields(err error) (map[string]string, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryValidation {
		return nil, false
	}
	return richErr.ValidationMap(), true
}
