// Package forms validates user input before it is sent to the API.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Login is the login form.
type Login struct {
	Email    string `form:"email" validate:"not_empty,email"`
	Password string `form:"password" validate:"required"`
}

// Signup is the registration form.
type Signup struct {
	FullName        string `form:"full_name" validate:"not_empty"`
	Email           string `form:"email" validate:"not_empty,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// ForgotPassword is the reset request form.
type ForgotPassword struct {
	Email string `form:"email" validate:"not_empty,email"`
}

// ResetPassword is the form reached from a reset email link.
type ResetPassword struct {
	Token           string `form:"token" validate:"not_empty"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// Habit is the create and edit habit form.
type Habit struct {
	Name        string `form:"name" validate:"not_empty,max=100"`
	Description string `form:"description" validate:"max=500"`
}

func (h *Habit) normalize() {
	h.Name = strings.TrimSpace(h.Name)
	h.Description = strings.TrimSpace(h.Description)
}

func (f *Login) normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

func (f *Signup) normalize() {
	f.Email = strings.TrimSpace(f.Email)
	f.FullName = strings.TrimSpace(f.FullName)
}

func (f *ForgotPassword) normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// CheckResetToken validates only the token of a reset link, so a missing
// token is reported before a new password is asked for.
func CheckResetToken(token string) error {
	if strings.TrimSpace(token) != "" {
		return nil
	}
	return &ValidationError{Fields: []FieldError{{Field: "token", Message: messages["token.not_empty"]}}}
}

// FieldError is a problem with a single form field.
type FieldError struct {
	Field   string // form field name
	Message string
}

// ValidationError lists the problems found in a form. It is raised before
// any request is made.
type ValidationError struct {
	Fields []FieldError
}

// Error returns the first message.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	return e.Fields[0].Message
}

// Field returns the message for a form field, or "".
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var messages = map[string]string{
	"email.not_empty":          "Email is required",
	"email.email":              "Please enter a valid email address",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters",
	"confirm_password.eqfield": "Passwords do not match",
	"full_name.not_empty":      "Full name is required",
	"token.not_empty":          "Invalid or missing reset token",
	"name.not_empty":           "Habit name is required",
	"name.max":                 "Habit name must be at most 100 characters",
	"description.max":          "Description must be at most 500 characters",
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("not_empty", validateNotEmpty); err != nil {
		panic(fmt.Sprintf("forms: registering not_empty: %v", err))
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
	return v
})

// Validate normalizes form in place and checks it. form must be a pointer
// to one of the form types. The error is a *ValidationError.
func Validate(form any) error {
	if n, ok := form.(interface{ normalize() }); ok {
		n.normalize()
	}

	err := validate().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	sort.SliceStable(out.Fields, func(i, j int) bool {
		return fieldRank(out.Fields[i].Field) < fieldRank(out.Fields[j].Field)
	})
	return out
}

// fieldRank orders reported problems: a missing reset token first, then a
// password mismatch, then the rest in form order.
func fieldRank(field string) int {
	switch field {
	case "token":
		return 0
	case "confirm_password":
		return 1
	default:
		return 2
	}
}

func validateNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func formatValidationError(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required", "not_empty":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}
