package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for account fields.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register applies the tag name func and aliases to v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pwdbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	v.RegisterAlias("pwd", "min=8,pwdbytes")
	v.RegisterAlias("role", "oneof=admin user")
	v.RegisterAlias("accountstatus", "oneof=active inactive")
	v.RegisterAlias("photo", "datauri|url")
}

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// FieldError is the first rejected field of a request.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// First converts binding/validation errors into the first failing field.
func First(err error) FieldError {
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	switch {
	case errors.As(err, &ute):
		field := ute.Field
		if field == "" {
			field = "body"
		}
		return FieldError{Field: field, Reason: "has an invalid type"}
	case errors.As(err, &se), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return FieldError{Field: "body", Reason: "must be valid JSON"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return FieldError{Field: fe.Field(), Reason: formatFieldError(fe)}
	}
	return FieldError{Field: "body", Reason: "is invalid"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "pwd":
		if fe.ActualTag() == "pwdbytes" {
			return "must be at most " + strconv.Itoa(MaxPasswordBytes) + " bytes long"
		}
		return "must be at least 8 characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "role":
		return "must be one of: admin, user"
	case "accountstatus":
		return "must be one of: active, inactive"
	case "photo", "datauri|url":
		return "must be a data URI or URL"
	default:
		return "failed on " + fe.Tag()
	}
}
