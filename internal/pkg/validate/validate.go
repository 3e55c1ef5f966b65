package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	// Report fields under their json names so the error envelope matches the
	// wire shape of the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// FieldError describes a single failed field, in the shape the HTTP layer
// returns inside the {errors:[...]} envelope.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// Struct validates a struct against its validate tags and returns one
// FieldError per violation, nil when the struct is valid.
func Struct(s interface{}) []FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Param: "", Msg: err.Error()}}
	}
	errs := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		errs = append(errs, FieldError{Param: fe.Field(), Msg: message(fe)})
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please include a valid email"
	case "min":
		return fmt.Sprintf("Please enter a %s with %s or more characters", fe.Field(), fe.Param())
	case "e164":
		return "Please provide the phone number in E.164 format"
	default:
		return fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag())
	}
}
