package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field errors carry the form
// field name so clients see "counsellor_id" rather than "CounsellorID".
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(formFieldName)

		_ = validate.RegisterValidation("uuid", optionalUUID)
		_ = validate.RegisterValidation("notempty", notBlank)
	})

	return validate
}

func formFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("form")
	if tag == "" {
		tag = fld.Tag.Get("json")
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}

	return name
}

// Validate checks the struct tags of v. Only the first failing field is
// reported, as a domain validation error.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]

	return domain.NewValidationErrorWithValue(fe.Field(), describe(fe), fe.Value())
}

// BindForm binds a urlencoded or multipart form into v and validates it.
// Unparseable values, such as a non-numeric duration, are validation errors.
func BindForm(c *gin.Context, v any) error {
	if err := c.ShouldBind(v); err != nil {
		return domain.NewValidationError("", "invalid request: "+err.Error())
	}

	return Validate(v)
}

// BindQuery binds query parameters into v and validates it.
func BindQuery(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return domain.NewValidationError("", "invalid query: "+err.Error())
	}

	return Validate(v)
}

func describe(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "notempty":
		return "must not be empty"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + param
	case "min", "max":
		unit := ""
		if fe.Kind() == reflect.String {
			unit = " characters"
		}

		if fe.Tag() == "min" {
			return "must be at least " + param + unit
		}

		return "must be at most " + param + unit
	default:
		return "failed validation: " + fe.Tag()
	}
}

// optionalUUID accepts an empty value; pair it with required when needed.
func optionalUUID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	_, err := uuid.Parse(value)

	return err == nil
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
