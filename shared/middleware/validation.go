package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON name so error details match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	validationErrors := make([]ValidationError, 0, len(fieldErrs))
	for _, err := range fieldErrs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}

	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field cannot be blank"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "numeric", "number":
		return "Value must be numeric"
	default:
		return "Invalid value"
	}
}

// RespondWithValidationError names every offending field in the top-level
// message as well as in details.
func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	fields := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		if ve.Field != "" {
			fields = append(fields, ve.Field)
		}
	}
	message := "Invalid request data"
	if len(fields) > 0 {
		message += ": " + strings.Join(fields, ", ")
	}
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: message,
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
