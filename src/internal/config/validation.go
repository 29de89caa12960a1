package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "set_name":
		return "must start with a letter or underscore and consist only of letters, numbers, '_', '.' and '-'"
	case "set_name_suffix":
		return "must consist only of letters, numbers, '_', '.' and '-'"
	case "kernel_opt":
		return "must be a single-line, non-empty option"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // For ipsets: the name of the set (e.g., "blocklist")
	FieldPath string // Dot-notation field path (e.g., "ipsets.0.table")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("set_name", validateSetName); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("set_name_suffix", validateSetNameSuffix); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("kernel_opt", validateKernelOpt); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: kernel-side set or table name
func validateSetName(fl validator.FieldLevel) bool {
	return setNameRegexp.MatchString(fl.Field().String())
}

// Custom validator: temp suffix appended to a set name
func validateSetNameSuffix(fl validator.FieldLevel) bool {
	return suffixRegexp.MatchString(fl.Field().String())
}

// Custom validator: options end up in line-oriented scripts, so they must not span lines
func validateKernelOpt(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.TrimSpace(value) != "" && !strings.ContainsAny(value, "\r\n")
}
