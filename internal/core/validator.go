package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"skylog/internal/types"
)

// Validator wraps go-playground/validator and translates tag violations into
// the application error taxonomy. Validation failures aggregate every
// violated field into a single comma-joined message rather than stopping at
// the first.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateStruct validates a request struct against its `validate` tags.
// On failure it returns a *types.AppError with code "validation_failed"
// whose message lists every violated field.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Non-struct input is a programming error, not a client error.
		v.logger.Error("validator received invalid input", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"request validation could not be performed", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"request validation could not be performed", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := describeFieldError(fe)
		messages = append(messages, msg)
		details[fe.Field()] = fe.Tag()
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationFailed,
		strings.Join(messages, ", "),
		nil,
		details,
	)
}

// describeFieldError renders a single tag violation as a human-readable
// message.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
