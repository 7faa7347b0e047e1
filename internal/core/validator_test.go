package core

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"skylog/internal/types"
)

func newTestValidator() *Validator {
	return NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidateStruct_Valid(t *testing.T) {
	v := newTestValidator()

	input := struct {
		Name string `validate:"required"`
	}{Name: "skylog"}

	if err := v.ValidateStruct(input); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateStruct_AggregatesAllViolations(t *testing.T) {
	v := newTestValidator()

	input := struct {
		Name  string `validate:"required"`
		Count int    `validate:"min=1"`
		Kind  string `validate:"oneof=a b"`
	}{Kind: "c"}

	err := v.ValidateStruct(input)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationFailed {
		t.Errorf("expected validation_failed, got %s", appErr.Code)
	}

	// Every violated field appears in the single message.
	for _, want := range []string{"Name is required", "Count must be at least 1", "Kind must be one of [a b]"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected message to contain %q, got %q", want, appErr.Message)
		}
	}

	if len(appErr.Details) != 3 {
		t.Errorf("expected 3 field details, got %v", appErr.Details)
	}
	if appErr.Details["Name"] != "required" {
		t.Errorf("expected Name detail to carry the tag, got %v", appErr.Details["Name"])
	}
}

func TestValidateStruct_NonStructInput(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateStruct("not a struct")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeInternalUnexpected {
		t.Errorf("expected internal_unexpected_error, got %s", appErr.Code)
	}
}
