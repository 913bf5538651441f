package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ivankudzin/crush/internal/domain/apperr"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=18,lte=100"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "nope", Age: 12})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "email must be a valid email") || !strings.Contains(msg, "age must be at least 18") {
		t.Fatalf("unexpected message: %s", msg)
	}

	if err := Struct(sample{Email: "a@b.co", Age: 30}); err != nil {
		t.Fatalf("unexpected error for valid struct: %v", err)
	}
}

func TestVar(t *testing.T) {
	if err := Var("x@example.com", "required,email"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Var("", "required,email"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
