package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestValidateStruct(t *testing.T) {
	type request struct {
		Name  *string
		Pin   *string
		Count int
	}

	name := "Alice Tan"
	pin := "1234"

	if err := ValidateStruct(&request{Name: &name, Pin: &pin, Count: 1}, "Name", "Pin", "Count"); err != nil {
		t.Fatal(err)
	}

	err := ValidateStruct(&request{Name: &name}, "Name", "Pin")
	if err == nil {
		t.Fatal("expected a missing-field error")
	}

	var webErr *Error
	if !errors.As(err, &webErr) {
		t.Fatalf("expected a *web.Error, got %T", err)
	}
	if webErr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", webErr.Status)
	}
	if !strings.Contains(err.Error(), "Pin") {
		t.Fatalf("error must name the missing field: %v", err)
	}

	// Zero value fields count as missing.
	if err := ValidateStruct(&request{Name: &name, Pin: &pin}, "Count"); err == nil {
		t.Fatal("a zero value field must be reported")
	}

	// Unknown field names are missing too.
	if err := ValidateStruct(&request{Name: &name}, "Nope"); err == nil {
		t.Fatal("an unknown field must be reported")
	}

	// No required fields means nothing to check.
	if err := ValidateStruct(&request{}); err != nil {
		t.Fatal(err)
	}
}

func TestRequestError(t *testing.T) {
	base := errors.New("boom")
	err := NewRequestError(base, http.StatusNotFound)

	var webErr *Error
	if !errors.As(err, &webErr) {
		t.Fatalf("expected a *web.Error, got %T", err)
	}
	if webErr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", webErr.Status)
	}
	if !errors.Is(err, base) {
		t.Fatal("the wrapped error must be reachable with errors.Is")
	}
}
