package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.want {
				t.Fatalf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("collect payment: %w", BadRequest("Insufficient funds"))
	if got := KindOf(err); got != KindBadRequest {
		t.Fatalf("KindOf = %v, want %v", got, KindBadRequest)
	}
	if got := Message(err); got != "Insufficient funds" {
		t.Fatalf("Message = %q", got)
	}
	if !Is(err, KindBadRequest) {
		t.Fatal("expected Is to match bad request")
	}
}

func TestUnclassifiedIsInternal(t *testing.T) {
	err := errors.New("database is locked")
	if got := KindOf(err); got != KindInternal {
		t.Fatalf("KindOf = %v, want internal", got)
	}
	if got := Message(err); got != "Internal error" {
		t.Fatalf("Message leaked details: %q", got)
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("rpc timeout")
	err := Internal("Failed to call contract method", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "Failed to call contract method: rpc timeout" {
		t.Fatalf("unexpected Error(): %q", err.Error())
	}
}
