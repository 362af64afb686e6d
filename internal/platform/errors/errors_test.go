package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New(CodeNotFound, "user not found")
	b := New(CodeNotFound, "different message")
	if !stderrors.Is(a, b) {
		t.Fatal("expected errors with same code to match")
	}
	if stderrors.Is(a, New(CodeForbidden, "user not found")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(CodeUnavailable, "store unavailable", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "store unavailable: disk on fire" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", New(CodeInvalidCredentials, "bad"))
	if got := CodeOf(wrapped); got != CodeInvalidCredentials {
		t.Fatalf("expected %s, got %s", CodeInvalidCredentials, got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUserEmailTaken, http.StatusBadRequest},
		{CodeUserPasswordShort, http.StatusBadRequest},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeOAuthMissingEmail, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeAccountDisabled, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
