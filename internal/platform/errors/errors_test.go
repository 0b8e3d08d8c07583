package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeUnauthorized, "no token provided")
	if err.Error() != "no token provided" {
		t.Fatalf("expected message, got %q", err.Error())
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeStoreUnavailable, "put node", stderrors.New("connection refused"))
	if !stderrors.Is(err, New(CodeStoreUnavailable, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeForbidden, "other message")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStoreUnavailable, "put node", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	err := New(CodeForbidden, "not an editor")
	if got := CodeOf(err); got != CodeForbidden {
		t.Fatalf("expected %v, got %v", CodeForbidden, got)
	}

	wrapped := fmt.Errorf("handle save: %w", err)
	if got := CodeOf(wrapped); got != CodeForbidden {
		t.Fatalf("expected %v through wrapping, got %v", CodeForbidden, got)
	}

	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %v for plain error, got %v", CodeUnknown, got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected %v for nil error, got %v", CodeUnknown, got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidFilename, http.StatusBadRequest},
		{CodeInvalidBody, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeStoreUnavailable, http.StatusInternalServerError},
		{CodeScanTimeout, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %v: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestWithMetadata(t *testing.T) {
	err := WithMetadata(CodeStubCompletionFailed, "stub creation failed", map[string]string{
		"targets": "1-2,1-3",
	})
	if err.Metadata["targets"] != "1-2,1-3" {
		t.Fatalf("expected metadata to round-trip, got %#v", err.Metadata)
	}
}
