package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{AuthenticationRequired, http.StatusUnauthorized},
		{PermissionDenied, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{ValidationFailed, http.StatusUnprocessableEntity},
		{ConstraintViolation, http.StatusConflict},
		{RateLimited, http.StatusTooManyRequests},
		{Unexpected, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := Status(tt.kind); got != tt.want {
				t.Errorf("Status(%q) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("replace article: %w", Constraint("slug taken"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "direct", err: Validation("title", "required"), want: ValidationFailed},
		{name: "wrapped", err: wrapped, want: ConstraintViolation},
		{name: "plain error", err: errors.New("boom"), want: Unexpected},
		{name: "denied", err: Denied("articles.delete"), want: PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSentinel(t *testing.T) {
	err := fmt.Errorf("get article: %w", NotFoundf("article %s", "x"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrConstraintViolation) {
		t.Error("NotFound must not match ErrConstraintViolation")
	}
}

func TestWrapKeepsKind(t *testing.T) {
	original := Constraint("system role")
	if got := Wrap(original, "delete role"); got != original {
		t.Errorf("Wrap should return classified errors unchanged, got %v", got)
	}

	cause := errors.New("connection reset")
	got := Wrap(cause, "list articles")
	if KindOf(got) != Unexpected {
		t.Errorf("KindOf(Wrap(plain)) = %q, want %q", KindOf(got), Unexpected)
	}
	if !errors.Is(got, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if Wrap(nil, "noop") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
