// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error kinds surfaced by the editorial and
// public paths. Stores wrap infrastructure failures with fmt.Errorf as
// usual; anything the caller must act on is returned as an *Error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category sent to API clients.
type Kind string

const (
	AuthenticationRequired Kind = "authentication_required"
	PermissionDenied       Kind = "permission_denied"
	NotFound               Kind = "not_found"
	ValidationFailed       Kind = "validation_failed"
	ConstraintViolation    Kind = "constraint_violation"
	RateLimited            Kind = "rate_limited"
	Unexpected             Kind = "unexpected"
)

// Error is a classified application error. Field is set for validation
// failures that concern a single input field.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrAuthenticationRequired = &Error{Kind: AuthenticationRequired}
	ErrPermissionDenied       = &Error{Kind: PermissionDenied}
	ErrNotFound               = &Error{Kind: NotFound}
	ErrValidationFailed       = &Error{Kind: ValidationFailed}
	ErrConstraintViolation    = &Error{Kind: ConstraintViolation}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation returns a ValidationFailed error for a single field.
func Validation(field, message string) *Error {
	return &Error{Kind: ValidationFailed, Field: field, Message: message}
}

// Constraint returns a ConstraintViolation error.
func Constraint(message string) *Error {
	return &Error{Kind: ConstraintViolation, Message: message}
}

// NotFoundf returns a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Denied returns a PermissionDenied error naming the missing permission key.
func Denied(key string) *Error {
	return &Error{Kind: PermissionDenied, Message: "missing permission " + key}
}

// Unauthenticated returns an AuthenticationRequired error.
func Unauthenticated() *Error {
	return &Error{Kind: AuthenticationRequired, Message: "authentication required"}
}

// Wrap classifies err as Unexpected unless it already carries a kind.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Unexpected, Message: message, Err: err}
}

// KindOf returns the kind of err, or Unexpected for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unexpected
}

// Status maps a kind to its HTTP status code. Permission denials use 403;
// the message tells clients which key was missing.
func Status(kind Kind) int {
	switch kind {
	case AuthenticationRequired:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ValidationFailed:
		return http.StatusUnprocessableEntity
	case ConstraintViolation:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
