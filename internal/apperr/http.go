// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Body is the JSON shape of an error response.
type Body struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// BodyOf converts err into its client-facing form. Unexpected errors get a
// generic message so internals never leak.
func BodyOf(err error) Body {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Unexpected {
		return Body{Kind: ae.Kind, Message: ae.Message, Field: ae.Field}
	}
	return Body{Kind: Unexpected, Message: "internal server error"}
}

// WriteJSON writes err as {"success": false, "error": {...}} with the
// status matching its kind. Unexpected errors are logged.
func WriteJSON(w http.ResponseWriter, r *http.Request, err error) {
	body := BodyOf(err)
	if body.Kind == Unexpected {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(Status(body.Kind))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   body,
	})
}
