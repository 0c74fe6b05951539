// Package handlers implements the HTTP handlers of the editorial API and
// the public reader endpoints. Every response body is JSON.
package handlers

import (
	"encoding/json"
	"net/http"

	"newsdesk/internal/apperr"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONSuccess writes {"success": true, ...data}.
func writeJSONSuccess(w http.ResponseWriter, status int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, status, data)
}

// writeError maps err to its status and error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apperr.WriteJSON(w, r, err)
}
