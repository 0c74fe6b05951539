package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/middleware"
)

// maxBodyBytes caps request bodies. Article content is the largest field.
const maxBodyBytes = 1 << 20

// Listing page sizes.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected so typos in the console surface instead of being dropped.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Validation("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("body", "request body is empty")
		default:
			return apperr.Validation("body", "malformed JSON: "+err.Error())
		}
	}
	if dec.More() {
		return apperr.Validation("body", "request body must hold a single JSON object")
	}
	return nil
}

// pathID parses the UUID route parameter name. A malformed id cannot name
// an existing resource, so it is reported as NotFound.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NotFoundf("%s %q not found", name, raw)
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation(name, fmt.Sprintf("%s must be a UUID", name))
	}
	return &id, nil
}

// queryBool reads a boolean flag such as ?include_deleted=1.
func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// page is the resolved pagination of a listing request.
type page struct {
	Number  int `json:"page"`
	PerPage int `json:"per_page"`
}

func (p page) offset() int { return (p.Number - 1) * p.PerPage }

// pageParams reads ?page= and ?per_page=. Invalid values fall back to the
// defaults; per_page is capped.
func pageParams(r *http.Request) page {
	p := page{Number: 1, PerPage: defaultPerPage}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n > 0 {
		p.PerPage = min(n, maxPerPage)
	}
	return p
}

// pagination is the paging block of list responses.
func pagination(p page, total int) map[string]any {
	pages := 0
	if total > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return map[string]any{
		"page":     p.Number,
		"per_page": p.PerPage,
		"total":    total,
		"pages":    pages,
	}
}

// actorID returns the session user id for log lines, or uuid.Nil.
func actorID(r *http.Request) uuid.UUID {
	if a := middleware.ActorFromCtx(r.Context()); a != nil {
		return a.UserID
	}
	return uuid.Nil
}
