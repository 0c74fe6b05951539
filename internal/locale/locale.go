// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package locale decides how an article is served in a requested locale.
// The detail page and listings share the same readiness rule: a locale is
// served only if its translation exists and has a non-blank title.
package locale

import (
	"strings"

	"newsdesk/internal/models"
)

// Set is the ordered list of supported locale codes. The first entry is
// the site default.
type Set []string

// NewSet normalizes and de-duplicates codes, keeping their order.
func NewSet(codes ...string) Set {
	var out Set
	seen := make(map[string]bool)
	for _, c := range codes {
		n := strings.ToLower(strings.TrimSpace(c))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Default returns the first supported locale, or "" for an empty set.
func (s Set) Default() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Contains reports whether code is supported.
func (s Set) Contains(code string) bool {
	for _, c := range s {
		if c == code {
			return true
		}
	}
	return false
}

// Normalize maps a raw code such as "EN-us" or " tr " to a supported
// locale, or "" if none matches.
func (s Set) Normalize(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if s.Contains(trimmed) {
		return trimmed
	}
	if i := strings.IndexAny(trimmed, "-_"); i > 0 && s.Contains(trimmed[:i]) {
		return trimmed[:i]
	}
	return ""
}

// FromAcceptLanguage picks the first supported language listed in an
// Accept-Language header, ignoring quality weights.
func (s Set) FromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := part
		if i := strings.Index(tag, ";"); i >= 0 {
			tag = tag[:i]
		}
		if code := s.Normalize(tag); code != "" {
			return code
		}
	}
	return ""
}

// HomePath returns the public landing path for a locale.
func HomePath(code string) string {
	return "/" + code
}

// Rendered is a translation ready for display, with optional fields
// defaulted to "".
type Rendered struct {
	Locale        string               `json:"locale"`
	Title         string               `json:"title"`
	Slug          string               `json:"slug"`
	Excerpt       string               `json:"excerpt"`
	Content       string               `json:"content"`
	ContentFormat models.ContentFormat `json:"content_format"`
}

// Resolution is the outcome of Resolve: either a translation to render or
// a redirect to the locale home page.
type Resolution struct {
	Render   *Rendered
	Redirect bool
	Target   string
}

// Ready reports whether a translation can be served. A blank title marks
// a translation that is not ready for its locale.
func Ready(t *models.ArticleTranslation) bool {
	return t != nil && strings.TrimSpace(t.Title) != ""
}

// find returns the translation for code, or nil.
func find(translations []models.ArticleTranslation, code string) *models.ArticleTranslation {
	for i := range translations {
		if translations[i].Locale == code {
			return &translations[i]
		}
	}
	return nil
}

func render(t *models.ArticleTranslation) *Rendered {
	r := &Rendered{
		Locale:        t.Locale,
		Title:         strings.TrimSpace(t.Title),
		Slug:          t.Slug,
		Content:       t.Content,
		ContentFormat: t.ContentFormat,
	}
	if t.Excerpt != nil {
		r.Excerpt = *t.Excerpt
	}
	if r.ContentFormat == "" {
		r.ContentFormat = models.ContentFormatHTML
	}
	return r
}

// Resolve decides what the detail page shows for code.
func Resolve(translations []models.ArticleTranslation, code string) Resolution {
	t := find(translations, code)
	if !Ready(t) {
		return Resolution{Redirect: true, Target: HomePath(code)}
	}
	return Resolution{Render: render(t)}
}

// ForListing returns the rendered translation for a listing entry, or
// false when the article must be left out of the code listing.
func ForListing(translations []models.ArticleTranslation, code string) (Rendered, bool) {
	res := Resolve(translations, code)
	if res.Redirect {
		return Rendered{}, false
	}
	return *res.Render, true
}
