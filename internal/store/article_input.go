// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/gallery"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
	"newsdesk/internal/slug"
)

// Validation limits for article fields.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxExcerptLen = 1_000
	maxContentLen = 200_000
)

// TranslationInput is the editable text of one locale. Title is a pointer
// so that "field missing" and "field empty" can be told apart: the field
// is required, an empty value is allowed and means "not ready".
type TranslationInput struct {
	Title         *string              `json:"title"`
	Slug          string               `json:"slug"`
	Excerpt       *string              `json:"excerpt"`
	Content       string               `json:"content"`
	ContentFormat models.ContentFormat `json:"content_format"`
}

// ImageInput describes one image of the submitted collection, in display
// order.
type ImageInput struct {
	URL       string  `json:"url"`
	Alt       *string `json:"alt"`
	Caption   *string `json:"caption"`
	IsPrimary bool    `json:"is_primary"`
}

// ArticleInput is the full replacement payload of an article. Create and
// Replace both take the complete graph; there is no partial patch.
type ArticleInput struct {
	Status       models.ArticleStatus        `json:"status"`
	PublishedAt  *time.Time                  `json:"published_at"`
	CategoryID   *uuid.UUID                  `json:"category_id"`
	TagIDs       []uuid.UUID                 `json:"tag_ids"`
	Featured     bool                        `json:"featured"`
	Agenda       bool                        `json:"agenda"`
	Translations map[string]TranslationInput `json:"translations"`
	Images       []ImageInput                `json:"images"`
}

// Validate checks the input against the supported locales and returns the
// first problem as a ValidationFailed error. It does not touch the
// database; references to categories and tags are checked by the store.
func (in *ArticleInput) Validate(locales locale.Set) error {
	if in.Status != "" && !in.Status.Valid() {
		return apperr.Validation("status", fmt.Sprintf("unknown status %q", in.Status))
	}

	for code := range in.Translations {
		if !locales.Contains(code) {
			return apperr.Validation("translations", fmt.Sprintf("unsupported locale %q", code))
		}
	}
	for _, code := range locales {
		tr, ok := in.Translations[code]
		if !ok || tr.Title == nil {
			return apperr.Validation("translations."+code+".title", "title is required for locale "+code)
		}
		if err := tr.validate(code); err != nil {
			return err
		}
	}

	return gallery.Validate(in.images(uuid.Nil))
}

func (t TranslationInput) validate(code string) error {
	field := "translations." + code
	if utf8.RuneCountInString(*t.Title) > maxTitleLen {
		return apperr.Validation(field+".title", fmt.Sprintf("title is too long (max %d characters)", maxTitleLen))
	}
	if t.Slug != "" {
		if utf8.RuneCountInString(t.Slug) > maxSlugLen {
			return apperr.Validation(field+".slug", fmt.Sprintf("slug is too long (max %d characters)", maxSlugLen))
		}
		if !slug.IsValid(t.Slug) {
			return apperr.Validation(field+".slug", "slug may only contain lowercase letters, digits and single hyphens")
		}
	}
	if t.Excerpt != nil && utf8.RuneCountInString(*t.Excerpt) > maxExcerptLen {
		return apperr.Validation(field+".excerpt", fmt.Sprintf("excerpt is too long (max %d characters)", maxExcerptLen))
	}
	if utf8.RuneCountInString(t.Content) > maxContentLen {
		return apperr.Validation(field+".content", fmt.Sprintf("content is too long (max %d characters)", maxContentLen))
	}
	switch t.ContentFormat {
	case "", models.ContentFormatHTML, models.ContentFormatMarkdown:
	default:
		return apperr.Validation(field+".content_format", fmt.Sprintf("unknown content format %q", t.ContentFormat))
	}
	return nil
}

// status returns the requested status, defaulting to draft.
func (in *ArticleInput) status() models.ArticleStatus {
	if in.Status == "" {
		return models.ArticleStatusDraft
	}
	return in.Status
}

// images converts the submitted collection into gallery order.
func (in *ArticleInput) images(articleID uuid.UUID) []models.Image {
	out := make([]models.Image, len(in.Images))
	for i, img := range in.Images {
		out[i] = models.Image{
			ArticleID: articleID,
			URL:       strings.TrimSpace(img.URL),
			Alt:       img.Alt,
			Caption:   img.Caption,
			Order:     i,
			IsPrimary: img.IsPrimary,
		}
	}
	return out
}

// tagIDs returns the tag ids without duplicates, in input order.
func (in *ArticleInput) tagIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(in.TagIDs))
	var out []uuid.UUID
	for _, id := range in.TagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// locales returns the submitted locale codes sorted, so slug locks are
// always taken in the same order.
func (in *ArticleInput) locales() []string {
	out := make([]string, 0, len(in.Translations))
	for code := range in.Translations {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// resolveSlug picks the slug stored for a translation: the editor's slug,
// then one derived from the title, then the slug already stored for the
// locale, and finally a timestamped fallback.
func resolveSlug(t TranslationInput, code, existing string, now time.Time) string {
	if t.Slug != "" {
		return t.Slug
	}
	if t.Title != nil {
		if s := slug.Generate(*t.Title); s != "" {
			return s
		}
	}
	if existing != "" {
		return existing
	}
	return slug.Fallback(code, now)
}
