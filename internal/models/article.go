// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
)

// ArticleStatus represents the stored publishing state of an article.
// "Scheduled" is not a stored state: it is a published article whose
// PublishedAt lies in the future.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// Valid reports whether s is one of the stored statuses.
func (s ArticleStatus) Valid() bool {
	return s == ArticleStatusDraft || s == ArticleStatusPublished
}

// ContentFormat records how a translation body is authored.
type ContentFormat string

const (
	ContentFormatHTML     ContentFormat = "html"
	ContentFormatMarkdown ContentFormat = "markdown"
)

// Derived editorial states shown in the console.
const (
	StateDraft     = "draft"
	StateScheduled = "scheduled"
	StatePublished = "published"
	StateDeleted   = "deleted"
)

// Article is a publishable news item. Its text lives in one
// ArticleTranslation per locale; Images and TagIDs are replaced
// wholesale on every update.
type Article struct {
	ID          uuid.UUID     `json:"id"`
	AuthorID    *uuid.UUID    `json:"author_id,omitempty"`
	CategoryID  *uuid.UUID    `json:"category_id,omitempty"`
	Status      ArticleStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	Featured    bool          `json:"featured"`
	Agenda      bool          `json:"agenda"`
	Views       int64         `json:"views"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
	DeletedBy   *uuid.UUID    `json:"deleted_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Populated by store methods.
	Translations []ArticleTranslation `json:"translations"`
	Images       []Image              `json:"images"`
	TagIDs       []uuid.UUID          `json:"tag_ids"`
	AuthorName   string               `json:"author_name,omitempty"`
}

// ArticleTranslation is the locale-specific text of an article. A row with
// a blank Title means the locale is not ready yet.
type ArticleTranslation struct {
	ArticleID     uuid.UUID     `json:"article_id"`
	Locale        string        `json:"locale"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	Content       string        `json:"content"`
	ContentFormat ContentFormat `json:"content_format"`
}

// IsPublished returns true if the article is in published status,
// regardless of schedule or deletion.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// IsDeleted returns true if the article has been soft-deleted.
func (a *Article) IsDeleted() bool {
	return a.DeletedAt != nil
}

// IsScheduled returns true for a published article whose publish time has
// not arrived yet.
func (a *Article) IsScheduled(now time.Time) bool {
	return a.IsPublished() && a.PublishedAt != nil && a.PublishedAt.After(now)
}

// VisibleAt reports whether public readers may see the article at now.
func (a *Article) VisibleAt(now time.Time) bool {
	if !a.IsPublished() || a.IsDeleted() {
		return false
	}
	return a.PublishedAt == nil || !a.PublishedAt.After(now)
}

// State returns the derived editorial state. Deletion takes precedence
// over the stored status, which is kept untouched by soft delete.
func (a *Article) State(now time.Time) string {
	switch {
	case a.IsDeleted():
		return StateDeleted
	case !a.IsPublished():
		return StateDraft
	case a.IsScheduled(now):
		return StateScheduled
	default:
		return StatePublished
	}
}

// Transition moves the article to the given status. Both directions are
// always allowed; only unknown statuses are rejected.
func (a *Article) Transition(to ArticleStatus) error {
	if !to.Valid() {
		return apperr.Validation("status", "unknown status "+string(to))
	}
	a.Status = to
	return nil
}

// Translation returns the stored translation for locale, or nil.
func (a *Article) Translation(locale string) *ArticleTranslation {
	for i := range a.Translations {
		if a.Translations[i].Locale == locale {
			return &a.Translations[i]
		}
	}
	return nil
}
