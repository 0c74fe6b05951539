// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaxonomyTranslation holds the localized name of a category or tag.
type TaxonomyTranslation struct {
	Locale      string  `json:"locale"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Category groups articles. An article has at most one category.
type Category struct {
	ID           uuid.UUID             `json:"id"`
	Slug         string                `json:"slug"`
	Translations []TaxonomyTranslation `json:"translations"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`

	// Virtual field populated by list queries.
	ArticleCount int `json:"article_count"`
}

// Tag labels articles; an article may carry any number of tags.
type Tag struct {
	ID           uuid.UUID             `json:"id"`
	Slug         string                `json:"slug"`
	Translations []TaxonomyTranslation `json:"translations"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NameIn returns the translated name for locale, or "" when the locale has
// no translation. Callers treat "" as "name unknown".
func NameIn(translations []TaxonomyTranslation, locale string) string {
	for _, t := range translations {
		if t.Locale == locale {
			return strings.TrimSpace(t.Name)
		}
	}
	return ""
}
