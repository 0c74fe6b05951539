// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
	"newsdesk/internal/slug"
)

const maxNameLen = 200

// TaxonomyInput creates a category or tag. Slug is optional and derived
// from the default-locale name when empty.
type TaxonomyInput struct {
	Slug         string                                `json:"slug"`
	Translations map[string]models.TaxonomyTranslation `json:"translations"`
}

// validate checks names and slug and returns the slug to store.
func (in *TaxonomyInput) validate(locales locale.Set, now time.Time) (string, error) {
	if len(in.Translations) == 0 {
		return "", apperr.Validation("translations", "at least one translation is required")
	}
	for code, t := range in.Translations {
		if !locales.Contains(code) {
			return "", apperr.Validation("translations", fmt.Sprintf("unsupported locale %q", code))
		}
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return "", apperr.Validation("translations."+code+".name", "name is required")
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return "", apperr.Validation("translations."+code+".name", fmt.Sprintf("name is too long (max %d characters)", maxNameLen))
		}
	}

	if in.Slug != "" {
		if !slug.IsValid(in.Slug) {
			return "", apperr.Validation("slug", "slug may only contain lowercase letters, digits and single hyphens")
		}
		return in.Slug, nil
	}

	// Derive from the first supported locale that has a name.
	for _, code := range locales {
		if t, ok := in.Translations[code]; ok {
			return slug.Derive(t.Name, code, now), nil
		}
	}
	return slug.Fallback(locales.Default(), now), nil
}

// sortedLocales returns the translation locales in a stable order.
func (in *TaxonomyInput) sortedLocales() []string {
	out := make([]string, 0, len(in.Translations))
	for code := range in.Translations {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db      *sql.DB
	locales locale.Set
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB, locales locale.Set) *CategoryStore {
	return &CategoryStore{db: db, locales: locales}
}

// Create inserts a category with its translations.
func (s *CategoryStore) Create(ctx context.Context, in TaxonomyInput) (*models.Category, error) {
	sl, err := in.validate(s.locales, time.Now())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO categories (slug) VALUES ($1) RETURNING id`, sl,
	).Scan(&id); err != nil {
		return nil, writeErr(err, "create category")
	}

	for _, code := range in.sortedLocales() {
		t := in.Translations[code]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, $2, $3, $4)
		`, id, code, strings.TrimSpace(t.Name), t.Description)
		if err != nil {
			return nil, writeErr(err, "insert category translation")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit category: %w", err)
	}
	return s.FindByID(ctx, id)
}

// List returns all categories with their translations and the number of
// live articles in each, ordered by slug.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.slug, c.created_at, c.updated_at,
		       COUNT(a.id) AS article_count
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id AND a.deleted_at IS NULL
		GROUP BY c.id
		ORDER BY c.slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	translations, err := loadTaxonomyTranslations(ctx, s.db,
		`SELECT category_id, locale, name, description FROM category_translations ORDER BY locale`)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Translations = translations[items[i].ID]
	}
	return items, nil
}

// FindByID retrieves a category by its UUID.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, created_at, updated_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}

	translations, err := loadTaxonomyTranslations(ctx, s.db, `
		SELECT category_id, locale, name, description FROM category_translations
		WHERE category_id = $1 ORDER BY locale
	`, id)
	if err != nil {
		return nil, err
	}
	c.Translations = translations[id]
	return &c, nil
}

// Delete removes a category. Articles in it keep existing with no category.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("category %s not found", id)
	}
	return nil
}

// loadTaxonomyTranslations runs query, which must select owner id, locale,
// name and description, and groups the rows by owner.
func loadTaxonomyTranslations(ctx context.Context, q querier, query string, args ...any) (map[uuid.UUID][]models.TaxonomyTranslation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy translations: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.TaxonomyTranslation)
	for rows.Next() {
		var owner uuid.UUID
		var t models.TaxonomyTranslation
		if err := rows.Scan(&owner, &t.Locale, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan taxonomy translation: %w", err)
		}
		out[owner] = append(out[owner], t)
	}
	return out, rows.Err()
}
