// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
)

// TagStore manages tags in the database.
type TagStore struct {
	db      *sql.DB
	locales locale.Set
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB, locales locale.Set) *TagStore {
	return &TagStore{db: db, locales: locales}
}

// Create inserts a tag with its translated names. Descriptions are ignored.
func (s *TagStore) Create(ctx context.Context, in TaxonomyInput) (*models.Tag, error) {
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
		`INSERT INTO tags (slug) VALUES ($1) RETURNING id`, sl,
	).Scan(&id); err != nil {
		return nil, writeErr(err, "create tag")
	}

	for _, code := range in.sortedLocales() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tag_translations (tag_id, locale, name) VALUES ($1, $2, $3)
		`, id, code, strings.TrimSpace(in.Translations[code].Name))
		if err != nil {
			return nil, writeErr(err, "insert tag translation")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tag: %w", err)
	}
	return s.FindByID(ctx, id)
}

// List returns all tags ordered by slug.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, slug, created_at FROM tags ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Slug, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	translations, err := loadTaxonomyTranslations(ctx, s.db,
		`SELECT tag_id, locale, name, NULL::text FROM tag_translations ORDER BY locale`)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Translations = translations[items[i].ID]
	}
	return items, nil
}

// FindByID retrieves a tag by its UUID.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, created_at FROM tags WHERE id = $1`, id,
	).Scan(&t.ID, &t.Slug, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("tag %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}

	translations, err := loadTaxonomyTranslations(ctx, s.db, `
		SELECT tag_id, locale, name, NULL::text FROM tag_translations
		WHERE tag_id = $1 ORDER BY locale
	`, id)
	if err != nil {
		return nil, err
	}
	t.Translations = translations[id]
	return &t, nil
}

// Delete removes a tag and its article links.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("tag %s not found", id)
	}
	return nil
}
