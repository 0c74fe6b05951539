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
	"newsdesk/internal/gallery"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
	"newsdesk/internal/rbac"
)

// ArticleStore handles articles and their translations, images and tag
// links. Every write replaces the whole graph inside one transaction.
//
// Concurrent Replace calls on the same article are not coordinated beyond
// the row lock taken for the duration of each transaction: the last commit
// wins and no version check is made.
type ArticleStore struct {
	db      *sql.DB
	locales locale.Set
	now     func() time.Time
}

// NewArticleStore creates an ArticleStore. Every locale in locales must be
// present (with a title field) on each create and replace.
func NewArticleStore(db *sql.DB, locales locale.Set) *ArticleStore {
	return &ArticleStore{db: db, locales: locales, now: time.Now}
}

const articleColumns = `a.id, a.author_id, a.category_id, a.status, a.published_at,
	a.featured, a.agenda, a.views, a.deleted_at, a.deleted_by,
	a.created_at, a.updated_at, COALESCE(u.display_name, '')`

const articleFrom = `FROM articles a LEFT JOIN users u ON u.id = a.author_id`

// visibleClause is the public visibility predicate; the placeholder takes
// the reference time.
const visibleClause = `a.status = 'published' AND a.deleted_at IS NULL AND (a.published_at IS NULL OR a.published_at <= %s)`

// scanArticle scans a row selected with articleColumns.
func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := scanner.Scan(
		&a.ID, &a.AuthorID, &a.CategoryID, &a.Status, &a.PublishedAt,
		&a.Featured, &a.Agenda, &a.Views, &a.DeletedAt, &a.DeletedBy,
		&a.CreatedAt, &a.UpdatedAt, &a.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create validates in and inserts a new article authored by actor.
func (s *ArticleStore) Create(ctx context.Context, actor *rbac.Actor, in ArticleInput) (*models.Article, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated()
	}
	if err := in.Validate(s.locales); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkReferences(ctx, tx, in); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO articles (author_id, category_id, status, published_at, featured, agenda)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, actor.UserID, in.CategoryID, in.status(), in.PublishedAt, in.Featured, in.Agenda).Scan(&id)
	if err != nil {
		return nil, writeErr(err, "create article")
	}

	if err := s.writeGraph(ctx, tx, id, in, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit article: %w", err)
	}
	return s.Get(ctx, id, GetOptions{})
}

// Replace overwrites the article's fields, translations, images and tag
// links with in. The author is kept. Soft-deleted articles cannot be
// replaced.
func (s *ArticleStore) Replace(ctx context.Context, actor *rbac.Actor, id uuid.UUID, in ArticleInput) (*models.Article, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated()
	}
	if err := in.Validate(s.locales); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM articles WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
	).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("article %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock article: %w", err)
	}

	if err := checkReferences(ctx, tx, in); err != nil {
		return nil, err
	}

	existing, err := existingSlugs(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE articles SET
			category_id = $1, status = $2, published_at = $3,
			featured = $4, agenda = $5, updated_at = NOW()
		WHERE id = $6
	`, in.CategoryID, in.status(), in.PublishedAt, in.Featured, in.Agenda, id)
	if err != nil {
		return nil, writeErr(err, "update article")
	}

	for _, q := range []string{
		`DELETE FROM article_translations WHERE article_id = $1`,
		`DELETE FROM article_images WHERE article_id = $1`,
		`DELETE FROM article_tags WHERE article_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return nil, fmt.Errorf("clear article graph: %w", err)
		}
	}

	if err := s.writeGraph(ctx, tx, id, in, existing); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit article: %w", err)
	}
	return s.Get(ctx, id, GetOptions{})
}

// writeGraph inserts translations, images and tag links for article id.
func (s *ArticleStore) writeGraph(ctx context.Context, tx *sql.Tx, id uuid.UUID, in ArticleInput, existing map[string]string) error {
	now := s.now()

	for _, code := range in.locales() {
		t := in.Translations[code]
		sl := resolveSlug(t, code, existing[code], now)

		if err := claimSlug(ctx, tx, code, sl, id); err != nil {
			return err
		}

		// Stored trimmed so an empty string is the one blank title.
		title := ""
		if t.Title != nil {
			title = strings.TrimSpace(*t.Title)
		}
		format := t.ContentFormat
		if format == "" {
			format = models.ContentFormatHTML
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO article_translations (article_id, locale, title, slug, excerpt, content, content_format)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, code, title, sl, t.Excerpt, t.Content, format)
		if err != nil {
			return writeErr(err, "insert translation")
		}
	}

	if err := insertImages(ctx, tx, id, in.images(id)); err != nil {
		return err
	}

	for _, tagID := range in.tagIDs() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2)`, id, tagID)
		if err != nil {
			return writeErr(err, "link tag")
		}
	}
	return nil
}

// claimSlug serializes writers of the same (locale, slug) pair for the rest
// of the transaction and fails if another live article already uses it.
func claimSlug(ctx context.Context, tx *sql.Tx, code, sl string, articleID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, code+":"+sl); err != nil {
		return fmt.Errorf("lock slug: %w", err)
	}

	var taken bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM article_translations t
			JOIN articles a ON a.id = t.article_id
			WHERE t.locale = $1 AND t.slug = $2
			  AND a.deleted_at IS NULL AND t.article_id <> $3
		)
	`, code, sl, articleID).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return &apperr.Error{
			Kind:    apperr.ConstraintViolation,
			Field:   "translations." + code + ".slug",
			Message: fmt.Sprintf("slug %q is already used in locale %s", sl, code),
		}
	}
	return nil
}

// checkReferences verifies the category and tags named by in exist.
func checkReferences(ctx context.Context, q querier, in ArticleInput) error {
	if in.CategoryID != nil {
		var ok bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, *in.CategoryID).Scan(&ok)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return apperr.Validation("category_id", "category does not exist")
		}
	}

	tags := in.tagIDs()
	if len(tags) > 0 {
		var n int
		err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tags WHERE id = ANY($1::uuid[])`, uuidStrings(tags)).Scan(&n)
		if err != nil {
			return fmt.Errorf("check tags: %w", err)
		}
		if n != len(tags) {
			return apperr.Validation("tag_ids", "one or more tags do not exist")
		}
	}
	return nil
}

func existingSlugs(ctx context.Context, q querier, id uuid.UUID) (map[string]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT locale, slug FROM article_translations WHERE article_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var code, sl string
		if err := rows.Scan(&code, &sl); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		out[code] = sl
	}
	return out, rows.Err()
}

func insertImages(ctx context.Context, q querier, articleID uuid.UUID, images []models.Image) error {
	for _, img := range gallery.Normalize(images) {
		_, err := q.ExecContext(ctx, `
			INSERT INTO article_images (article_id, url, alt, caption, sort_order, is_primary)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, articleID, img.URL, img.Alt, img.Caption, img.Order, img.IsPrimary)
		if err != nil {
			return writeErr(err, "insert image")
		}
	}
	return nil
}

// SoftDelete marks the article deleted by actor. The stored status is
// left as it was.
func (s *ArticleStore) SoftDelete(ctx context.Context, actor *rbac.Actor, id uuid.UUID) error {
	if actor == nil {
		return apperr.Unauthenticated()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET deleted_at = NOW(), deleted_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, actor.UserID, id)
	if err != nil {
		return fmt.Errorf("soft delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("article %s not found", id)
	}
	return nil
}

// Restore clears the deletion mark. It fails with ConstraintViolation if
// another live article took one of its slugs in the meantime.
func (s *ArticleStore) Restore(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*models.Article, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM articles WHERE id = $1 AND deleted_at IS NOT NULL FOR UPDATE`, id,
	).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("deleted article %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock article: %w", err)
	}

	slugs, err := existingSlugs(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	for _, code := range sortedKeys(slugs) {
		if err := claimSlug(ctx, tx, code, slugs[code], id); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE articles SET deleted_at = NULL, deleted_by = NULL, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("restore article: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore: %w", err)
	}
	return s.Get(ctx, id, GetOptions{})
}

// GetOptions tune Get.
type GetOptions struct {
	// IncludeDeleted returns soft-deleted articles too. Only editorial
	// paths set it.
	IncludeDeleted bool
}

// Get loads one article with its translations, images and tags. Absent
// and soft-deleted articles are reported as NotFound.
func (s *ArticleStore) Get(ctx context.Context, id uuid.UUID, opts GetOptions) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleFrom + ` WHERE a.id = $1`
	if !opts.IncludeDeleted {
		query += ` AND a.deleted_at IS NULL`
	}

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("article %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	items := []models.Article{*a}
	if err := loadGraph(ctx, s.db, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// FindPublishedBySlug returns the article visible at now whose translation
// has the given slug. A slug of the requested locale wins; otherwise a
// slug of any other locale matches, so language switches and newly added
// locales still find the article. The translation for code may be blank
// or missing; callers run locale resolution on the result.
func (s *ArticleStore) FindPublishedBySlug(ctx context.Context, code, sl string, now time.Time) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleFrom + `
		JOIN article_translations t ON t.article_id = a.id
		WHERE t.slug = $2 AND ` + fmt.Sprintf(visibleClause, "$3") + `
		ORDER BY (t.locale = $1) DESC, a.published_at DESC NULLS LAST, a.created_at DESC
		LIMIT 1`

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, code, sl, now))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("article %q not found", sl)
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}

	items := []models.Article{*a}
	if err := loadGraph(ctx, s.db, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListFilter selects public articles for one locale.
type ListFilter struct {
	Locale     string
	CategoryID *uuid.UUID
	TagID      *uuid.UUID
	Search     string
	Limit      int
	Offset     int
	Now        time.Time
}

// ListPublished returns the articles visible at f.Now that have a ready
// translation in f.Locale, newest first, plus the total match count.
func (s *ArticleStore) ListPublished(ctx context.Context, f ListFilter) ([]models.Article, int, error) {
	w := &whereBuilder{}
	now := f.Now
	if now.IsZero() {
		now = s.now()
	}
	w.add(visibleClause, now)
	w.add(`t.locale = %s`, f.Locale)
	w.add(`t.title <> ''`)
	if f.CategoryID != nil {
		w.add(`a.category_id = %s`, *f.CategoryID)
	}
	if f.TagID != nil {
		w.add(`EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id AND at.tag_id = %s)`, *f.TagID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		w.add(`(t.title ILIKE %[1]s OR t.excerpt ILIKE %[1]s OR t.content ILIKE %[1]s)`, likePattern(q))
	}

	from := articleFrom + ` JOIN article_translations t ON t.article_id = a.id`
	return s.list(ctx, from, w, `a.published_at DESC NULLS LAST, a.created_at DESC`, f.Limit, f.Offset)
}

// EditorialFilter selects articles for the editorial console.
type EditorialFilter struct {
	Status         models.ArticleStatus
	CategoryID     *uuid.UUID
	Search         string
	IncludeDeleted bool
	OnlyDeleted    bool
	Limit          int
	Offset         int
}

// ListEditorial returns articles in any status, most recently updated
// first. Soft-deleted articles are left out unless requested.
func (s *ArticleStore) ListEditorial(ctx context.Context, f EditorialFilter) ([]models.Article, int, error) {
	w := &whereBuilder{}
	switch {
	case f.OnlyDeleted:
		w.add(`a.deleted_at IS NOT NULL`)
	case !f.IncludeDeleted:
		w.add(`a.deleted_at IS NULL`)
	}
	if f.Status != "" {
		w.add(`a.status = %s`, f.Status)
	}
	if f.CategoryID != nil {
		w.add(`a.category_id = %s`, *f.CategoryID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		w.add(`EXISTS (SELECT 1 FROM article_translations t WHERE t.article_id = a.id AND t.title ILIKE %s)`, likePattern(q))
	}
	return s.list(ctx, articleFrom, w, `a.updated_at DESC`, f.Limit, f.Offset)
}

// Default and maximum page sizes of list queries.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *ArticleStore) list(ctx context.Context, from string, w *whereBuilder, order string, limit, offset int) ([]models.Article, int, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+from+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	args := append(append([]any{}, w.args...), limit, offset)
	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		articleColumns, from, w.sql(), order, len(w.args)+1, len(w.args)+2)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	if err := loadGraph(ctx, s.db, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ReplaceImages stores images as the article's new collection. The
// collection is renumbered and must hold at most one primary image.
func (s *ArticleStore) ReplaceImages(ctx context.Context, actor *rbac.Actor, id uuid.UUID, images []models.Image) ([]models.Image, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated()
	}
	if err := gallery.Validate(images); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM articles WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
	).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("article %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock article: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_images WHERE article_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clear images: %w", err)
	}
	if err := insertImages(ctx, tx, id, images); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE articles SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("touch article: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit images: %w", err)
	}

	byArticle, err := loadImages(ctx, s.db, []string{id.String()})
	if err != nil {
		return nil, err
	}
	return byArticle[id], nil
}

// RecordView increments the view counter of a live article and returns
// the new count.
func (s *ArticleStore) RecordView(ctx context.Context, id uuid.UUID) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE articles SET views = views + 1 WHERE id = $1 AND deleted_at IS NULL RETURNING views
	`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, apperr.NotFoundf("article %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("record view: %w", err)
	}
	return views, nil
}

// loadGraph fills translations, images and tag ids of items in place.
func loadGraph(ctx context.Context, q querier, items []models.Article) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID.String()
	}

	translations, err := loadTranslations(ctx, q, ids)
	if err != nil {
		return err
	}
	images, err := loadImages(ctx, q, ids)
	if err != nil {
		return err
	}
	tags, err := loadTagIDs(ctx, q, ids)
	if err != nil {
		return err
	}

	for i := range items {
		id := items[i].ID
		items[i].Translations = translations[id]
		items[i].Images = images[id]
		items[i].TagIDs = tags[id]
	}
	return nil
}

func loadTranslations(ctx context.Context, q querier, ids []string) (map[uuid.UUID][]models.ArticleTranslation, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT article_id, locale, title, slug, excerpt, content, content_format
		FROM article_translations WHERE article_id = ANY($1::uuid[])
		ORDER BY locale
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.ArticleTranslation)
	for rows.Next() {
		var t models.ArticleTranslation
		if err := rows.Scan(&t.ArticleID, &t.Locale, &t.Title, &t.Slug, &t.Excerpt, &t.Content, &t.ContentFormat); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out[t.ArticleID] = append(out[t.ArticleID], t)
	}
	return out, rows.Err()
}

func loadImages(ctx context.Context, q querier, ids []string) (map[uuid.UUID][]models.Image, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, article_id, url, alt, caption, sort_order, is_primary
		FROM article_images WHERE article_id = ANY($1::uuid[])
		ORDER BY article_id, sort_order
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.Image)
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.ArticleID, &img.URL, &img.Alt, &img.Caption, &img.Order, &img.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out[img.ArticleID] = append(out[img.ArticleID], img)
	}
	return out, rows.Err()
}

func loadTagIDs(ctx context.Context, q querier, ids []string) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT article_id, tag_id FROM article_tags WHERE article_id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var articleID, tagID uuid.UUID
		if err := rows.Scan(&articleID, &tagID); err != nil {
			return nil, fmt.Errorf("scan tag link: %w", err)
		}
		out[articleID] = append(out[articleID], tagID)
	}
	return out, rows.Err()
}
