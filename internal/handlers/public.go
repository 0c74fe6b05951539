// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/gallery"
	"newsdesk/internal/locale"
	"newsdesk/internal/models"
	"newsdesk/internal/richtext"
	"newsdesk/internal/store"
)

// excerptRunes bounds excerpts derived from article bodies.
const excerptRunes = 240

// Public groups the reader endpoints. Only articles visible at request
// time with a ready translation in the requested locale are served.
type Public struct {
	articles   *store.ArticleStore
	categories *store.CategoryStore
	locales    locale.Set
	now        func() time.Time
}

// NewPublic creates a new Public handler group.
func NewPublic(articles *store.ArticleStore, categories *store.CategoryStore, locales locale.Set) *Public {
	return &Public{articles: articles, categories: categories, locales: locales, now: time.Now}
}

// publicSummary is one entry of a locale listing.
type publicSummary struct {
	ID           uuid.UUID     `json:"id"`
	Path         string        `json:"path"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Excerpt      string        `json:"excerpt"`
	PublishedAt  *time.Time    `json:"published_at,omitempty"`
	CategoryID   *uuid.UUID    `json:"category_id,omitempty"`
	CategoryName string        `json:"category_name,omitempty"` // "" when unnamed in this locale
	Featured     bool          `json:"featured"`
	Agenda       bool          `json:"agenda"`
	Views        int64         `json:"views"`
	Image        *models.Image `json:"image,omitempty"`
}

// publicArticle is the detail payload.
type publicArticle struct {
	publicSummary
	ContentHTML string         `json:"content_html"`
	AuthorName  string         `json:"author_name,omitempty"`
	TagIDs      []uuid.UUID    `json:"tag_ids"`
	Images      []models.Image `json:"images"`
}

// Root redirects to the home page of the reader's preferred locale.
func (p *Public) Root(w http.ResponseWriter, r *http.Request) {
	code := p.locales.FromAcceptLanguage(r.Header.Get("Accept-Language"))
	if code == "" {
		code = p.locales.Default()
	}
	http.Redirect(w, r, locale.HomePath(code), http.StatusFound)
}

// List returns the published articles of one locale, newest first.
// Query: category, tag, q, page, per_page.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	code, ok := p.locale(w, r)
	if !ok {
		return
	}

	categoryID, err := queryID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tagID, err := queryID(r, "tag")
	if err != nil {
		writeError(w, r, err)
		return
	}

	pg := pageParams(r)
	items, total, err := p.articles.ListPublished(r.Context(), store.ListFilter{
		Locale:     code,
		CategoryID: categoryID,
		TagID:      tagID,
		Search:     r.URL.Query().Get("q"),
		Limit:      pg.PerPage,
		Offset:     pg.offset(),
		Now:        p.now(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	names := p.categoryNames(r, code)
	out := make([]publicSummary, 0, len(items))
	for i := range items {
		rendered, ok := locale.ForListing(items[i].Translations, code)
		if !ok {
			continue
		}
		sum := summarize(&items[i], rendered, code)
		if sum.CategoryID != nil {
			sum.CategoryName = names[*sum.CategoryID]
		}
		out = append(out, sum)
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"locale":     code,
		"articles":   out,
		"pagination": pagination(pg, total),
	})
}

// Article serves one article by slug. A translation that is missing or not
// ready redirects to the locale home page; a slug of another locale
// redirects to this locale's URL; anything not visible is a 404. Each
// served detail counts one view.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	code, ok := p.locale(w, r)
	if !ok {
		return
	}

	requested := chi.URLParam(r, "slug")
	art, err := p.articles.FindPublishedBySlug(r.Context(), code, requested, p.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := locale.Resolve(art.Translations, code)
	if res.Redirect {
		http.Redirect(w, r, res.Target, http.StatusFound)
		return
	}
	// Reached through another locale's slug: send the reader to this
	// locale's own URL.
	if res.Render.Slug != requested {
		http.Redirect(w, r, articlePath(code, res.Render.Slug), http.StatusFound)
		return
	}

	html, err := richtext.Render(res.Render.Content, res.Render.ContentFormat)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// A failed increment must not hide the article.
	if views, err := p.articles.RecordView(r.Context(), art.ID); err != nil {
		slog.Warn("record view failed", "article_id", art.ID, "error", err)
	} else {
		art.Views = views
	}

	out := publicArticle{
		publicSummary: summarize(art, *res.Render, code),
		ContentHTML:   html,
		AuthorName:    art.AuthorName,
		TagIDs:        art.TagIDs,
		Images:        art.Images,
	}
	if art.CategoryID != nil {
		out.CategoryName = p.categoryName(r, *art.CategoryID, code)
	}
	if out.TagIDs == nil {
		out.TagIDs = []uuid.UUID{}
	}
	if out.Images == nil {
		out.Images = []models.Image{}
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"article": out})
}

// locale validates the {locale} route parameter. Unsupported locales are
// a 404.
func (p *Public) locale(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "locale")
	if !p.locales.Contains(raw) {
		writeError(w, r, apperr.NotFoundf("locale %q not found", raw))
		return "", false
	}
	return raw, true
}

// categoryNames maps every category to its name in code. A failed lookup
// leaves names unknown rather than failing the listing.
func (p *Public) categoryNames(r *http.Request, code string) map[uuid.UUID]string {
	cats, err := p.categories.List(r.Context())
	if err != nil {
		slog.Warn("load category names failed", "error", err)
		return nil
	}
	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = models.NameIn(c.Translations, code)
	}
	return names
}

func (p *Public) categoryName(r *http.Request, id uuid.UUID, code string) string {
	c, err := p.categories.FindByID(r.Context(), id)
	if err != nil {
		if apperr.KindOf(err) != apperr.NotFound {
			slog.Warn("load category name failed", "category_id", id, "error", err)
		}
		return ""
	}
	return models.NameIn(c.Translations, code)
}

func summarize(a *models.Article, t locale.Rendered, code string) publicSummary {
	return publicSummary{
		ID:          a.ID,
		Path:        articlePath(code, t.Slug),
		Title:       t.Title,
		Slug:        t.Slug,
		Excerpt:     excerpt(t),
		PublishedAt: a.PublishedAt,
		CategoryID:  a.CategoryID,
		Featured:    a.Featured,
		Agenda:      a.Agenda,
		Views:       a.Views,
		Image:       gallery.Primary(a.Images),
	}
}

// articlePath is the public URL of an article translation.
func articlePath(code, slug string) string {
	return locale.HomePath(code) + "/news/" + slug
}

// excerpt returns the stored excerpt, or the start of the body as plain
// text when none was written.
func excerpt(t locale.Rendered) string {
	if s := strings.TrimSpace(t.Excerpt); s != "" {
		return s
	}
	html, err := richtext.Render(t.Content, t.ContentFormat)
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(richtext.PlainText(html)), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:excerptRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
