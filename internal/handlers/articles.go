// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/apperr"
	"newsdesk/internal/gallery"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/rbac"
	"newsdesk/internal/store"
)

// Articles groups the editorial article endpoints. Route middleware has
// already checked the base permission; handlers add the publish gate.
type Articles struct {
	articles *store.ArticleStore
	engine   *rbac.Engine
	now      func() time.Time
}

// NewArticles creates the article handler group.
func NewArticles(articles *store.ArticleStore, engine *rbac.Engine) *Articles {
	return &Articles{articles: articles, engine: engine, now: time.Now}
}

// editorialArticle adds the derived state to an article for the console.
type editorialArticle struct {
	*models.Article
	State string `json:"state"`
}

func (a *Articles) view(art *models.Article) editorialArticle {
	return editorialArticle{Article: art, State: art.State(a.now())}
}

// List returns a page of articles in any status.
func (a *Articles) List(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := models.ArticleStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, apperr.Validation("status", "unknown status "+string(status)))
		return
	}

	p := pageParams(r)
	items, total, err := a.articles.ListEditorial(r.Context(), store.EditorialFilter{
		Status:         status,
		CategoryID:     categoryID,
		Search:         r.URL.Query().Get("q"),
		IncludeDeleted: queryBool(r, "include_deleted"),
		OnlyDeleted:    queryBool(r, "only_deleted"),
		Limit:          p.PerPage,
		Offset:         p.offset(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]editorialArticle, 0, len(items))
	for i := range items {
		out = append(out, a.view(&items[i]))
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"articles":   out,
		"pagination": pagination(p, total),
	})
}

// Get returns one article. Soft-deleted articles need ?include_deleted=1.
func (a *Articles) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	art, err := a.articles.Get(r.Context(), id, store.GetOptions{IncludeDeleted: queryBool(r, "include_deleted")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"article": a.view(art)})
}

// Create stores a new article. Creating it directly as published needs
// the publish permission as well.
func (a *Articles) Create(w http.ResponseWriter, r *http.Request) {
	var in store.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	if err := a.requirePublish(r.Context(), actor, models.ArticleStatusDraft, in.Status); err != nil {
		writeError(w, r, err)
		return
	}

	art, err := a.articles.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"article": a.view(art)})
}

// Update replaces the whole article. Moving it into or out of published
// needs the publish permission as well.
func (a *Articles) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in store.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	current, err := a.articles.Get(r.Context(), id, store.GetOptions{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	from := current.Status
	to := in.Status
	if to == "" {
		to = models.ArticleStatusDraft
	}
	if err := current.Transition(to); err != nil {
		writeError(w, r, err)
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	if err := a.requirePublish(r.Context(), actor, from, to); err != nil {
		writeError(w, r, err)
		return
	}

	art, err := a.articles.Replace(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"article": a.view(art)})
}

// requirePublish checks the publish permission when a write changes the
// status. An empty requested status means draft. An unknown status is a
// validation error whatever the actor holds.
func (a *Articles) requirePublish(ctx context.Context, actor *rbac.Actor, from, to models.ArticleStatus) error {
	if to != "" && !to.Valid() {
		return apperr.Validation("status", fmt.Sprintf("unknown status %q", to))
	}
	if !statusChanges(from, to) {
		return nil
	}
	return a.engine.Require(ctx, actor, rbac.ArticlesPublish)
}

func statusChanges(from, to models.ArticleStatus) bool {
	if to == "" {
		to = models.ArticleStatusDraft
	}
	return from != to
}

// Delete soft-deletes an article.
func (a *Articles) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.articles.SoftDelete(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Restore brings a soft-deleted article back.
func (a *Articles) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	art, err := a.articles.Restore(r.Context(), middleware.ActorFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"article": a.view(art)})
}

// imageOps maps the {op} route parameter to a collection operation.
var imageOps = map[string]func([]models.Image, int) []models.Image{
	"primary": gallery.SetPrimary,
	"up":      gallery.MoveUp,
	"down":    gallery.MoveDown,
}

// Image applies primary, up or down to the image at {index}. An index out
// of range leaves the collection unchanged.
func (a *Articles) Image(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	op, ok := imageOps[chi.URLParam(r, "op")]
	if !ok {
		writeError(w, r, apperr.NotFoundf("image operation %q not found", chi.URLParam(r, "op")))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, apperr.Validation("index", "index must be an integer"))
		return
	}

	art, err := a.articles.Get(r.Context(), id, store.GetOptions{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	images, err := a.articles.ReplaceImages(r.Context(), middleware.ActorFromCtx(r.Context()), id, op(art.Images, index))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"images":  images,
		"primary": gallery.Primary(images),
	})
}

// AddImage appends one image to the end of the collection. The first
// image of an empty collection becomes primary.
func (a *Articles) AddImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in store.ImageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	art, err := a.articles.Get(r.Context(), id, store.GetOptions{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	images := gallery.Append(art.Images, models.Image{
		ArticleID: id,
		URL:       strings.TrimSpace(in.URL),
		Alt:       in.Alt,
		Caption:   in.Caption,
	})
	images, err = a.articles.ReplaceImages(r.Context(), middleware.ActorFromCtx(r.Context()), id, images)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{
		"images":  images,
		"primary": gallery.Primary(images),
	})
}
