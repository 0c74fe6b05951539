package handlers

import (
	"net/http"

	"newsdesk/internal/store"
)

// Taxonomy groups the category and tag endpoints.
type Taxonomy struct {
	categories *store.CategoryStore
	tags       *store.TagStore
}

// NewTaxonomy creates the taxonomy handler group.
func NewTaxonomy(categories *store.CategoryStore, tags *store.TagStore) *Taxonomy {
	return &Taxonomy{categories: categories, tags: tags}
}

// ListCategories returns all categories with their live article counts.
func (t *Taxonomy) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := t.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"categories": items})
}

// CreateCategory stores a new category.
func (t *Taxonomy) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in store.TaxonomyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := t.categories.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"category": c})
}

// DeleteCategory removes a category. Its articles keep existing without
// one.
func (t *Taxonomy) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := t.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// ListTags returns all tags.
func (t *Taxonomy) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := t.tags.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"tags": items})
}

// CreateTag stores a new tag.
func (t *Taxonomy) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in store.TaxonomyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	tag, err := t.tags.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"tag": tag})
}

// DeleteTag removes a tag and its article links.
func (t *Taxonomy) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := t.tags.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}
