// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package rbac answers "may this actor do that?" for every mutation path.
// Permissions are resolved from the actor's role as stored in the
// database; the session only tells us who is asking.
package rbac

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
)

// SuperRole is the role key that holds every permission implicitly.
const SuperRole = "admin"

// Permission keys checked by the editorial API.
const (
	ArticlesView     = "articles.view"
	ArticlesCreate   = "articles.create"
	ArticlesEdit     = "articles.edit"
	ArticlesPublish  = "articles.publish"
	ArticlesDelete   = "articles.delete"
	CategoriesManage = "categories.manage"
	TagsManage       = "tags.manage"
	RolesManage      = "roles.manage"
	UsersManage      = "users.manage"
)

// Actor identifies who is making a request. RoleKey is the label stored in
// the session and is used for display only; decisions use the role loaded
// from the store.
type Actor struct {
	UserID  uuid.UUID
	RoleKey string
}

// Grants is the resolved permission set of one actor. The zero value is
// an unloaded set that denies everything.
type Grants struct {
	loaded  bool
	roleKey string
	keys    map[string]struct{}
}

// NewGrants returns a loaded permission set.
func NewGrants(roleKey string, keys []string) Grants {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return Grants{loaded: true, roleKey: roleKey, keys: set}
}

// Loaded reports whether the permission set has been resolved.
func (g Grants) Loaded() bool { return g.loaded }

// RoleKey returns the role the grants were resolved from.
func (g Grants) RoleKey() string { return g.roleKey }

// Has reports whether the set includes key. It fails closed: an unloaded
// set never grants anything, not even to the super-role.
func (g Grants) Has(key string) bool {
	if !g.loaded {
		return false
	}
	if g.roleKey == SuperRole {
		return true
	}
	_, ok := g.keys[key]
	return ok
}

// Keys returns the explicitly granted keys in sorted order.
func (g Grants) Keys() []string {
	out := make([]string, 0, len(g.keys))
	for k := range g.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// VisibilityOptions tune Visible. They never affect Has.
type VisibilityOptions struct {
	// ShowWhileLoading keeps a control visible until the set has loaded,
	// to avoid flicker. Only for non-destructive display decisions.
	ShowWhileLoading bool
}

// Visible decides whether a UI control guarded by key is shown.
func (g Grants) Visible(key string, opts VisibilityOptions) bool {
	if !g.loaded {
		return opts.ShowWhileLoading
	}
	return g.Has(key)
}

// Source loads the role key and permission keys of a user.
type Source interface {
	GrantsForUser(ctx context.Context, userID uuid.UUID) (roleKey string, keys []string, err error)
}

// Engine resolves and checks permissions.
type Engine struct {
	source Source
}

// NewEngine creates an Engine backed by the given source.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Load resolves the grants of actor. Grants already attached to the
// context for the same user are reused. A nil actor yields an unloaded set.
func (e *Engine) Load(ctx context.Context, actor *Actor) (Grants, error) {
	if actor == nil {
		return Grants{}, nil
	}
	if g, ok := grantsFor(ctx, actor.UserID); ok {
		return g, nil
	}

	roleKey, keys, err := e.source.GrantsForUser(ctx, actor.UserID)
	if err != nil {
		return Grants{}, err
	}
	return NewGrants(roleKey, keys), nil
}

// HasPermission reports whether actor holds key. Lookup failures deny.
func (e *Engine) HasPermission(ctx context.Context, actor *Actor, key string) bool {
	g, err := e.Load(ctx, actor)
	if err != nil {
		slog.Warn("permission lookup failed", "error", err, "key", key)
		return false
	}
	return g.Has(key)
}

// Require returns nil when actor holds key, AuthenticationRequired for a
// missing actor, PermissionDenied otherwise. A failed lookup is returned
// as an Unexpected error and never treated as a grant.
func (e *Engine) Require(ctx context.Context, actor *Actor, key string) error {
	if actor == nil {
		return apperr.Unauthenticated()
	}
	g, err := e.Load(ctx, actor)
	if err != nil {
		return apperr.Wrap(err, "load permissions")
	}
	if !g.Has(key) {
		return apperr.Denied(key)
	}
	return nil
}

// RequireDelegable checks that actor may hand out or administer a role
// carrying keys. The super-role can only be handled by the super-role;
// any other role only by an actor holding every one of its keys, so
// nobody grants more than they hold.
func (e *Engine) RequireDelegable(ctx context.Context, actor *Actor, roleKey string, keys []string) error {
	if actor == nil {
		return apperr.Unauthenticated()
	}
	g, err := e.Load(ctx, actor)
	if err != nil {
		return apperr.Wrap(err, "load permissions")
	}
	if !g.Loaded() {
		return apperr.Denied(roleKey)
	}
	if g.RoleKey() == SuperRole {
		return nil
	}
	if roleKey == SuperRole {
		return apperr.New(apperr.PermissionDenied, "only administrators can grant the administrator role")
	}
	for _, k := range keys {
		if !g.Has(k) {
			return apperr.Denied(k)
		}
	}
	return nil
}

type grantsKey struct{}

type scopedGrants struct {
	userID uuid.UUID
	grants Grants
}

// WithGrants attaches the loaded grants of actor to ctx so later checks in
// the same request skip the store.
func WithGrants(ctx context.Context, actor *Actor, g Grants) context.Context {
	if actor == nil || !g.loaded {
		return ctx
	}
	return context.WithValue(ctx, grantsKey{}, scopedGrants{userID: actor.UserID, grants: g})
}

// GrantsFromContext returns the grants attached by WithGrants, or an
// unloaded set.
func GrantsFromContext(ctx context.Context) Grants {
	s, _ := ctx.Value(grantsKey{}).(scopedGrants)
	return s.grants
}

func grantsFor(ctx context.Context, userID uuid.UUID) (Grants, bool) {
	s, ok := ctx.Value(grantsKey{}).(scopedGrants)
	if !ok || s.userID != userID {
		return Grants{}, false
	}
	return s.grants, true
}

// Catalogue lists the permissions seeded into a fresh database.
var Catalogue = []struct {
	Key      string
	Name     string
	Category string
}{
	{ArticlesView, "View articles in the console", "articles"},
	{ArticlesCreate, "Create articles", "articles"},
	{ArticlesEdit, "Edit articles", "articles"},
	{ArticlesPublish, "Publish and unpublish articles", "articles"},
	{ArticlesDelete, "Delete and restore articles", "articles"},
	{CategoriesManage, "Manage categories", "taxonomy"},
	{TagsManage, "Manage tags", "taxonomy"},
	{RolesManage, "Manage roles and permissions", "administration"},
	{UsersManage, "Manage users", "administration"},
}

// SystemRoles lists the built-in roles and their initial permission keys.
// The super-role needs no explicit keys.
var SystemRoles = []struct {
	Key         string
	Name        string
	Permissions []string
}{
	{SuperRole, "Administrator", nil},
	{"editor", "Editor", []string{
		ArticlesView, ArticlesCreate, ArticlesEdit, ArticlesPublish, ArticlesDelete,
		CategoriesManage, TagsManage,
	}},
	{"author", "Author", []string{ArticlesView, ArticlesCreate, ArticlesEdit}},
}
