// Package router sets up all HTTP routes and middleware chains for
// newsdesk. It organizes routes into public reader routes and the
// editorial JSON API with per-route permission checks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"newsdesk/internal/handlers"
	"newsdesk/internal/middleware"
	"newsdesk/internal/rbac"
)

// Deps carries everything the routes need.
type Deps struct {
	Sessions     middleware.SessionGetter
	Engine       *rbac.Engine
	LoginGuard   *middleware.LoginGuard
	SecureCookie bool

	Auth     *handlers.Auth
	Articles *handlers.Articles
	Taxonomy *handlers.Taxonomy
	Roles    *handlers.Roles
	Users    *handlers.Users
	Public   *handlers.Public
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookie))
		r.Use(middleware.LoadSession(d.Sessions))

		// Credentials and second factor, rate-limited per client.
		r.Group(func(r chi.Router) {
			r.Use(d.LoginGuard.Middleware)
			r.Post("/auth/login", d.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/auth/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/auth/2fa/verify", d.Auth.TwoFAVerify)
			})
		})
		r.Post("/auth/logout", d.Auth.Logout)

		// Authenticated + 2FA-verified editorial API.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.LoadGrants(d.Engine))

			r.Get("/me", d.Auth.Me)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Require2FA)
				mountEditorial(r, d)
			})
		})
	})

	// Public reader routes.
	r.Get("/", d.Public.Root)
	r.Get("/{locale}", d.Public.List)
	r.Get("/{locale}/news/{slug}", d.Public.Article)

	return r
}

// mountEditorial registers the permission-gated console routes.
func mountEditorial(r chi.Router, d Deps) {
	perm := func(key string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(d.Engine, key)
	}

	r.Route("/articles", func(r chi.Router) {
		r.With(perm(rbac.ArticlesView)).Get("/", d.Articles.List)
		r.With(perm(rbac.ArticlesCreate)).Post("/", d.Articles.Create)
		r.With(perm(rbac.ArticlesView)).Get("/{id}", d.Articles.Get)
		r.With(perm(rbac.ArticlesEdit)).Put("/{id}", d.Articles.Update)
		r.With(perm(rbac.ArticlesDelete)).Delete("/{id}", d.Articles.Delete)
		r.With(perm(rbac.ArticlesDelete)).Post("/{id}/restore", d.Articles.Restore)
		r.With(perm(rbac.ArticlesEdit)).Post("/{id}/images", d.Articles.AddImage)
		r.With(perm(rbac.ArticlesEdit)).Post("/{id}/images/{index}/{op}", d.Articles.Image)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", d.Taxonomy.ListCategories)
		r.With(perm(rbac.CategoriesManage)).Post("/", d.Taxonomy.CreateCategory)
		r.With(perm(rbac.CategoriesManage)).Delete("/{id}", d.Taxonomy.DeleteCategory)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", d.Taxonomy.ListTags)
		r.With(perm(rbac.TagsManage)).Post("/", d.Taxonomy.CreateTag)
		r.With(perm(rbac.TagsManage)).Delete("/{id}", d.Taxonomy.DeleteTag)
	})

	r.Group(func(r chi.Router) {
		r.Use(perm(rbac.RolesManage))
		r.Get("/permissions", d.Roles.ListPermissions)
		r.Get("/roles", d.Roles.List)
		r.Post("/roles", d.Roles.Create)
		r.Put("/roles/{id}/permissions", d.Roles.SetPermissions)
		r.Delete("/roles/{id}", d.Roles.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(perm(rbac.UsersManage))
		r.Get("/", d.Users.List)
		r.Post("/", d.Users.Create)
		r.Put("/{id}/role", d.Users.SetRole)
		r.Post("/{id}/reset-2fa", d.Users.ResetTwoFA)
		r.Delete("/{id}", d.Users.Delete)
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
