// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"

	"newsdesk/internal/apperr"
	"newsdesk/internal/rbac"
)

// LoadGrants resolves the permissions of the session user once per request
// and attaches them to the context. A failed lookup leaves the context
// without grants, so later checks query again and fail closed.
func LoadGrants(engine *rbac.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromCtx(r.Context())
			if actor == nil {
				next.ServeHTTP(w, r)
				return
			}

			g, err := engine.Load(r.Context(), actor)
			if err != nil {
				slog.Warn("permission preload failed", "error", err, "user_id", actor.UserID)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(rbac.WithGrants(r.Context(), actor, g)))
		})
	}
}

// RequirePermission rejects the request unless the session user holds key.
func RequirePermission(engine *rbac.Engine, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := engine.Require(r.Context(), ActorFromCtx(r.Context()), key); err != nil {
				apperr.WriteJSON(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
