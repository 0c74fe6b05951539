// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/rbac"
	"newsdesk/internal/store"
)

// Users groups the user administration endpoints. Besides users.manage,
// every change is limited to roles the actor could grant: an actor can
// neither hand out nor administer anyone holding more than they do.
type Users struct {
	users  *store.UserStore
	roles  *store.RoleStore
	engine *rbac.Engine
}

// NewUsers creates the user handler group.
func NewUsers(users *store.UserStore, roles *store.RoleStore, engine *rbac.Engine) *Users {
	return &Users{users: users, roles: roles, engine: engine}
}

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// List returns all users.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"users": users})
}

// Create adds a user with the given role key. The new user enrolls in 2FA
// on first login.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.assignable(r, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Create(r.Context(), req.Email, req.Password, req.DisplayName, role.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user created", "user_id", u.ID, "role", u.RoleKey, "by", actorID(r))
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"user": u})
}

// SetRole assigns a different role to a user. It takes effect on the
// user's next request since permissions are loaded per request.
func (h *Users) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.manageable(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	role, err := h.assignable(r, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.SetRole(r.Context(), id, role.ID); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"user": u})
}

// ResetTwoFA clears a user's TOTP enrollment. They must enroll again on
// their next login.
func (h *Users) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.manageable(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.ResetTOTP(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("2fa reset", "user_id", id, "by", actorID(r))
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Delete removes a user. Users cannot delete their own account.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if actor := middleware.ActorFromCtx(r.Context()); actor != nil && actor.UserID == id {
		writeError(w, r, apperr.Constraint("you cannot delete your own account"))
		return
	}
	if err := h.manageable(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// assignable resolves a role key from a request body and checks the actor
// may grant it.
func (h *Users) assignable(r *http.Request, key string) (*models.Role, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.Validation("role", "role is required")
	}
	role, err := h.roles.FindRoleByKey(r.Context(), key)
	if apperr.KindOf(err) == apperr.NotFound {
		return nil, apperr.Validation("role", "unknown role "+key)
	}
	if err != nil {
		return nil, err
	}
	if err := h.requireDelegable(r.Context(), role); err != nil {
		return nil, err
	}
	return role, nil
}

// manageable checks the actor may administer the user with id, which
// needs the same rights as granting that user's current role.
func (h *Users) manageable(r *http.Request, id uuid.UUID) error {
	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFoundf("user %s not found", id)
	}
	role, err := h.roles.FindRole(r.Context(), u.RoleID)
	if err != nil {
		return err
	}
	return h.requireDelegable(r.Context(), role)
}

func (h *Users) requireDelegable(ctx context.Context, role *models.Role) error {
	return h.engine.RequireDelegable(ctx, middleware.ActorFromCtx(ctx), role.Key, role.Permissions)
}
