package handlers

import (
	"net/http"

	"newsdesk/internal/middleware"
	"newsdesk/internal/rbac"
	"newsdesk/internal/store"
)

// Roles groups the role and permission administration endpoints. An
// actor without the super-role may only put permissions they hold
// themselves into a role, including their own.
type Roles struct {
	roles  *store.RoleStore
	engine *rbac.Engine
}

// NewRoles creates the role handler group.
func NewRoles(roles *store.RoleStore, engine *rbac.Engine) *Roles {
	return &Roles{roles: roles, engine: engine}
}

type roleRequest struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// ListPermissions returns the permission catalogue.
func (h *Roles) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.roles.ListPermissions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"permissions": perms})
}

// List returns all roles with their permission keys.
func (h *Roles) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"roles": roles})
}

// Create adds a custom role.
func (h *Roles) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	if err := h.engine.RequireDelegable(r.Context(), actor, req.Key, req.Permissions); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.roles.CreateRole(r.Context(), req.Key, req.Name, req.Permissions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"role": role})
}

// SetPermissions replaces the permission set of a role.
func (h *Roles) SetPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req permissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	current, err := h.roles.FindRole(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := middleware.ActorFromCtx(r.Context())
	if err := h.engine.RequireDelegable(r.Context(), actor, current.Key, req.Permissions); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.roles.SetPermissions(r.Context(), id, req.Permissions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"role": role})
}

// Delete removes a custom role. System roles and roles still assigned to
// users are refused.
func (h *Roles) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.roles.DeleteRole(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}
