// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"newsdesk/internal/apperr"
	"newsdesk/internal/models"
)

var roleKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,49}$`)

// RoleStore manages roles, the permission catalogue and role grants. It is
// the permission source of the rbac engine.
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore creates a new RoleStore.
func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

const roleColumns = `id, key, name, is_system, created_at, updated_at`

func scanRole(scanner interface{ Scan(...any) error }) (*models.Role, error) {
	var r models.Role
	if err := scanner.Scan(&r.ID, &r.Key, &r.Name, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRoles returns all roles with their permission keys, system roles first.
func (s *RoleStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roleColumns+` FROM roles ORDER BY is_system DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	grants, err := s.permissionKeys(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		roles[i].Permissions = grants[roles[i].ID]
	}
	return roles, nil
}

// FindRole retrieves a role by id.
func (s *RoleStore) FindRole(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("role %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}

	grants, err := s.permissionKeys(ctx, s.db, &id)
	if err != nil {
		return nil, err
	}
	r.Permissions = grants[id]
	return r, nil
}

// FindRoleByKey retrieves a role by its key.
func (s *RoleStore) FindRoleByKey(ctx context.Context, key string) (*models.Role, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE key = $1`, key).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("role %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("find role by key: %w", err)
	}
	return s.FindRole(ctx, id)
}

// CreateRole inserts a custom (non-system) role with the given permissions.
func (s *RoleStore) CreateRole(ctx context.Context, key, name string, permissions []string) (*models.Role, error) {
	key = strings.TrimSpace(key)
	name = strings.TrimSpace(name)
	if !roleKeyPattern.MatchString(key) {
		return nil, apperr.Validation("key", "key must be 2-50 lowercase letters, digits, '-' or '_' and start with a letter")
	}
	if name == "" {
		return nil, apperr.Validation("name", "name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO roles (key, name, is_system) VALUES ($1, $2, false) RETURNING id`, key, name,
	).Scan(&id); err != nil {
		return nil, writeErr(err, "create role")
	}
	if err := replaceGrants(ctx, tx, id, permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit role: %w", err)
	}
	return s.FindRole(ctx, id)
}

// SetPermissions replaces the permission set of a role. System roles may
// be edited too; the super-role ignores its explicit set.
func (s *RoleStore) SetPermissions(ctx context.Context, roleID uuid.UUID, permissions []string) (*models.Role, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("role %s not found", roleID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock role: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return nil, fmt.Errorf("clear role permissions: %w", err)
	}
	if err := replaceGrants(ctx, tx, roleID, permissions); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE roles SET updated_at = NOW() WHERE id = $1`, roleID); err != nil {
		return nil, fmt.Errorf("touch role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit role permissions: %w", err)
	}
	return s.FindRole(ctx, roleID)
}

// replaceGrants inserts grants of keys to roleID. Unknown keys fail the
// whole call.
func replaceGrants(ctx context.Context, tx *sql.Tx, roleID uuid.UUID, keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		res, err := tx.ExecContext(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, id FROM permissions WHERE key = $2
		`, roleID, key)
		if err != nil {
			return writeErr(err, "grant permission")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Validation("permissions", fmt.Sprintf("unknown permission %q", key))
		}
	}
	return nil
}

// DeleteRole removes a custom role. System roles are never deleted, and a
// role still assigned to users is kept.
func (s *RoleStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	var isSystem bool
	err := s.db.QueryRowContext(ctx, `SELECT is_system FROM roles WHERE id = $1`, id).Scan(&isSystem)
	if err == sql.ErrNoRows {
		return apperr.NotFoundf("role %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("find role: %w", err)
	}
	if isSystem {
		return apperr.Constraint("system roles cannot be deleted")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_system`, id); err != nil {
		if apperr.KindOf(writeErr(err, "delete role")) == apperr.ValidationFailed {
			return apperr.Constraint("role is still assigned to users")
		}
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// ListPermissions returns the permission catalogue ordered by category and key.
func (s *RoleStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, name, category FROM permissions ORDER BY category, key`)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.Category); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GrantsForUser returns the role key and permission keys of a user. An
// unknown user gets an empty role and no keys.
func (s *RoleStore) GrantsForUser(ctx context.Context, userID uuid.UUID) (string, []string, error) {
	var roleID uuid.UUID
	var roleKey string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.key FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1
	`, userID).Scan(&roleID, &roleKey)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user role: %w", err)
	}

	grants, err := s.permissionKeys(ctx, s.db, &roleID)
	if err != nil {
		return "", nil, err
	}
	return roleKey, grants[roleID], nil
}

// permissionKeys returns granted keys grouped by role, for one role or all.
func (s *RoleStore) permissionKeys(ctx context.Context, q querier, roleID *uuid.UUID) (map[uuid.UUID][]string, error) {
	query := `
		SELECT rp.role_id, p.key FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id`
	var args []any
	if roleID != nil {
		query += ` WHERE rp.role_id = $1`
		args = append(args, *roleID)
	}
	query += ` ORDER BY p.key`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]string)
	for rows.Next() {
		var id uuid.UUID
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scan role permission: %w", err)
		}
		out[id] = append(out[id], key)
	}
	return out, rows.Err()
}
