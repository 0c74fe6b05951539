// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/rbac"
)

// Default credentials of the seeded administrator.
const (
	SeedAdminEmail    = "admin@newsdesk.local"
	SeedAdminPassword = "admin"
)

// Seed populates the database with the permission catalogue, the system
// roles and, when no users exist, a default admin user. Catalogue rows are
// upserted so new permissions appear on existing databases; role grants
// are only written when a system role is first created.
func Seed(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range rbac.Catalogue {
		_, err := tx.Exec(`
			INSERT INTO permissions (key, name, category)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category
		`, p.Key, p.Name, p.Category)
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Key, err)
		}
	}

	var adminRoleID string
	for _, r := range rbac.SystemRoles {
		var roleID string
		err := tx.QueryRow(`
			INSERT INTO roles (key, name, is_system)
			VALUES ($1, $2, true)
			ON CONFLICT (key) DO NOTHING
			RETURNING id
		`, r.Key, r.Name).Scan(&roleID)
		if err == sql.ErrNoRows {
			// Role already exists; leave its grants as edited.
			if err := tx.QueryRow("SELECT id FROM roles WHERE key = $1", r.Key).Scan(&roleID); err != nil {
				return fmt.Errorf("seed find role %s: %w", r.Key, err)
			}
		} else if err != nil {
			return fmt.Errorf("seed role %s: %w", r.Key, err)
		} else {
			for _, key := range r.Permissions {
				_, err := tx.Exec(`
					INSERT INTO role_permissions (role_id, permission_id)
					SELECT $1, id FROM permissions WHERE key = $2
					ON CONFLICT DO NOTHING
				`, roleID, key)
				if err != nil {
					return fmt.Errorf("seed grant %s to %s: %w", key, r.Key, err)
				}
			}
		}
		if r.Key == rbac.SuperRole {
			adminRoleID = roleID
		}
	}

	// Check if any users exist already.
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}

		// 2FA is not enabled; the admin must set it up on first login.
		_, err = tx.Exec(`
			INSERT INTO users (email, password_hash, display_name, role_id, totp_enabled)
			VALUES ($1, $2, $3, $4, false)
		`, SeedAdminEmail, string(hash), "Admin", adminRoleID)
		if err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}

		slog.Info("database seeded with default admin user",
			"email", SeedAdminEmail,
			"password", SeedAdminPassword,
		)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	return nil
}
