// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"newsdesk/internal/apperr"
)

// Postgres error codes the stores translate into application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// writeErr classifies a failed write. Unique violations become
// ConstraintViolation, foreign key violations ValidationFailed; everything
// else is wrapped with msg.
func writeErr(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperr.Error{Kind: apperr.ConstraintViolation, Message: msg + ": duplicate value", Err: err}
		case pgForeignKeyViolation:
			return &apperr.Error{Kind: apperr.ValidationFailed, Message: msg + ": referenced record does not exist", Err: err}
		}
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// uuidStrings converts ids for use with = ANY($n::uuid[]).
func uuidStrings[T fmt.Stringer](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
