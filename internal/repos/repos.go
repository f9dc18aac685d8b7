// Package repos holds the GORM-backed repositories. Every method takes an
// optional *gorm.DB transaction; a nil tx runs against the repository's own
// pool.
package repos

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = db
	}
	return transaction.WithContext(ctx)
}

// inTx runs fn in a transaction, or in a savepoint when tx is already one.
func inTx(ctx context.Context, db, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	return conn(ctx, db, tx).Transaction(fn)
}

// isUniqueViolation recognises unique-constraint failures from both
// Postgres and SQLite, translated or not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

func notFound(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(apperr.CodeNotFound, "%s not found", entity)
	}
	return err
}

// window clamps list paging arguments.
func window(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}

// likeContains builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
