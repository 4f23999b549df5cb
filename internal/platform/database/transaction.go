package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type contextKey string

const txContextKey contextKey = "github.com/clickbazaar/api/internal/platform/database/tx"

// WithTx stores a transactional handle on the context so repositories can
// participate in an enclosing transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, txContextKey, tx)
}

// TxFromContext returns the transactional handle when the context carries one.
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey).(*gorm.DB)
	if !ok || tx == nil {
		return nil, false
	}
	return tx, true
}

// UnitOfWork executes a function within a single database transaction.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormUnitOfWork implements UnitOfWork on a gorm handle. Nested calls reuse
// the transaction already carried by the context.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork constructs a UnitOfWork over the supplied handle.
func NewUnitOfWork(db *gorm.DB) (*GormUnitOfWork, error) {
	if db == nil {
		return nil, errors.New("database: db handle is required")
	}
	return &GormUnitOfWork{db: db}, nil
}

// RunInTx runs fn inside a transaction, committing on nil error and rolling
// back otherwise.
func (u *GormUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("database: transaction function is required")
	}
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
	if err != nil {
		return fmt.Errorf("database: transaction failed: %w", err)
	}
	return nil
}

// Handle resolves the effective gorm handle for the current context: the
// enclosing transaction when present, the base handle otherwise.
func Handle(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db.WithContext(ctx)
}
