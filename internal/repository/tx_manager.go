package repository

import (
	"context"

	"gorm.io/gorm"
)

// txKey carries the open *gorm.DB transaction through the context so that
// repositories called inside RunInTx share it transparently.
type txKeyType struct{}

var txKey txKeyType

// TransactionManager runs a function inside a single database transaction.
// Workflow transitions re-check their guard, mutate the request and write the
// audit row in one RunInTx call so a violated guard rolls everything back.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

type transactionManager struct {
	db *gorm.DB
}

func (m *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// GetDB returns the transaction bound to ctx when one is open, falling back
// to the root handle otherwise. Repositories call it on every query so the
// same code path works inside and outside RunInTx.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
