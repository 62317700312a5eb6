package infra

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner is the transaction seam: the reconciler runs its claim inside one
// database transaction through this interface, and tests substitute a fake.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
