package uow

import (
	"context"

	"gorm.io/gorm"

	"edupoints/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm. It scopes the engine's
// multi-row writes: the webhook award (grant, ledger entry, badge grants) and
// the review transition (ledger entry, submission status, badge grants), so a
// failed step rolls the whole award back.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx runs fn inside one sqlite transaction. Repositories pick the handle
// up from the context, so the same call sites work in and out of a
// transaction.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
