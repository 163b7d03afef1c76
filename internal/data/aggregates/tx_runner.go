package aggregates

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

// TxRunner opens the single transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type TxOption func(*gormTxRunner)

// WithLockTimeout bounds how long a write waits on row locks held by another
// writer. Postgres only; the failure maps to CodeRetryable.
func WithLockTimeout(d time.Duration) TxOption {
	return func(r *gormTxRunner) { r.lockTimeout = d }
}

type gormTxRunner struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewGormTxRunner(db *gorm.DB, opts ...TxOption) TxRunner {
	r := &gormTxRunner{db: db}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "Outcomes.Tx", "transaction runner has nil db", nil)
	}
	body := func(tx *gorm.DB) error {
		if err := r.prepare(tx); err != nil {
			return err
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}
	return r.db.WithContext(ctx).Transaction(body)
}

func (r *gormTxRunner) prepare(tx *gorm.DB) error {
	if r.lockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	ms := r.lockTimeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)).Error; err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}
