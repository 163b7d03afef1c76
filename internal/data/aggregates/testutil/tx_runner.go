package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
)

// errInjectedCommit forces the real transaction to roll back after the body
// succeeded, so FailCommit leaves the database untouched.
var errInjectedCommit = errors.New("injected commit failure")

// InjectedTxRunner runs aggregate bodies with failure injection. With DB set
// the body runs inside a real transaction on it; without, it gets a bare
// context and only the counters move.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin  error
	FailCommit error

	Begins    int
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Begins++
	failBegin, failCommit, db := r.FailBegin, r.FailCommit, r.DB
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if fn == nil {
		r.count(&r.Commits)
		return nil
	}

	var err error
	if db == nil {
		err = fn(dbctx.Context{Ctx: ctx})
		if err == nil && failCommit != nil {
			err = failCommit
		}
	} else {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
				return err
			}
			if failCommit != nil {
				return errInjectedCommit
			}
			return nil
		})
		if errors.Is(err, errInjectedCommit) {
			err = failCommit
		}
	}

	if err != nil {
		r.count(&r.Rollbacks)
		return err
	}
	r.count(&r.Commits)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
