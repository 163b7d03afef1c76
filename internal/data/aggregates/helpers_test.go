package aggregates_test

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/outcomes-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/outcomes-backend/internal/data/repos"
	"github.com/yungbote/outcomes-backend/internal/data/repos/testutil"
)

// fixture hands aggregates the database itself. On sqlite the aggregate's
// own transaction needs the single connection, so tests seed through db
// directly instead of testutil.Tx.
type fixture struct {
	ctx     context.Context
	db      *gorm.DB
	repos   repos.Set
	hooks   *aggtestutil.HooksRecorder
	reports *aggtestutil.InvalidationRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	return &fixture{
		ctx:     context.Background(),
		db:      db,
		repos:   repos.NewSet(db, testutil.Logger(t)),
		hooks:   &aggtestutil.HooksRecorder{},
		reports: &aggtestutil.InvalidationRecorder{},
	}
}

func (f *fixture) base(t *testing.T) aggregates.BaseDeps {
	return aggregates.BaseDeps{DB: f.db, Log: testutil.Logger(t), Hooks: f.hooks, Reports: f.reports}
}
