package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
	"github.com/yungbote/outcomes-backend/internal/data/repos"
	"github.com/yungbote/outcomes-backend/internal/data/sources"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/modules/reporting"
	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type Services struct {
	Taxonomy domainagg.TaxonomyAggregate
	Mapping  domainagg.MappingAggregate
	Marking  domainagg.MarkingAggregate
	Filters  domainagg.FilterAggregate
	Reports  reporting.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, rs repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	store := sources.New(db, log, sources.Config{
		Prefix:          cfg.Sources.TablePrefix,
		GradebookRoles:  cfg.Sources.GradebookRoles,
		GuestUserID:     cfg.Sources.GuestUserID,
		ResourceModules: cfg.Sources.ResourceModules,
	})
	reportDeps := reporting.Deps{
		Log:         log.With("service", "Reporting"),
		Outcomes:    rs.Outcomes,
		Filters:     rs.Filters,
		UsedAreas:   rs.UsedAreas,
		Attempts:    rs.Attempts,
		Marks:       rs.Marks,
		Awards:      rs.Awards,
		Modules:     store,
		Enrollment:  store,
		Completion:  store,
		Gradebook:   store,
		CacheTTL:    cfg.Report.CacheTTL,
		Metrics:     metrics,
		Concurrency: cfg.Report.Concurrency,
	}
	// Assigning a nil *redis.ReportCache would make the interface non-nil.
	if clients.ReportCache != nil {
		reportDeps.Cache = clients.ReportCache
	}
	reports := reporting.New(reportDeps)

	// Committed writes drop the course reports they could have changed.
	base := aggregates.BaseDeps{
		DB:      db,
		Log:     log,
		Runner:  aggregates.NewGormTxRunner(db, aggregates.WithLockTimeout(cfg.Database.LockTimeout)),
		Hooks:   aggregates.NewObservabilityHooks(metrics, log, cfg.Database.SlowWrite),
		Reports: reports,
	}

	return Services{
		Taxonomy: aggregates.NewTaxonomyAggregate(aggregates.TaxonomyAggregateDeps{
			Base:     base,
			Outcomes: rs.Outcomes,
			Sets:     rs.OutcomeSets,
		}),
		Mapping: aggregates.NewMappingAggregate(aggregates.MappingAggregateDeps{
			Base:         base,
			Areas:        rs.Areas,
			AreaOutcomes: rs.AreaOutcomes,
			UsedAreas:    rs.UsedAreas,
			Attempts:     rs.Attempts,
		}),
		Marking: aggregates.NewMarkingAggregate(aggregates.MarkingAggregateDeps{
			Base:        base,
			Outcomes:    rs.Outcomes,
			Marks:       rs.Marks,
			MarkHistory: rs.MarkHistory,
			Awards:      rs.Awards,
			Metrics:     metrics,
		}),
		Filters: aggregates.NewFilterAggregate(aggregates.FilterAggregateDeps{
			Base:    base,
			Filters: rs.Filters,
			Sets:    rs.OutcomeSets,
		}),
		Reports: reports,
	}
}
