package app

import (
	"github.com/yungbote/outcomes-backend/internal/clients/redis"
	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type Clients struct {
	// ReportCache is nil when redis is not configured or unreachable.
	ReportCache *redis.ReportCache
}

func wireClients(log *logger.Logger, cfg *config.Config) Clients {
	var out Clients
	if !cfg.Redis.Enabled() {
		log.Info("Redis not configured; report cache disabled")
		return out
	}
	cache, err := redis.NewReportCache(log, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable; report cache disabled", "error", err)
		return out
	}
	out.ReportCache = cache
	return out
}

func (c Clients) Close() {
	if c.ReportCache != nil {
		_ = c.ReportCache.Close()
	}
}
