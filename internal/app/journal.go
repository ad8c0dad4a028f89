package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/metrics"
	pgstorage "github.com/taoyao-code/iec101-gateway/internal/storage/pg"
	redisstorage "github.com/taoyao-code/iec101-gateway/internal/storage/redis"
)

const ringSize = 1024

// NewJournal 组装帧日志后端。查询顺序：Redis、PostgreSQL、进程内环。
// rdb、db、appm 可为空。
func NewJournal(cfg *cfgpkg.Config, rdb *redisstorage.Client, db *pgxpool.Pool, appm *metrics.AppMetrics, log *zap.Logger) *journal.Journal {
	j := journal.New(journal.Options{
		BreakerThreshold: cfg.Journal.BreakerThreshold,
		BreakerTimeout:   cfg.Journal.BreakerTimeout,
		WriteTimeout:     cfg.Journal.WriteTimeout,
		QueueSize:        cfg.Journal.QueueSize,
	}, log)
	if rdb != nil {
		j.Attach(redisstorage.NewFrameJournal(rdb, cfg.Redis.JournalKey, cfg.Redis.JournalMax))
	}
	if db != nil {
		j.Attach(&pgstorage.Repository{Pool: db})
	}
	j.Attach(journal.NewRing(ringSize))
	if appm != nil {
		j.SetResultCallback(func(sink, result string) {
			appm.JournalWrites.WithLabelValues(sink, result).Inc()
		})
	}
	log.Info("frame journal ready", zap.Strings("sinks", j.Sinks()))
	return j
}
