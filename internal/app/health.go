package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/iec101-gateway/internal/health"
	redisstorage "github.com/taoyao-code/iec101-gateway/internal/storage/redis"
)

// NewHealthAggregator 按已启用的存储创建健康检查聚合器，TCP 检查在服务启动后追加
func NewHealthAggregator(rdb *redisstorage.Client, db *pgxpool.Pool) *health.Aggregator {
	agg := health.NewAggregator()
	if rdb != nil {
		agg.AddChecker(health.NewRedisChecker(rdb))
	}
	if db != nil {
		agg.AddChecker(health.NewDatabaseChecker(db))
	}
	return agg
}
