package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/migrate"
	pgstorage "github.com/taoyao-code/iec101-gateway/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行内置迁移；未启用时返回 nil
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	if !cfg.Enabled {
		log.Info("database is disabled, skipping initialization")
		return nil, nil
	}
	pool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		applied, err := migrate.Runner{}.Up(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("db migrations applied", zap.Int64s("versions", applied))
	}
	return pool, nil
}
