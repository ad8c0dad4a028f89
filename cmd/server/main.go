package main

import (
	"os"

	"github.com/taoyao-code/iec101-gateway/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/logging"

	"go.uber.org/zap"
)

func main() {
	// 1) 加载配置（IOT_CONFIG 指定文件，缺省 configs/example.yaml）
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动网关，阻塞直到收到退出信号
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		zap.L().Error("gateway exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
