package main

import (
	"context"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	if err := newRootCmd(logger).ExecuteContext(context.Background()); err != nil {
		logger.Error("iec101ctl failed", zap.Error(err))
		os.Exit(1)
	}
}
