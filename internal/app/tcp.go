package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/metrics"
	"github.com/taoyao-code/iec101-gateway/internal/tcpserver"
)

// NewTCPServer 创建 TCP 接入服务并挂接指标
func NewTCPServer(cfg cfgpkg.TCPConfig, appm *metrics.AppMetrics, log *zap.Logger) *tcpserver.Server {
	srv := tcpserver.New(cfg, log)
	srv.SetMetricsCallbacks(
		func() { appm.TCPAccepted.Inc() },
		func(n int) { appm.TCPBytesReceived.Add(float64(n)) },
	)
	return srv
}
