package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/iec101-gateway/internal/tcpserver"
)

// ConnStats TCP 接入统计来源
type ConnStats interface {
	ActiveConnections() int
	MaxConnections() int
	GetLimiterStats() tcpserver.LimiterStats
	GetRateLimiterStats() tcpserver.RateLimiterStats
}

// TCPChecker 链路接入容量检查
type TCPChecker struct {
	server ConnStats
}

func NewTCPChecker(s ConnStats) *TCPChecker { return &TCPChecker{server: s} }

func (c *TCPChecker) Name() string { return "tcp" }

func (c *TCPChecker) Check(context.Context) CheckResult {
	start := time.Now()
	active, max := c.server.ActiveConnections(), c.server.MaxConnections()
	u := 0.0
	if max > 0 {
		u = float64(active) / float64(max)
	}
	status, msg := utilizationStatus(u, 0.8, 0.95)
	return CheckResult{
		Status:  status,
		Message: msg,
		Details: map[string]any{
			"active_connections":   active,
			"max_connections":      max,
			"utilization":          fmt.Sprintf("%.1f%%", u*100),
			"rejected_total":       c.server.GetLimiterStats().RejectedTotal,
			"accept_rate_rejected": c.server.GetRateLimiterStats().RejectedTotal,
		},
		Latency: time.Since(start),
	}
}
