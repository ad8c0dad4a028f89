package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/taoyao-code/iec101-gateway/internal/storage/redis"
)

// RedisChecker 帧日志 Redis 检查
type RedisChecker struct {
	client *redisstorage.Client
}

func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.client.HealthCheck(ctx); err != nil {
		// 帧日志是旁路功能，Redis 不可用只降级
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("ping failed: %v", err), Latency: time.Since(start)}
	}
	st := c.client.Stats()
	u := 0.0
	if st.TotalConns > 0 {
		u = float64(st.TotalConns-st.IdleConns) / float64(st.TotalConns)
	}
	status, msg := utilizationStatus(u, 0.9, 2) // 池满仅降级
	return CheckResult{
		Status:  status,
		Message: msg,
		Details: map[string]any{
			"total_conns": st.TotalConns,
			"idle_conns":  st.IdleConns,
			"timeouts":    st.Timeouts,
			"utilization": fmt.Sprintf("%.1f%%", u*100),
		},
		Latency: time.Since(start),
	}
}
