package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 健康
	StatusDegraded  Status = "degraded"  // 降级（仍可服务）
	StatusUnhealthy Status = "unhealthy" // 不健康
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// utilizationStatus 按利用率阈值判定状态
func utilizationStatus(u, degraded, unhealthy float64) (Status, string) {
	switch {
	case u >= unhealthy:
		return StatusUnhealthy, "pool exhausted"
	case u > degraded:
		return StatusDegraded, "pool near limit"
	default:
		return StatusHealthy, "ok"
	}
}
