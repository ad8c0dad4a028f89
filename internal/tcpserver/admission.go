package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrAdmissionRejected 接入被限流拒绝
var ErrAdmissionRejected = errors.New("connection rejected")

// ConnectionLimiter 并发链路数限制（信号量）
type ConnectionLimiter struct {
	sem      chan struct{}
	timeout  time.Duration
	active   atomic.Int64
	rejected atomic.Int64
}

// NewConnectionLimiter maxConn 为最大并发链路数，timeout 为等待许可的上限
func NewConnectionLimiter(maxConn int, timeout time.Duration) *ConnectionLimiter {
	if maxConn <= 0 {
		maxConn = 1000
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConnectionLimiter{sem: make(chan struct{}, maxConn), timeout: timeout}
}

// Acquire 获取许可，超时或 ctx 取消时返回 ErrAdmissionRejected
func (l *ConnectionLimiter) Acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	select {
	case l.sem <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		l.rejected.Add(1)
		return fmt.Errorf("%w: %d links active", ErrAdmissionRejected, cap(l.sem))
	}
}

// Release 归还许可
func (l *ConnectionLimiter) Release() {
	select {
	case <-l.sem:
		l.active.Add(-1)
	default:
	}
}

func (l *ConnectionLimiter) Current() int        { return int(l.active.Load()) }
func (l *ConnectionLimiter) MaxConnections() int { return cap(l.sem) }

// Stats 限流统计
func (l *ConnectionLimiter) Stats() LimiterStats {
	cur := l.Current()
	return LimiterStats{
		MaxConnections:    cap(l.sem),
		ActiveConnections: cur,
		RejectedTotal:     l.rejected.Load(),
		Utilization:       float64(cur) / float64(cap(l.sem)),
	}
}

// LimiterStats 并发限制统计
type LimiterStats struct {
	MaxConnections    int     `json:"max_connections"`
	ActiveConnections int     `json:"active_connections"`
	RejectedTotal     int64   `json:"rejected_total"`
	Utilization       float64 `json:"utilization"`
}

// RateLimiter 接入速率限制（令牌桶），防止串口服务器断线重连风暴
type RateLimiter struct {
	limiter  *rate.Limiter
	allowed  atomic.Int64
	rejected atomic.Int64
}

// NewRateLimiter perSec 为稳定速率，burst 缺省为两倍速率
func NewRateLimiter(perSec, burst int) *RateLimiter {
	if perSec <= 0 {
		perSec = 100
	}
	if burst <= 0 {
		burst = perSec * 2
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

// Allow 非阻塞检查
func (r *RateLimiter) Allow() bool {
	if r.limiter.Allow() {
		r.allowed.Add(1)
		return true
	}
	r.rejected.Add(1)
	return false
}

// Stats 速率统计
func (r *RateLimiter) Stats() RateLimiterStats {
	return RateLimiterStats{
		RatePerSecond: float64(r.limiter.Limit()),
		Burst:         r.limiter.Burst(),
		AllowedTotal:  r.allowed.Load(),
		RejectedTotal: r.rejected.Load(),
	}
}

// RateLimiterStats 速率限制统计
type RateLimiterStats struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	AllowedTotal  int64   `json:"allowed_total"`
	RejectedTotal int64   `json:"rejected_total"`
}
