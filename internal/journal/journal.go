package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink 帧日志写入后端（内存环、Redis、PostgreSQL）
type Sink interface {
	Name() string
	Write(ctx context.Context, r Record) error
}

// Reader 可查询最近帧日志的后端
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Record, error)
}

type guardedSink struct {
	sink    Sink
	breaker *Breaker
}

// Options 熔断、写超时与队列参数
type Options struct {
	BreakerThreshold int
	BreakerTimeout   time.Duration
	WriteTimeout     time.Duration
	QueueSize        int
}

const defaultQueueSize = 1024

// ErrQueueFull 写入队列已满，记录被丢弃
var ErrQueueFull = errors.New("journal queue full")

// ErrClosed 帧日志已关闭
var ErrClosed = errors.New("journal closed")

// Journal 多后端帧日志：Append 只入队，由单个写协程逐个后端写入，
// 单个后端失败只记日志不影响其他后端
type Journal struct {
	sinks    []guardedSink
	readers  []Reader
	opts     Options
	logger   *zap.Logger
	onResult func(sink, result string)

	mu     sync.RWMutex
	closed bool
	queue  chan Record
	done   chan struct{}
}

// New 创建帧日志并启动写协程，退出前需调用 Close 排空队列
func New(opts Options, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	j := &Journal{
		opts:   opts,
		logger: logger,
		queue:  make(chan Record, opts.QueueSize),
		done:   make(chan struct{}),
	}
	go j.run()
	return j
}

// Attach 挂载后端；实现 Reader 的后端按挂载顺序用于查询。需在 Append 之前完成。
func (j *Journal) Attach(s Sink) {
	j.sinks = append(j.sinks, guardedSink{sink: s, breaker: NewBreaker(j.opts.BreakerThreshold, j.opts.BreakerTimeout)})
	if r, ok := s.(Reader); ok {
		j.readers = append(j.readers, r)
	}
}

// SetResultCallback 写入结果回调（指标），result 为 ok|error|skipped；
// 队列满丢弃时 sink 为 "queue"、result 为 dropped
func (j *Journal) SetResultCallback(fn func(sink, result string)) { j.onResult = fn }

// Append 入队（异步，不阻塞链路读循环）。队列满时丢弃并返回 ErrQueueFull。
func (j *Journal) Append(r Record) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}
	select {
	case j.queue <- r:
		return nil
	default:
		j.report("queue", "dropped")
		j.logger.Warn("journal queue full, record dropped", zap.String("id", r.ID), zap.Int("queue_size", cap(j.queue)))
		return ErrQueueFull
	}
}

// Close 停止接收新记录并等待队列排空；ctx 到期时返回 ctx 的错误
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending 队列中待写入的记录数
func (j *Journal) Pending() int { return len(j.queue) }

func (j *Journal) run() {
	defer close(j.done)
	for r := range j.queue {
		_ = j.Write(context.Background(), r)
	}
}

// Write 同步写入所有后端，返回各后端错误的合并
func (j *Journal) Write(ctx context.Context, r Record) error {
	var errs []error
	for _, gs := range j.sinks {
		err := gs.breaker.Call(func() error {
			wctx, cancel := context.WithTimeout(ctx, j.opts.WriteTimeout)
			defer cancel()
			return gs.sink.Write(wctx, r)
		})
		result := "ok"
		switch {
		case errors.Is(err, ErrBreakerOpen):
			result = "skipped"
		case err != nil:
			result = "error"
			j.logger.Warn("journal write failed", zap.String("sink", gs.sink.Name()), zap.String("id", r.ID), zap.Error(err))
		}
		j.report(gs.sink.Name(), result)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *Journal) report(sink, result string) {
	if j.onResult != nil {
		j.onResult(sink, result)
	}
}

// ErrNoReader 没有可查询的后端
var ErrNoReader = errors.New("no journal reader attached")

// Recent 从第一个可用的后端读取最近的帧日志（新的在前）
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if len(j.readers) == 0 {
		return nil, ErrNoReader
	}
	var errs []error
	for _, r := range j.readers {
		recs, err := r.Recent(ctx, limit)
		if err == nil {
			return recs, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// Sinks 已挂载后端名称
func (j *Journal) Sinks() []string {
	names := make([]string, 0, len(j.sinks))
	for _, gs := range j.sinks {
		names = append(names, gs.sink.Name())
	}
	return names
}
