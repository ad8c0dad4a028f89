package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taoyao-code/iec101-gateway/internal/journal"
)

// FrameJournal 以定长 LIST 保存最近的帧日志（LPUSH + LTRIM，新的在前）
type FrameJournal struct {
	c   *Client
	key string
	max int64
}

// NewFrameJournal max<=0 时不截断
func NewFrameJournal(c *Client, key string, max int64) *FrameJournal {
	if key == "" {
		key = "iec101:journal"
	}
	return &FrameJournal{c: c, key: key, max: max}
}

func (j *FrameJournal) Name() string { return "redis" }

// Write 追加一条日志
func (j *FrameJournal) Write(ctx context.Context, r journal.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	pipe := j.c.TxPipeline()
	pipe.LPush(ctx, j.key, data)
	if j.max > 0 {
		pipe.LTrim(ctx, j.key, 0, j.max-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Recent 读取最近 limit 条
func (j *FrameJournal) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	items, err := j.c.LRange(ctx, j.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]journal.Record, 0, len(items))
	for _, it := range items {
		var r journal.Record
		if err := json.Unmarshal([]byte(it), &r); err != nil {
			// 跳过损坏的条目
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Len 当前条数
func (j *FrameJournal) Len(ctx context.Context) (int64, error) {
	return j.c.LLen(ctx, j.key).Result()
}
