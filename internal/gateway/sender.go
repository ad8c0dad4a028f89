package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/metrics"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
	"github.com/taoyao-code/iec101-gateway/internal/session"
)

// ErrAddressMismatch 帧地址与目标链路不一致
var ErrAddressMismatch = errors.New("frame address does not match link")

// Sender 运维侧下发：编码后写往链路绑定的连接
type Sender struct {
	codec    *iec101.Codec
	sessions *session.Manager
	journal  *journal.Journal
	metrics  *metrics.AppMetrics
	logger   *zap.Logger
}

// NewSender journal、metrics 可为空
func NewSender(codec *iec101.Codec, sessions *session.Manager, j *journal.Journal, m *metrics.AppMetrics, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{codec: codec, sessions: sessions, journal: j, metrics: m, logger: logger}
}

// Send 下发一帧到 addr 所在的连接，返回线上字节。
// 固定帧与可变帧的地址必须等于 addr；单字符帧不带地址。
func (s *Sender) Send(ctx context.Context, addr iec101.Address, f iec101.Frame) ([]byte, error) {
	if f.Kind() != iec101.KindSingleChar && f.Address() != addr {
		return nil, fmt.Errorf("%w: frame=%d link=%d", ErrAddressMismatch, f.Address(), addr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.codec.Encode(f)
	if err != nil {
		return nil, err
	}
	conn, err := s.sessions.Send(addr, raw)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.FramesSent.WithLabelValues(f.Kind().String()).Inc()
	}
	s.logger.Info("frame sent",
		zap.Uint16("address", uint16(addr)),
		zap.String("frame", f.String()),
		zap.Uint64("conn_id", conn.ID()),
	)
	if s.journal != nil {
		rec := journal.FromFrame(journal.DirDown, f, raw)
		rec.ConnID = conn.ID()
		_ = s.journal.Append(rec)
	}
	return raw, nil
}

// Codec 编解码器
func (s *Sender) Codec() *iec101.Codec { return s.codec }
