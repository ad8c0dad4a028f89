package gateway

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/metrics"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
	"github.com/taoyao-code/iec101-gateway/internal/session"
	"github.com/taoyao-code/iec101-gateway/internal/tcpserver"
)

// Deps 连接处理器依赖；Journal 与 Metrics 可为空
type Deps struct {
	Codec       *iec101.Codec
	Sessions    *session.Manager
	Journal     *journal.Journal
	Metrics     *metrics.AppMetrics
	Logger      *zap.Logger
	SniffPrefix int
}

// NewConnHandler 构建 TCP 连接处理器：协议识别、链路会话绑定、帧日志与指标
func NewConnHandler(d Deps) func(*tcpserver.ConnContext) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return func(cc *tcpserver.ConnContext) {
		log := d.Logger.With(zap.Uint64("conn_id", cc.ID()), zap.String("remote", cc.RemoteAddr().String()))
		ob := &observer{d: d, cc: cc, log: log}

		link := d.Codec.NewAdapter()
		link.SetFallback(ob.onFrame)
		link.RegisterSingleChar(ob.onSingleChar)
		link.SetOnFault(ob.onFault)

		mux := tcpserver.NewMux(link)
		mux.SetSniffPrefix(d.SniffPrefix)
		mux.SetLogger(log)
		mux.BindToConn(cc)

		cc.SetOnClose(func() {
			addrs := d.Sessions.UnbindConn(cc.ID())
			if d.Metrics != nil {
				d.Metrics.OnlineGauge.Set(float64(d.Sessions.OnlineCount(time.Now())))
			}
			log.Info("link connection closed", zap.String("protocol", cc.Protocol()), zap.Int("links", len(addrs)))
		})
		log.Info("link connection accepted")
	}
}

type observer struct {
	d   Deps
	cc  *tcpserver.ConnContext
	log *zap.Logger
}

func (o *observer) onFrame(f iec101.Frame) error {
	now := time.Now()
	o.d.Sessions.OnFrame(f.Address(), o.cc, now)

	c := f.Control()
	if o.d.Metrics != nil {
		o.d.Metrics.DecodeTotal.WithLabelValues(iec101.StatusOK.String()).Inc()
		o.d.Metrics.RouteTotal.WithLabelValues(boolLabel(c.FromPrimary()), strconv.Itoa(int(c.FunctionCode()))).Inc()
		o.d.Metrics.OnlineGauge.Set(float64(o.d.Sessions.OnlineCount(now)))
	}
	o.log.Debug("frame received",
		zap.String("kind", f.Kind().String()),
		zap.String("control", c.String()),
		zap.Uint16("address", uint16(f.Address())),
		zap.Int("asdu_len", len(f.Payload())),
	)
	return o.record(f)
}

func (o *observer) onSingleChar(f iec101.Frame) error {
	if o.d.Metrics != nil {
		o.d.Metrics.DecodeTotal.WithLabelValues(iec101.StatusOK.String()).Inc()
	}
	o.log.Debug("single char received")
	return o.record(f)
}

func (o *observer) onFault(ft iec101.Fault) {
	if o.d.Metrics != nil {
		o.d.Metrics.DecodeTotal.WithLabelValues(ft.Status.String()).Inc()
	}
	o.log.Warn("frame dropped", zap.String("status", ft.Status.String()), zap.Binary("raw", ft.Raw))
	if o.d.Journal != nil {
		rec := journal.FromFault(journal.DirUp, ft).WithConn(o.cc.ID(), o.cc.RemoteAddr().String())
		_ = o.d.Journal.Append(rec)
	}
}

func (o *observer) record(f iec101.Frame) error {
	if o.d.Journal == nil {
		return nil
	}
	// 解码成功的帧重新编码即线上原文
	raw, err := o.d.Codec.Encode(f)
	if err != nil {
		return err
	}
	rec := journal.FromFrame(journal.DirUp, f, raw).WithConn(o.cc.ID(), o.cc.RemoteAddr().String())
	// 队列满时由日志与指标记录丢弃，不影响链路处理
	_ = o.d.Journal.Append(rec)
	return nil
}

func boolLabel(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
