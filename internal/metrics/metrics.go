package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 网关业务指标
type AppMetrics struct {
	TCPAccepted      prometheus.Counter
	TCPBytesReceived prometheus.Counter
	DecodeTotal      *prometheus.CounterVec // labels: result=ok|bad_format|check_error
	RouteTotal       *prometheus.CounterVec // labels: prm, fc
	FramesSent       *prometheus.CounterVec // labels: kind
	OnlineGauge      prometheus.Gauge       // 当前在线链路数
	JournalWrites    *prometheus.CounterVec // labels: sink, result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_accept_total",
			Help: "Total accepted TCP connections.",
		}),
		TCPBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_bytes_received_total",
			Help: "Total bytes received over TCP.",
		}),
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iec101_decode_total",
			Help: "IEC 101 link frames decoded by result.",
		}, []string{"result"}),
		RouteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iec101_route_total",
			Help: "IEC 101 frames routed by PRM bit and function code.",
		}, []string{"prm", "fc"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iec101_frames_sent_total",
			Help: "IEC 101 frames written to links by kind.",
		}, []string{"kind"}),
		OnlineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "session_online_count",
			Help: "Current number of online links.",
		}),
		JournalWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_write_total",
			Help: "Frame journal writes by sink and result.",
		}, []string{"sink", "result"}),
	}
	reg.MustRegister(m.TCPAccepted, m.TCPBytesReceived, m.DecodeTotal, m.RouteTotal, m.FramesSent, m.OnlineGauge, m.JournalWrites)
	return m
}
