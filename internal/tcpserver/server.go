package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
)

// Server TCP 接入服务：串口服务器/DTU 以 TCP 透传 FT1.2 字节流
type Server struct {
	cfg    cfgpkg.TCPConfig
	logger *zap.Logger

	ln         net.Listener
	wg         sync.WaitGroup
	stopC      chan struct{}
	stopOnce   sync.Once
	nextConnID atomic.Uint64

	limiter     *ConnectionLimiter
	rateLimiter *RateLimiter

	connHandler func(*ConnContext)
	// 可选指标回调
	onAccept    func()
	onRecvBytes func(n int)
}

// New 创建 TCP 接入服务
func New(cfg cfgpkg.TCPConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:         cfg,
		logger:      logger,
		stopC:       make(chan struct{}),
		limiter:     NewConnectionLimiter(cfg.MaxConnections, cfg.AcquireTimeout),
		rateLimiter: NewRateLimiter(cfg.AcceptRate, cfg.AcceptBurst),
	}
}

// SetConnHandler 新连接建立后、读循环开始前调用（用于安装 onRead）
func (s *Server) SetConnHandler(h func(*ConnContext)) { s.connHandler = h }

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onRecvBytes func(int)) {
	s.onAccept, s.onRecvBytes = onAccept, onRecvBytes
}

// Start 监听并接受连接（非阻塞）
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("tcp server listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr 实际监听地址（配置 :0 时用于测试）
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// 短暂错误等待后重试
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.rateLimiter.Allow() {
			s.logger.Warn("accept rate exceeded", zap.String("remote", conn.RemoteAddr().String()))
			_ = conn.Close()
			continue
		}
		if err := s.limiter.Acquire(context.Background()); err != nil {
			s.logger.Warn("connection limit reached", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			_ = conn.Close()
			continue
		}
		if s.onAccept != nil {
			s.onAccept()
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer s.limiter.Release()
			cc := newConnContext(s, c)
			if s.connHandler != nil {
				s.connHandler(cc)
			}
			cc.run()
		}(conn)
	}
}

// ActiveConnections 当前活跃连接数
func (s *Server) ActiveConnections() int { return s.limiter.Current() }

// MaxConnections 最大并发连接数
func (s *Server) MaxConnections() int { return s.limiter.MaxConnections() }

// GetLimiterStats 并发限制统计
func (s *Server) GetLimiterStats() LimiterStats { return s.limiter.Stats() }

// GetRateLimiterStats 接入速率统计
func (s *Server) GetRateLimiterStats() RateLimiterStats { return s.rateLimiter.Stats() }

// Shutdown 关闭监听并等待连接退出；超时时强制结束
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopC) })
	if s.ln != nil {
		_ = s.ln.Close()
	}
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
