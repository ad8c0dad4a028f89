package tcpserver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrConnClosed 连接已关闭
var ErrConnClosed = errors.New("connection closed")

// ErrWriteQueueTimeout 写队列已满且等待超时
var ErrWriteQueueTimeout = errors.New("write queue timeout")

// ConnContext 单条 TCP 链路的读写循环与回调
type ConnContext struct {
	s         *Server
	c         net.Conn
	id        uint64
	writeC    chan []byte
	doneC     chan struct{}
	closeOnce sync.Once
	onRead    func([]byte)
	onClose   func()
	proto     atomic.Value // string: 协议标记，如 "iec101"
}

func newConnContext(s *Server, c net.Conn) *ConnContext {
	cc := &ConnContext{
		s:      s,
		c:      c,
		id:     s.nextConnID.Add(1),
		writeC: make(chan []byte, 128),
		doneC:  make(chan struct{}),
	}
	cc.proto.Store("")
	return cc
}

// ID 进程内唯一递增的连接号
func (cc *ConnContext) ID() uint64 { return cc.id }

// RemoteAddr 返回远端地址
func (cc *ConnContext) RemoteAddr() net.Addr { return cc.c.RemoteAddr() }

// SetOnRead 安装上行字节回调
func (cc *ConnContext) SetOnRead(h func([]byte)) { cc.onRead = h }

// SetOnClose 安装连接结束回调（读循环退出后调用一次）
func (cc *ConnContext) SetOnClose(h func()) { cc.onClose = h }

// SetProtocol 记录 Mux 判定出的协议
func (cc *ConnContext) SetProtocol(p string) { cc.proto.Store(p) }

// Protocol 返回协议标记，未判定时为空
func (cc *ConnContext) Protocol() string {
	s, _ := cc.proto.Load().(string)
	return s
}

// Write 入队异步写出，b 会被复制
func (cc *ConnContext) Write(b []byte) error {
	select {
	case <-cc.doneC:
		return ErrConnClosed
	default:
	}
	dup := make([]byte, len(b))
	copy(dup, b)
	to := cc.s.cfg.WriteTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	timer := time.NewTimer(to)
	defer timer.Stop()
	select {
	case <-cc.doneC:
		return ErrConnClosed
	case cc.writeC <- dup:
		return nil
	case <-timer.C:
		return ErrWriteQueueTimeout
	}
}

// Close 关闭连接，可重复调用
func (cc *ConnContext) Close() error {
	var err error
	cc.closeOnce.Do(func() {
		close(cc.doneC)
		err = cc.c.Close()
	})
	return err
}

// run 启动读写循环，阻塞直至连接结束
func (cc *ConnContext) run() {
	defer func() {
		_ = cc.Close()
		if cc.onClose != nil {
			cc.onClose()
		}
	}()

	doneW := make(chan struct{})
	go func() {
		defer close(doneW)
		for {
			select {
			case <-cc.doneC:
				return
			case msg := <-cc.writeC:
				if cc.s.cfg.WriteTimeout > 0 {
					_ = cc.c.SetWriteDeadline(time.Now().Add(cc.s.cfg.WriteTimeout))
				}
				if _, err := cc.c.Write(msg); err != nil {
					_ = cc.Close()
					return
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		if cc.s.cfg.ReadTimeout > 0 {
			_ = cc.c.SetReadDeadline(time.Now().Add(cc.s.cfg.ReadTimeout))
		}
		n, err := cc.c.Read(buf)
		if n > 0 {
			if cc.s.onRecvBytes != nil {
				cc.s.onRecvBytes(n)
			}
			if cc.onRead != nil {
				cc.onRead(buf[:n])
			}
		}
		if err != nil {
			// 读超时视为链路空闲断开，由主站重连
			break
		}
	}
	_ = cc.Close()
	<-doneW
}
