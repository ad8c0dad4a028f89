package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

// ErrLinkNotBound 链路地址没有可用连接
var ErrLinkNotBound = errors.New("link not bound")

// Conn 会话绑定的下行连接
type Conn interface {
	ID() uint64
	Write(b []byte) error
}

// Link 链路快照
type Link struct {
	Address  iec101.Address `json:"address"`
	ConnID   uint64         `json:"conn_id"`
	LastSeen time.Time      `json:"last_seen"`
	Online   bool           `json:"online"`
}

type entry struct {
	conn     Conn
	lastSeen time.Time
}

// Manager 链路会话：链路地址 -> 最近一次上行帧所在的连接。
// 一条 TCP 连接背后可能是串口总线上的多个子站。
type Manager struct {
	mu      sync.RWMutex
	links   map[iec101.Address]*entry
	timeout time.Duration
}

// New 创建会话管理器，timeout 内无上行帧视为离线
func New(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{links: make(map[iec101.Address]*entry), timeout: timeout}
}

// OnFrame 记录上行帧并（重新）绑定连接
func (m *Manager) OnFrame(addr iec101.Address, c Conn, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.links[addr]
	if !ok {
		e = &entry{}
		m.links[addr] = e
	}
	e.conn = c
	e.lastSeen = t
}

// UnbindConn 连接断开时解除其上所有链路的绑定，返回受影响的地址
func (m *Manager) UnbindConn(connID uint64) []iec101.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []iec101.Address
	for addr, e := range m.links {
		if e.conn != nil && e.conn.ID() == connID {
			e.conn = nil
			out = append(out, addr)
		}
	}
	return out
}

// GetConn 返回链路绑定的连接
func (m *Manager) GetConn(addr iec101.Address) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.links[addr]
	if !ok || e.conn == nil {
		return nil, false
	}
	return e.conn, true
}

// Send 写往链路绑定的连接，返回实际写入的连接
func (m *Manager) Send(addr iec101.Address, b []byte) (Conn, error) {
	c, ok := m.GetConn(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLinkNotBound, addr)
	}
	if err := c.Write(b); err != nil {
		return nil, err
	}
	return c, nil
}

// IsOnline 已绑定且未超时
func (m *Manager) IsOnline(addr iec101.Address, now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.links[addr]
	return ok && m.online(e, now)
}

// OnlineCount 在线链路数量
func (m *Manager) OnlineCount(now time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.links {
		if m.online(e, now) {
			n++
		}
	}
	return n
}

// Links 所有已知链路，按地址排序
func (m *Manager) Links(now time.Time) []Link {
	m.mu.RLock()
	out := make([]Link, 0, len(m.links))
	for addr, e := range m.links {
		l := Link{Address: addr, LastSeen: e.lastSeen, Online: m.online(e, now)}
		if e.conn != nil {
			l.ConnID = e.conn.ID()
		}
		out = append(out, l)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (m *Manager) online(e *entry, now time.Time) bool {
	return e.conn != nil && now.Sub(e.lastSeen) <= m.timeout
}
