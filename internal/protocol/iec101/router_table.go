package iec101

import "sync"

// Handler 帧处理器
type Handler func(f Frame) error

// RouteKey 路由键：PRM 决定功能码所属的枚举
type RouteKey struct {
	PRM  bool
	Func FunctionCode
}

// KeyOf 返回帧的路由键，单字符帧没有控制域，返回 ok=false
func KeyOf(f Frame) (RouteKey, bool) {
	if f.Kind() == KindSingleChar || !f.Valid() {
		return RouteKey{}, false
	}
	c := f.Control()
	return RouteKey{PRM: c.PRM, Func: c.Func}, true
}

// Table 路由表（PRM+功能码 -> handler）
type Table struct {
	mu         sync.RWMutex
	handlers   map[RouteKey]Handler
	singleChar Handler
	fallback   Handler
}

func NewTable() *Table { return &Table{handlers: make(map[RouteKey]Handler)} }

func (t *Table) Register(prm bool, fc FunctionCode, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[RouteKey{PRM: prm, Func: fc}] = h
}

// RegisterSingleChar 注册 E5 单字符帧处理器
func (t *Table) RegisterSingleChar(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.singleChar = h
}

// SetFallback 未注册的帧交给 fallback 处理
func (t *Table) SetFallback(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = h
}

func (t *Table) Route(f Frame) error {
	t.mu.RLock()
	var h Handler
	if key, ok := KeyOf(f); ok {
		h = t.handlers[key]
	} else if f.Kind() == KindSingleChar {
		h = t.singleChar
	}
	if h == nil {
		h = t.fallback
	}
	t.mu.RUnlock()
	if h == nil {
		return nil
	}
	return h(f)
}
