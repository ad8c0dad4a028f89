package iec101

import "errors"

// Adapter IEC 101 链路层协议适配器：流式解码 + 路由表
type Adapter struct {
	decoder *StreamDecoder
	table   *Table
	onFault func(Fault)
}

// NewAdapter 使用默认编解码器创建适配器
func NewAdapter() *Adapter { return defaultCodec.NewAdapter() }

// NewAdapter 创建与编解码器地址宽度一致的适配器
func (c *Codec) NewAdapter() *Adapter {
	return &Adapter{decoder: c.NewStreamDecoder(), table: NewTable()}
}

// Register 注册功能码处理器
func (a *Adapter) Register(prm bool, fc FunctionCode, h Handler) { a.table.Register(prm, fc, h) }

// RegisterSingleChar 注册 E5 处理器
func (a *Adapter) RegisterSingleChar(h Handler) { a.table.RegisterSingleChar(h) }

// SetFallback 设置兜底处理器
func (a *Adapter) SetFallback(h Handler) { a.table.SetFallback(h) }

// SetOnFault 设置故障帧回调（格式错误、校验错误）
func (a *Adapter) SetOnFault(fn func(Fault)) { a.onFault = fn }

// ProcessBytes 处理上行字节流：切分帧并路由，处理器错误合并返回
func (a *Adapter) ProcessBytes(p []byte) error {
	frames, faults := a.decoder.Feed(p)
	if a.onFault != nil {
		for _, f := range faults {
			a.onFault(f)
		}
	}
	var errs []error
	for _, fr := range frames {
		if err := a.table.Route(fr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sniff 初判是否为 IEC 101 链路帧：首字节为起始字符，可变帧需两个长度字节一致
func (a *Adapter) Sniff(prefix []byte) bool {
	if len(prefix) == 0 || !IsStartChar(prefix[0]) {
		return false
	}
	if prefix[0] == StartVariable && len(prefix) >= 4 {
		return prefix[1] == prefix[2] && prefix[3] == StartVariable
	}
	return true
}

// Protocol 协议标记
func (a *Adapter) Protocol() string { return "iec101" }
