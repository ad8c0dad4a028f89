package adapter

// Adapter 统一协议适配器接口：用于网关复用器绑定
// 要求：
// - Sniff 用于首包初判
// - ProcessBytes 处理来自连接的原始字节流（内部负责半包/粘包）
type Adapter interface {
	Sniff(prefix []byte) bool
	ProcessBytes(p []byte) error
}

// Named 可选接口：返回协议标记，供连接打标与日志使用
type Named interface {
	Protocol() string
}

// NameOf 返回适配器的协议标记，未实现 Named 时为 "unknown"
func NameOf(a Adapter) string {
	if n, ok := a.(Named); ok {
		return n.Protocol()
	}
	return "unknown"
}
