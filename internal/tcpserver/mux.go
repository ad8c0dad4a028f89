package tcpserver

import (
	"go.uber.org/zap"

	padapter "github.com/taoyao-code/iec101-gateway/internal/protocol/adapter"
)

// Mux 多协议复用器：首包初判 -> 绑定协议 -> 直通处理
type Mux struct {
	adapters    []padapter.Adapter
	sniffPrefix int
	logger      *zap.Logger
}

// NewMux 按注册顺序尝试各协议适配器
func NewMux(adapters ...padapter.Adapter) *Mux {
	return &Mux{adapters: adapters, sniffPrefix: 8, logger: zap.NewNop()}
}

// SetSniffPrefix 设置初判使用的前缀字节数
func (m *Mux) SetSniffPrefix(n int) {
	if n > 0 {
		m.sniffPrefix = n
	}
}

// SetLogger 设置日志器
func (m *Mux) SetLogger(l *zap.Logger) {
	if l != nil {
		m.logger = l
	}
}

// BindToConn 为连接安装 onRead，首次识别成功后固定处理路径
func (m *Mux) BindToConn(cc *ConnContext) {
	var handler func([]byte)

	cc.SetOnRead(func(p []byte) {
		if handler == nil {
			pref := p
			if len(pref) > m.sniffPrefix {
				pref = pref[:m.sniffPrefix]
			}
			for _, a := range m.adapters {
				if !a.Sniff(pref) {
					continue
				}
				aa := a
				handler = func(b []byte) {
					if err := aa.ProcessBytes(b); err != nil {
						m.logger.Debug("process bytes", zap.Uint64("conn_id", cc.ID()), zap.Error(err))
					}
				}
				name := padapter.NameOf(aa)
				cc.SetProtocol(name)
				m.logger.Info("protocol identified",
					zap.Uint64("conn_id", cc.ID()),
					zap.String("protocol", name),
				)
				break
			}
			if handler == nil {
				// 未识别（例如首包前有噪声），全部投递一次，后续包仍可被识别
				m.logger.Debug("unknown protocol prefix",
					zap.Uint64("conn_id", cc.ID()),
					zap.Binary("prefix", pref),
				)
				for _, a := range m.adapters {
					_ = a.ProcessBytes(p)
				}
				return
			}
		}
		handler(p)
	})
}
