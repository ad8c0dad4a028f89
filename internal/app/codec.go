package app

import (
	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

// NewCodec 按配置的链路地址宽度创建编解码器
func NewCodec(cfg cfgpkg.ProtocolConfig) (*iec101.Codec, error) {
	return iec101.NewCodec(iec101.WithAddressWidth(cfg.AddressWidth))
}
