package iec101

import "fmt"

// Codec 按地址宽度配置的编解码器，零依赖、无状态，可并发使用
type Codec struct {
	addrWidth int
}

// Option 编解码器选项
type Option func(*Codec)

// WithAddressWidth 设置链路地址宽度（1 或 2 字节，默认 1）
func WithAddressWidth(n int) Option {
	return func(c *Codec) { c.addrWidth = n }
}

// NewCodec 创建编解码器
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{addrWidth: 1}
	for _, o := range opts {
		o(c)
	}
	if c.addrWidth != 1 && c.addrWidth != 2 {
		return nil, fmt.Errorf("%w: %d", ErrBadAddressWidth, c.addrWidth)
	}
	return c, nil
}

var defaultCodec = &Codec{addrWidth: 1}

// AddressWidth 返回地址宽度
func (c *Codec) AddressWidth() int { return c.addrWidth }

// Broadcast 返回当前地址宽度下的广播地址
func (c *Codec) Broadcast() Address { return BroadcastAddress(c.addrWidth) }

// NewDecoder 创建与该编解码器地址宽度一致的解码器
func (c *Codec) NewDecoder() *Decoder { return newDecoder(c.addrWidth) }

// Encode 使用默认（1 字节地址）编解码器编码
func Encode(f Frame) ([]byte, error) { return defaultCodec.Encode(f) }

// Encode 将帧编码为线上字节：
//
//	固定帧: 10 C A CS 16
//	可变帧: 68 L L 68 C A ASDU.. CS 16，L = 1 + 地址宽度 + len(ASDU)
//	单字符: E5
func (c *Codec) Encode(f Frame) ([]byte, error) {
	switch f.kind {
	case KindSingleChar:
		return []byte{SingleChar}, nil
	case KindFixed, KindVariable:
	default:
		return nil, ErrInvalidFrame
	}

	addr, err := c.addressBytes(f.address)
	if err != nil {
		return nil, err
	}
	ctrl := f.control.Byte()

	if f.kind == KindFixed {
		buf := make([]byte, 0, 4+len(addr))
		buf = append(buf, StartFixed, ctrl)
		buf = append(buf, addr...)
		buf = append(buf, Checksum(ctrl, addr, nil), EndChar)
		return buf, nil
	}

	if len(f.payload) > maxPayload(c.addrWidth) {
		return nil, fmt.Errorf("%w: %d bytes with %d-byte address", ErrPayloadTooLong, len(f.payload), c.addrWidth)
	}
	l := byte(1 + len(addr) + len(f.payload))
	buf := make([]byte, 0, 6+int(l))
	buf = append(buf, StartVariable, l, l, StartVariable, ctrl)
	buf = append(buf, addr...)
	buf = append(buf, f.payload...)
	buf = append(buf, Checksum(ctrl, addr, f.payload), EndChar)
	return buf, nil
}

// addressBytes 地址按小端序写出，超出宽度时报错而不是截断
func (c *Codec) addressBytes(a Address) ([]byte, error) {
	if c.addrWidth == 1 {
		if a > 0xFF {
			return nil, fmt.Errorf("%w: 0x%04X", ErrAddressOverflow, uint16(a))
		}
		return []byte{byte(a)}, nil
	}
	return []byte{byte(a), byte(a >> 8)}, nil
}
