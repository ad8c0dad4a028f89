package iec101

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// 帧起始字符与结束字符
const (
	StartFixed    byte = 0x10
	StartVariable byte = 0x68
	SingleChar    byte = 0xE5
	EndChar       byte = 0x16
)

// Address 链路地址。线上宽度由 Codec 的地址宽度决定（1 或 2 字节）。
type Address uint16

const (
	AddressInvalid   Address = 0x0000
	AddressBroadcast Address = 0xFFFF
)

// BroadcastAddress 返回给定地址宽度下的广播地址（1 字节为 0xFF）
func BroadcastAddress(width int) Address {
	if width == 1 {
		return 0xFF
	}
	return AddressBroadcast
}

// Kind 帧形态
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFixed
	KindVariable
	KindSingleChar
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindVariable:
		return "variable"
	case KindSingleChar:
		return "single_char"
	default:
		return "invalid"
	}
}

// Frame 链路层帧：固定帧、可变帧、单字符帧三者之一。
// 仅可变帧携带用户数据（可以为空），零值为 KindInvalid。
type Frame struct {
	kind    Kind
	control Control
	address Address
	payload []byte
}

// NewFixed 构造固定长度帧；控制域按线上字节归一化
func NewFixed(c Control, addr Address) Frame {
	return Frame{kind: KindFixed, control: ParseControl(c.Byte()), address: addr}
}

// NewVariable 构造可变长度帧，payload 会被复制，控制域按线上字节归一化。
// 长度上限按 1 字节地址计算，更宽的地址由编码时再校验。
func NewVariable(c Control, addr Address, payload []byte) (Frame, error) {
	if len(payload) > maxPayload(1) {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	dup := make([]byte, len(payload))
	copy(dup, payload)
	return Frame{kind: KindVariable, control: ParseControl(c.Byte()), address: addr, payload: dup}, nil
}

// NewSingleChar 构造单字符帧 E5（子站无一级、二级用户数据）
func NewSingleChar() Frame {
	return Frame{kind: KindSingleChar}
}

func (f Frame) Kind() Kind { return f.kind }
func (f Frame) Control() Control { return f.control }
func (f Frame) Address() Address { return f.address }
func (f Frame) Valid() bool { return f.kind != KindInvalid }

// HasUserData 仅可变帧携带用户数据
func (f Frame) HasUserData() bool { return f.kind == KindVariable }

// NoUserData 单字符帧：子站无一级、二级用户数据
func (f Frame) NoUserData() bool { return f.kind == KindSingleChar }

// Payload 返回用户数据（ASDU）副本；非可变帧返回 nil
func (f Frame) Payload() []byte {
	if f.kind != KindVariable {
		return nil
	}
	dup := make([]byte, len(f.payload))
	copy(dup, f.payload)
	return dup
}

// Equal 比较形态、控制域、地址与用户数据
func (f Frame) Equal(o Frame) bool {
	return f.kind == o.kind && f.control == o.control && f.address == o.address &&
		bytes.Equal(f.payload, o.payload)
}

func (f Frame) String() string {
	switch f.kind {
	case KindSingleChar:
		return "E5"
	case KindFixed:
		return fmt.Sprintf("fixed c=%02X a=%d", f.control.Byte(), f.address)
	case KindVariable:
		return fmt.Sprintf("variable c=%02X a=%d asdu=%s", f.control.Byte(), f.address, hex.EncodeToString(f.payload))
	default:
		return "invalid"
	}
}

// maxPayload 单字节长度域 L = 1(控制域) + 地址宽度 + 用户数据长度
func maxPayload(width int) int { return 0xFF - 1 - width }
