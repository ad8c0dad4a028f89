package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

var errBadRequest = errors.New("bad request")

// ControlDTO 控制域；Byte 非空时优先使用原始字节
type ControlDTO struct {
	Byte *uint8 `json:"byte,omitempty"`
	DIR  uint8  `json:"dir"`
	PRM  bool   `json:"prm"`
	Bit5 bool   `json:"bit5"` // FCB（主站）/ ACD（子站）
	Bit4 bool   `json:"bit4"` // FCV（主站）/ DFC（子站）
	Func uint8  `json:"func"`
}

func (d ControlDTO) control() iec101.Control {
	if d.Byte != nil {
		return iec101.ParseControl(*d.Byte)
	}
	var c iec101.Control
	c.SetDIR(iec101.Direction(d.DIR & 1))
	c.SetPRM(d.PRM)
	c.Bit5, c.Bit4 = d.Bit5, d.Bit4
	c.SetFunc(iec101.FunctionCode(d.Func))
	return c
}

// FrameRequest 编码/下发请求
type FrameRequest struct {
	Kind    string     `json:"kind" binding:"required,oneof=fixed variable single_char"`
	Control ControlDTO `json:"control"`
	Address uint16     `json:"address"`
	Payload string     `json:"payload"` // ASDU hex
}

// Frame 构造帧
func (r FrameRequest) Frame() (iec101.Frame, error) {
	switch r.Kind {
	case iec101.KindSingleChar.String():
		return iec101.NewSingleChar(), nil
	case iec101.KindFixed.String():
		return iec101.NewFixed(r.Control.control(), iec101.Address(r.Address)), nil
	case iec101.KindVariable.String():
		payload, err := decodeHex(r.Payload)
		if err != nil {
			return iec101.Frame{}, err
		}
		return iec101.NewVariable(r.Control.control(), iec101.Address(r.Address), payload)
	default:
		return iec101.Frame{}, fmt.Errorf("%w: kind %q", errBadRequest, r.Kind)
	}
}

// FrameView 帧的 JSON 视图
type FrameView struct {
	Kind     string       `json:"kind"`
	Control  *ControlView `json:"control,omitempty"`
	Address  *uint16      `json:"address,omitempty"`
	Payload  string       `json:"payload,omitempty"`
	Hex      string       `json:"hex"`
	Checksum *uint8       `json:"checksum,omitempty"`
}

// ControlView 控制域视图
type ControlView struct {
	Byte     uint8  `json:"byte"`
	DIR      uint8  `json:"dir"`
	PRM      bool   `json:"prm"`
	Bit5     bool   `json:"bit5"`
	Bit4     bool   `json:"bit4"`
	Func     uint8  `json:"func"`
	Function string `json:"function"`
}

func viewOf(f iec101.Frame, raw []byte) FrameView {
	v := FrameView{Kind: f.Kind().String(), Hex: hex.EncodeToString(raw)}
	if f.Kind() == iec101.KindSingleChar {
		return v
	}
	c := f.Control()
	v.Control = &ControlView{
		Byte:     c.Byte(),
		DIR:      uint8(c.DIR),
		PRM:      c.PRM,
		Bit5:     c.Bit5,
		Bit4:     c.Bit4,
		Func:     uint8(c.FunctionCode()),
		Function: c.FunctionName(),
	}
	addr := uint16(f.Address())
	v.Address = &addr
	v.Payload = hex.EncodeToString(f.Payload())
	if len(raw) >= 2 {
		cs := raw[len(raw)-2]
		v.Checksum = &cs
	}
	return v
}

// decodeHex 接受 "105A01"、"10 5A 01"、"0x10 0x5A,0x01" 等写法：
// 按空白与逗号分词，每个词可带 0x 前缀
func decodeHex(s string) ([]byte, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	var sb strings.Builder
	for _, tok := range tokens {
		if len(tok) >= 2 && tok[0] == '0' && (tok[1] == 'x' || tok[1] == 'X') {
			tok = tok[2:]
		}
		sb.WriteString(tok)
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return b, nil
}
