package journal

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

// Direction 帧方向
type Direction string

const (
	DirUp   Direction = "up"   // 子站 -> 网关
	DirDown Direction = "down" // 网关 -> 子站
)

// Record 一条帧日志
type Record struct {
	ID        string    `json:"id"`
	ConnID    uint64    `json:"conn_id"`
	Remote    string    `json:"remote,omitempty"`
	Direction Direction `json:"direction"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Control   uint8     `json:"control"`
	PRM       bool      `json:"prm"`
	Function  string    `json:"function,omitempty"`
	Address   uint16    `json:"address"`
	Payload   string    `json:"payload,omitempty"` // ASDU hex
	Raw       string    `json:"raw"`               // 线上字节 hex
	At        time.Time `json:"at"`
}

// FromFrame 由成功解码（或即将发送）的帧构造日志
func FromFrame(dir Direction, f iec101.Frame, raw []byte) Record {
	r := Record{
		ID:        uuid.NewString(),
		Direction: dir,
		Kind:      f.Kind().String(),
		Status:    iec101.StatusOK.String(),
		Raw:       hex.EncodeToString(raw),
		At:        time.Now(),
	}
	if f.Kind() == iec101.KindSingleChar {
		return r
	}
	c := f.Control()
	r.Control = c.Byte()
	r.PRM = c.FromPrimary()
	r.Function = c.FunctionName()
	r.Address = uint16(f.Address())
	r.Payload = hex.EncodeToString(f.Payload())
	return r
}

// FromFault 由被丢弃的故障帧构造日志
func FromFault(dir Direction, fault iec101.Fault) Record {
	return Record{
		ID:        uuid.NewString(),
		Direction: dir,
		Kind:      iec101.KindInvalid.String(),
		Status:    fault.Status.String(),
		Raw:       hex.EncodeToString(fault.Raw),
		At:        time.Now(),
	}
}

// WithConn 补充连接信息
func (r Record) WithConn(id uint64, remote string) Record {
	r.ConnID = id
	r.Remote = remote
	return r
}
