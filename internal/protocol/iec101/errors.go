package iec101

import "errors"

var (
	ErrNeedMoreData     = errors.New("iec101: need more data")
	ErrBadFormat        = errors.New("iec101: bad frame format")
	ErrCheck            = errors.New("iec101: length or checksum check failed")
	ErrInvalidFrame     = errors.New("iec101: invalid frame")
	ErrAddressOverflow  = errors.New("iec101: address exceeds configured width")
	ErrPayloadTooLong   = errors.New("iec101: payload too long")
	ErrBadAddressWidth  = errors.New("iec101: address width must be 1 or 2")
	ErrFrameUnavailable = errors.New("iec101: no decoded frame")
)

// Status 解码状态。NeedMoreData 不是失败：已消费的字节是合法前缀，但帧尚未完整。
type Status uint8

const (
	StatusNeedMoreData Status = iota
	StatusOK
	StatusBadFormat
	StatusCheckError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNeedMoreData:
		return "need_more_data"
	case StatusBadFormat:
		return "bad_format"
	case StatusCheckError:
		return "check_error"
	default:
		return "unknown"
	}
}

// Terminal 是否为终止状态（成功或硬错误）
func (s Status) Terminal() bool { return s != StatusNeedMoreData }

// Err 将状态映射为可用 errors.Is 判断的哨兵错误，成功时返回 nil
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusNeedMoreData:
		return ErrNeedMoreData
	case StatusBadFormat:
		return ErrBadFormat
	default:
		return ErrCheck
	}
}
