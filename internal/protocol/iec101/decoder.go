package iec101

// state 解码状态机状态
type state uint8

const (
	stateStart state = iota
	stateSecond68
	stateControl
	stateAddress
	stateLength0
	stateLength1
	statePayload
	stateChecksum
	stateTerminator
	stateDone
)

var stateNames = [...]string{
	stateStart:      "start",
	stateSecond68:   "second_68",
	stateControl:    "control",
	stateAddress:    "address",
	stateLength0:    "length0",
	stateLength1:    "length1",
	statePayload:    "payload",
	stateChecksum:   "checksum",
	stateTerminator: "terminator",
	stateDone:       "done",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// progress 状态转移所需的已解析信息，由 Decoder 在转移前更新
type progress struct {
	kind       Kind
	addrWidth  int
	addrRead   int
	length0    byte
	payloadLen int
}

// transition 纯函数：(状态, 输入字节, 进度) -> (下一状态, 状态码)。
// 调用前进度已包含本字节的存储结果（例如用户数据已追加）。
func transition(s state, b byte, p progress) (state, Status) {
	switch s {
	case stateStart:
		switch b {
		case StartFixed:
			return stateControl, StatusNeedMoreData
		case StartVariable:
			return stateLength0, StatusNeedMoreData
		case SingleChar:
			return stateDone, StatusOK
		default:
			return stateDone, StatusBadFormat
		}
	case stateLength0:
		return stateLength1, StatusNeedMoreData
	case stateLength1:
		if b != p.length0 {
			return stateDone, StatusCheckError
		}
		if int(p.length0) < 1+p.addrWidth {
			return stateDone, StatusBadFormat
		}
		return stateSecond68, StatusNeedMoreData
	case stateSecond68:
		if b != StartVariable {
			return stateDone, StatusBadFormat
		}
		return stateControl, StatusNeedMoreData
	case stateControl:
		return stateAddress, StatusNeedMoreData
	case stateAddress:
		if p.addrRead < p.addrWidth {
			return stateAddress, StatusNeedMoreData
		}
		if p.kind == KindFixed || p.payloadComplete() {
			return stateChecksum, StatusNeedMoreData
		}
		return statePayload, StatusNeedMoreData
	case statePayload:
		if p.payloadComplete() {
			return stateChecksum, StatusNeedMoreData
		}
		return statePayload, StatusNeedMoreData
	case stateChecksum:
		return stateTerminator, StatusNeedMoreData
	case stateTerminator:
		if b != EndChar {
			return stateDone, StatusBadFormat
		}
		return stateDone, StatusOK
	default:
		return stateDone, StatusBadFormat
	}
}

func (p progress) payloadComplete() bool {
	return p.payloadLen+1+p.addrWidth == int(p.length0)
}

// Decoder 增量解码器：可多次 Feed 分片数据，直到到达终止状态。
// 一个实例只解析一帧，需调用 Reset 才能解析下一帧。非并发安全。
type Decoder struct {
	state   state
	status  Status
	prog    progress
	control byte
	addr    []byte
	payload []byte
	cs      byte
	raw     []byte
}

// NewDecoder 创建 1 字节地址的解码器
func NewDecoder() *Decoder { return newDecoder(1) }

func newDecoder(addrWidth int) *Decoder {
	d := &Decoder{}
	d.prog.addrWidth = addrWidth
	d.Reset()
	return d
}

// Reset 丢弃当前解析进度，回到起始状态
func (d *Decoder) Reset() {
	width := d.prog.addrWidth
	d.state = stateStart
	d.status = StatusNeedMoreData
	d.prog = progress{addrWidth: width}
	d.control = 0
	d.addr = d.addr[:0]
	d.payload = nil
	d.cs = 0
	d.raw = d.raw[:0]
}

// Feed 逐字节推进状态机，返回本次消费的字节数与当前状态。
// 到达终止状态后同一分片中剩余的字节不再消费；对已终止的解码器调用为空操作，
// 不消费任何字节并返回终止状态。
func (d *Decoder) Feed(p []byte) (int, Status) {
	if d.state == stateDone {
		return 0, d.status
	}
	n := 0
	for _, b := range p {
		n++
		d.raw = append(d.raw, b)
		d.store(b)
		d.state, d.status = transition(d.state, b, d.prog)
		if d.state == stateDone {
			d.finish()
			break
		}
	}
	return n, d.status
}

// store 在状态转移前记录当前状态对应的字段
func (d *Decoder) store(b byte) {
	switch d.state {
	case stateStart:
		switch b {
		case StartFixed:
			d.prog.kind = KindFixed
		case StartVariable:
			d.prog.kind = KindVariable
			d.payload = make([]byte, 0, 16)
		case SingleChar:
			d.prog.kind = KindSingleChar
		}
	case stateLength0:
		d.prog.length0 = b
	case stateControl:
		d.control = b
	case stateAddress:
		d.addr = append(d.addr, b)
		d.prog.addrRead++
	case statePayload:
		d.payload = append(d.payload, b)
		d.prog.payloadLen++
	case stateChecksum:
		d.cs = b
	}
}

// finish 结构解析成功后统一校验一次校验和
func (d *Decoder) finish() {
	if d.status != StatusOK || d.prog.kind == KindSingleChar {
		return
	}
	if !VerifyChecksum(d.control, d.addr, d.payload, d.cs) {
		d.status = StatusCheckError
	}
}

// Status 返回当前状态（进行中为 StatusNeedMoreData）
func (d *Decoder) Status() Status { return d.status }

// Err 返回状态对应的哨兵错误，成功时为 nil
func (d *Decoder) Err() error { return d.status.Err() }

// Done 是否到达终止状态
func (d *Decoder) Done() bool { return d.state == stateDone }

// Raw 返回当前帧已消费的原始字节副本
func (d *Decoder) Raw() []byte {
	dup := make([]byte, len(d.raw))
	copy(dup, d.raw)
	return dup
}

// Frame 成功解码后按起始字符重建对应形态的帧
func (d *Decoder) Frame() (Frame, error) {
	if d.status != StatusOK {
		return Frame{}, ErrFrameUnavailable
	}
	switch d.prog.kind {
	case KindSingleChar:
		return NewSingleChar(), nil
	case KindFixed:
		return NewFixed(ParseControl(d.control), d.address()), nil
	default:
		payload := make([]byte, len(d.payload))
		copy(payload, d.payload)
		return Frame{kind: KindVariable, control: ParseControl(d.control), address: d.address(), payload: payload}, nil
	}
}

func (d *Decoder) address() Address {
	var a Address
	for i, b := range d.addr {
		a |= Address(b) << (8 * i)
	}
	return a
}

// Decode 一次性解码完整字节序列（1 字节地址）。
// 返回的 Status 为 StatusNeedMoreData 时表示数据不完整。
func Decode(p []byte) (Frame, Status) {
	d := NewDecoder()
	_, st := d.Feed(p)
	if st != StatusOK {
		return Frame{}, st
	}
	f, _ := d.Frame()
	return f, st
}
