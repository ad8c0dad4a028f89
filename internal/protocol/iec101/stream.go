package iec101

// Fault 流式解码过程中被丢弃的一帧
type Fault struct {
	Status Status
	Raw    []byte
}

func (f Fault) Error() string { return f.Status.Err().Error() }

func (f Fault) Unwrap() error { return f.Status.Err() }

// StreamDecoder 处理半包/粘包的流式解码器：
// 一次 Feed 尽可能解出多帧，失败时丢弃失败帧首字节并跳到下一个起始字符重新同步。
type StreamDecoder struct {
	dec *Decoder
}

// NewStreamDecoder 基于编解码器的地址宽度创建流式解码器
func (c *Codec) NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{dec: c.NewDecoder()}
}

// NewStreamDecoder 创建 1 字节地址的流式解码器
func NewStreamDecoder() *StreamDecoder { return defaultCodec.NewStreamDecoder() }

// Feed 追加数据并返回本次解出的完整帧与丢弃的故障帧
func (s *StreamDecoder) Feed(p []byte) ([]Frame, []Fault) {
	var (
		frames []Frame
		faults []Fault
	)
	buf := p
	for len(buf) > 0 {
		if s.dec.state == stateStart {
			// 起始前的噪声直接跳过
			i := indexStart(buf)
			if i < 0 {
				return frames, faults
			}
			buf = buf[i:]
		}
		n, st := s.dec.Feed(buf)
		buf = buf[n:]
		switch st {
		case StatusNeedMoreData:
			return frames, faults
		case StatusOK:
			f, _ := s.dec.Frame()
			frames = append(frames, f)
			s.dec.Reset()
		default:
			raw := s.dec.Raw()
			faults = append(faults, Fault{Status: st, Raw: raw})
			s.dec.Reset()
			// 失败帧除首字节外的部分可能包含下一帧的起始
			if len(raw) > 1 {
				rest := make([]byte, 0, len(raw)-1+len(buf))
				rest = append(rest, raw[1:]...)
				buf = append(rest, buf...)
			}
		}
	}
	return frames, faults
}

// Pending 当前半包已缓存的字节数
func (s *StreamDecoder) Pending() int { return len(s.dec.raw) }

// Reset 丢弃半包
func (s *StreamDecoder) Reset() { s.dec.Reset() }

func indexStart(b []byte) int {
	for i, c := range b {
		if IsStartChar(c) {
			return i
		}
	}
	return -1
}

// IsStartChar 是否为合法的帧起始字符
func IsStartChar(b byte) bool {
	return b == StartFixed || b == StartVariable || b == SingleChar
}
