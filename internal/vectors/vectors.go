// Package vectors 加载并执行 YAML 描述的链路帧编解码用例，供测试与 iec101ctl verify 使用。
package vectors

import (
	"bytes"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

//go:embed suites/*.yaml
var builtin embed.FS

// Suite 一组共享地址宽度的用例
type Suite struct {
	Name         string       `yaml:"name"`
	AddressWidth int          `yaml:"addressWidth"`
	Encode       []EncodeCase `yaml:"encode"`
	Decode       []DecodeCase `yaml:"decode"`
}

// EncodeCase 编码用例；WantErr 与 Want 二选一
type EncodeCase struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Control uint8  `yaml:"control"`
	Address uint16 `yaml:"address"`
	Payload string `yaml:"payload"`
	Want    string `yaml:"want"`
	WantErr string `yaml:"wantErr"`
}

// DecodeCase 解码用例；Status 非 ok 时只比较状态
type DecodeCase struct {
	Name     string `yaml:"name"`
	Input    string `yaml:"input"`
	Status   string `yaml:"status"`
	Kind     string `yaml:"kind"`
	Control  uint8  `yaml:"control"`
	Address  uint16 `yaml:"address"`
	Payload  string `yaml:"payload"`
	Consumed int    `yaml:"consumed"`
}

// Result 单个用例结果
type Result struct {
	Suite  string `json:"suite"`
	Op     string `json:"op"`
	Case   string `json:"case"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
}

// Load 从文件读取用例集
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML
func Parse(data []byte) (*Suite, error) {
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	if s.AddressWidth == 0 {
		s.AddressWidth = 1
	}
	return &s, nil
}

// Builtin 内置用例集，按文件名排序
func Builtin() ([]*Suite, error) {
	entries, err := fs.ReadDir(builtin, "suites")
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var out []*Suite
	for _, e := range entries {
		data, err := fs.ReadFile(builtin, "suites/"+e.Name())
		if err != nil {
			return nil, err
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Run 按用例集的地址宽度创建编解码器并执行全部用例
func Run(s *Suite) ([]Result, error) {
	codec, err := iec101.NewCodec(iec101.WithAddressWidth(s.AddressWidth))
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(s.Encode)+len(s.Decode))
	for _, c := range s.Encode {
		r := Result{Suite: s.Name, Op: "encode", Case: c.Name}
		r.Detail = runEncode(codec, c)
		r.Pass = r.Detail == ""
		out = append(out, r)
	}
	for _, c := range s.Decode {
		r := Result{Suite: s.Name, Op: "decode", Case: c.Name}
		r.Detail = runDecode(codec, c)
		r.Pass = r.Detail == ""
		out = append(out, r)
	}
	return out, nil
}

// Failed 失败用例数
func Failed(rs []Result) int {
	n := 0
	for _, r := range rs {
		if !r.Pass {
			n++
		}
	}
	return n
}

var encodeErrs = map[string]error{
	"address_overflow": iec101.ErrAddressOverflow,
	"payload_too_long": iec101.ErrPayloadTooLong,
	"invalid_frame":    iec101.ErrInvalidFrame,
}

func runEncode(codec *iec101.Codec, c EncodeCase) string {
	f, err := buildFrame(c.Kind, c.Control, c.Address, c.Payload)
	if err != nil {
		return err.Error()
	}
	raw, err := codec.Encode(f)
	if c.WantErr != "" {
		want, ok := encodeErrs[c.WantErr]
		if !ok {
			return fmt.Sprintf("unknown wantErr %q", c.WantErr)
		}
		if !errors.Is(err, want) {
			return fmt.Sprintf("error = %v, want %s", err, c.WantErr)
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	want, err := ParseHex(c.Want)
	if err != nil {
		return err.Error()
	}
	if !bytes.Equal(raw, want) {
		return fmt.Sprintf("got % X, want % X", raw, want)
	}
	return ""
}

func runDecode(codec *iec101.Codec, c DecodeCase) string {
	in, err := ParseHex(c.Input)
	if err != nil {
		return err.Error()
	}
	d := codec.NewDecoder()
	n, st := d.Feed(in)
	if st.String() != c.Status {
		return fmt.Sprintf("status = %s, want %s", st, c.Status)
	}
	if st != iec101.StatusOK {
		return ""
	}
	consumed := c.Consumed
	if consumed == 0 {
		consumed = len(in)
	}
	if n != consumed {
		return fmt.Sprintf("consumed %d bytes, want %d", n, consumed)
	}
	got, err := d.Frame()
	if err != nil {
		return err.Error()
	}
	want, err := buildFrame(c.Kind, c.Control, c.Address, c.Payload)
	if err != nil {
		return err.Error()
	}
	if !got.Equal(want) {
		return fmt.Sprintf("frame = %s, want %s", got, want)
	}
	return ""
}

func buildFrame(kind string, control uint8, addr uint16, payload string) (iec101.Frame, error) {
	c := iec101.ParseControl(control)
	switch kind {
	case iec101.KindSingleChar.String():
		return iec101.NewSingleChar(), nil
	case iec101.KindFixed.String():
		return iec101.NewFixed(c, iec101.Address(addr)), nil
	case iec101.KindVariable.String():
		p, err := ParseHex(payload)
		if err != nil {
			return iec101.Frame{}, err
		}
		return iec101.NewVariable(c, iec101.Address(addr), p)
	default:
		return iec101.Frame{}, fmt.Errorf("unknown kind %q", kind)
	}
}

// ParseHex 解析以空白分隔的十六进制字节
func ParseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("hex %q: %w", s, err)
	}
	return b, nil
}
