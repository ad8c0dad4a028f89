package tcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

type recordingAdapter struct {
	prefix byte
	got    [][]byte
}

func (r *recordingAdapter) Sniff(p []byte) bool { return len(p) > 0 && p[0] == r.prefix }

func (r *recordingAdapter) ProcessBytes(p []byte) error {
	r.got = append(r.got, append([]byte(nil), p...))
	return nil
}

func TestMux_SniffAndDispatch(t *testing.T) {
	var routed []iec101.Frame
	link := iec101.NewAdapter()
	link.Register(true, iec101.FuncRequestLinkStatus, func(f iec101.Frame) error {
		routed = append(routed, f)
		return nil
	})
	other := &recordingAdapter{prefix: 0xAA}

	mux := NewMux(other, link)
	cc := &ConnContext{}
	cc.proto.Store("")
	mux.BindToConn(cc)
	require.NotNil(t, cc.onRead)

	// 请求链路状态 49H，地址 1
	cc.onRead([]byte{0x10, 0x49, 0x01, 0x4A, 0x16})
	require.Len(t, routed, 1)
	assert.Equal(t, iec101.Address(1), routed[0].Address())
	assert.Equal(t, "iec101", cc.Protocol())
	assert.Empty(t, other.got)

	// 判定后不再初判，后续字节直接交给已绑定的适配器
	cc.onRead([]byte{0xAA, 0x10, 0x49, 0x01, 0x4A, 0x16})
	assert.Len(t, routed, 2)
	assert.Empty(t, other.got)
}

func TestMux_UnknownPrefixDeliveredToAll(t *testing.T) {
	a := &recordingAdapter{prefix: 0xAA}
	b := &recordingAdapter{prefix: 0xBB}
	mux := NewMux(a, b)
	cc := &ConnContext{}
	cc.proto.Store("")
	mux.BindToConn(cc)

	cc.onRead([]byte{0x00, 0x01})
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, "", cc.Protocol())

	cc.onRead([]byte{0xBB, 0x01})
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 2)
	assert.Equal(t, "unknown", cc.Protocol())
}
