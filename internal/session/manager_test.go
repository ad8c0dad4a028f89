package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

type fakeConn struct {
	id      uint64
	written [][]byte
}

func (f *fakeConn) ID() uint64 { return f.id }

func (f *fakeConn) Write(b []byte) error {
	f.written = append(f.written, b)
	return nil
}

func TestManager_BindAndOnline(t *testing.T) {
	m := New(time.Minute)
	now := time.Now()
	c1 := &fakeConn{id: 1}

	m.OnFrame(1, c1, now)
	m.OnFrame(2, c1, now.Add(-2*time.Minute))

	assert.True(t, m.IsOnline(1, now))
	assert.False(t, m.IsOnline(2, now), "stale link")
	assert.False(t, m.IsOnline(3, now))
	assert.Equal(t, 1, m.OnlineCount(now))

	got, ok := m.GetConn(2)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.ID())
}

func TestManager_RebindMovesLink(t *testing.T) {
	m := New(time.Minute)
	now := time.Now()
	c1, c2 := &fakeConn{id: 1}, &fakeConn{id: 2}
	m.OnFrame(7, c1, now)
	m.OnFrame(7, c2, now)

	assert.Empty(t, m.UnbindConn(1))
	got, err := m.Send(7, []byte{0xE5})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.ID())
	assert.Len(t, c2.written, 1)
	assert.Empty(t, c1.written)
}

func TestManager_UnbindConn(t *testing.T) {
	m := New(time.Minute)
	now := time.Now()
	c := &fakeConn{id: 9}
	m.OnFrame(1, c, now)
	m.OnFrame(2, c, now)

	addrs := m.UnbindConn(9)
	assert.ElementsMatch(t, []iec101.Address{1, 2}, addrs)
	assert.Equal(t, 0, m.OnlineCount(now))
	_, err := m.Send(1, []byte{0x10})
	assert.ErrorIs(t, err, ErrLinkNotBound)

	links := m.Links(now)
	require.Len(t, links, 2)
	assert.Equal(t, iec101.Address(1), links[0].Address)
	assert.False(t, links[0].Online)
	assert.Zero(t, links[0].ConnID)
}
