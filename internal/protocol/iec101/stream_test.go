package iec101

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDecoder_MultipleFramesAndNoise(t *testing.T) {
	// 噪声、固定帧、单字符、校验错误的固定帧、可变帧
	var data []byte
	data = append(data, 0x00, 0xFF)
	data = append(data, 0x10, 0x5A, 0x01, 0x5B, 0x16)
	data = append(data, 0xE5)
	data = append(data, 0x10, 0x5A, 0x01, 0x5C, 0x16)
	data = append(data, refVariable...)

	s := NewStreamDecoder()
	frames, faults := s.Feed(data)

	require.Len(t, frames, 3)
	assert.Equal(t, KindFixed, frames[0].Kind())
	assert.Equal(t, KindSingleChar, frames[1].Kind())
	assert.Equal(t, KindVariable, frames[2].Kind())
	assert.Equal(t, refASDU, frames[2].Payload())

	require.Len(t, faults, 1)
	assert.Equal(t, StatusCheckError, faults[0].Status)
	assert.Equal(t, []byte{0x10, 0x5A, 0x01, 0x5C, 0x16}, faults[0].Raw)
	assert.True(t, errors.Is(faults[0], ErrCheck))
	assert.Equal(t, 0, s.Pending())
}

func TestStreamDecoder_HalfPackets(t *testing.T) {
	var data []byte
	data = append(data, refVariable...)
	data = append(data, 0x10, 0x49, 0x03, 0x4C, 0x16)
	data = append(data, 0xE5)

	s := NewStreamDecoder()
	var frames []Frame
	for i := range data {
		got, faults := s.Feed(data[i : i+1])
		assert.Empty(t, faults)
		frames = append(frames, got...)
	}
	require.Len(t, frames, 3)
	assert.Equal(t, Address(3), frames[1].Address())
	assert.Equal(t, KindSingleChar, frames[2].Kind())
}

func TestStreamDecoder_ResyncAfterBadFormat(t *testing.T) {
	data := []byte{0x68, 0x03, 0x03, 0x68, 0x08, 0x01, 0x46, 0x01, 0x04, 0x01, 0x00, 0x00, 0x00, 0x55, 0x16}

	s := NewStreamDecoder()
	frames, faults := s.Feed(data)
	assert.Empty(t, frames)
	require.NotEmpty(t, faults)
	assert.Equal(t, StatusBadFormat, faults[0].Status)

	// 重新同步后仍能解出后续合法帧
	frames, _ = s.Feed([]byte{0x10, 0x5A, 0x01, 0x5B, 0x16})
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0x5A), frames[0].Control().Byte())
}

func TestStreamDecoder_FrameHiddenInsideFault(t *testing.T) {
	// 长度不一致的可变帧头之后紧跟一帧固定帧
	data := []byte{0x68, 0x05, 0x06, 0x10, 0x5A, 0x01, 0x5B, 0x16}

	s := NewStreamDecoder()
	frames, faults := s.Feed(data)
	require.Len(t, faults, 1)
	assert.Equal(t, StatusCheckError, faults[0].Status)
	require.Len(t, frames, 1)
	assert.Equal(t, KindFixed, frames[0].Kind())
}

func TestStreamDecoder_WideAddress(t *testing.T) {
	codec, err := NewCodec(WithAddressWidth(2))
	require.NoError(t, err)
	raw, err := codec.Encode(NewFixed(ParseControl(0x7B), 0x0102))
	require.NoError(t, err)

	s := codec.NewStreamDecoder()
	frames, faults := s.Feed(append(raw, raw...))
	assert.Empty(t, faults)
	require.Len(t, frames, 2)
	assert.Equal(t, Address(0x0102), frames[1].Address())
}

func TestStreamDecoder_Reset(t *testing.T) {
	s := NewStreamDecoder()
	frames, _ := s.Feed([]byte{0x10, 0x5A})
	assert.Empty(t, frames)
	assert.Equal(t, 2, s.Pending())

	s.Reset()
	assert.Equal(t, 0, s.Pending())
	frames, _ = s.Feed([]byte{0xE5})
	assert.Len(t, frames, 1)
}
