package tcpserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionLimiter(t *testing.T) {
	t.Run("超出上限被拒绝", func(t *testing.T) {
		l := NewConnectionLimiter(2, 50*time.Millisecond)
		ctx := context.Background()
		require.NoError(t, l.Acquire(ctx))
		require.NoError(t, l.Acquire(ctx))

		err := l.Acquire(ctx)
		assert.ErrorIs(t, err, ErrAdmissionRejected)

		l.Release()
		require.NoError(t, l.Acquire(ctx))
	})

	t.Run("统计", func(t *testing.T) {
		l := NewConnectionLimiter(4, time.Second)
		require.NoError(t, l.Acquire(context.Background()))
		require.NoError(t, l.Acquire(context.Background()))

		st := l.Stats()
		assert.Equal(t, 4, st.MaxConnections)
		assert.Equal(t, 2, st.ActiveConnections)
		assert.InDelta(t, 0.5, st.Utilization, 1e-9)
	})

	t.Run("多余的 Release 不会变负", func(t *testing.T) {
		l := NewConnectionLimiter(1, time.Second)
		l.Release()
		assert.Equal(t, 0, l.Current())
	})
}

func TestRateLimiter(t *testing.T) {
	r := NewRateLimiter(10, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, r.Allow(), "burst #%d", i)
	}
	assert.False(t, r.Allow())

	st := r.Stats()
	assert.Equal(t, 3, st.Burst)
	assert.EqualValues(t, 3, st.AllowedTotal)
	assert.EqualValues(t, 1, st.RejectedTotal)
}
