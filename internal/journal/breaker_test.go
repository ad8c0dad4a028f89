package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b := NewBreaker(2, 10*time.Second)
	b.now = func() time.Time { return now }
	boom := errors.New("boom")

	t.Run("连续失败后熔断", func(t *testing.T) {
		assert.ErrorIs(t, b.Call(func() error { return boom }), boom)
		assert.Equal(t, BreakerClosed, b.State())
		assert.ErrorIs(t, b.Call(func() error { return boom }), boom)
		assert.Equal(t, BreakerOpen, b.State())

		called := false
		err := b.Call(func() error { called = true; return nil })
		assert.ErrorIs(t, err, ErrBreakerOpen)
		assert.False(t, called)
	})

	t.Run("试探失败重新熔断", func(t *testing.T) {
		now = now.Add(11 * time.Second)
		assert.ErrorIs(t, b.Call(func() error { return boom }), boom)
		assert.Equal(t, BreakerOpen, b.State())
		assert.EqualValues(t, 2, b.Trips())
	})

	t.Run("试探成功恢复", func(t *testing.T) {
		now = now.Add(11 * time.Second)
		assert.NoError(t, b.Call(func() error { return nil }))
		assert.Equal(t, BreakerClosed, b.State())
	})

	t.Run("成功清零失败计数", func(t *testing.T) {
		_ = b.Call(func() error { return boom })
		_ = b.Call(func() error { return nil })
		_ = b.Call(func() error { return boom })
		assert.Equal(t, BreakerClosed, b.State())
	})
}
