package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/journal"
)

// 需要可访问的 Redis，否则跳过
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("IOT_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(cfgpkg.RedisConfig{
		Enabled:     true,
		Addr:        addr,
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(cfgpkg.RedisConfig{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestFrameJournal_CappedList(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := "iec101:test:" + uuid.NewString()
	t.Cleanup(func() { c.Del(context.Background(), key) })

	j := NewFrameJournal(c, key, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Write(ctx, journal.Record{ID: string(rune('a' + i)), Kind: "fixed"}))
	}

	n, err := j.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	recs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "e", recs[0].ID)
	assert.Equal(t, "d", recs[1].ID)
}
