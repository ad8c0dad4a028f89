package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/iec101-gateway/internal/config"
	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/migrate"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
)

// 需要设置 IOT_TEST_PG_DSN，否则跳过
func testRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("IOT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("IOT_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, cfgpkg.DatabaseConfig{Enabled: true, DSN: dsn}, nil)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)
	_, err = migrate.Runner{}.Up(ctx, pool)
	require.NoError(t, err)
	return &Repository{Pool: pool}
}

func TestNewPool_Disabled(t *testing.T) {
	_, err := NewPool(context.Background(), cfgpkg.DatabaseConfig{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRepository_InsertAndRecent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	f, err := iec101.NewVariable(iec101.ParseControl(0x08), 1, []byte{0x01, 0x02})
	require.NoError(t, err)
	rec := journal.FromFrame(journal.DirUp, f, []byte{0x68, 0x04, 0x04, 0x68, 0x08, 0x01, 0x01, 0x02, 0x0C, 0x16}).
		WithConn(42, "127.0.0.1:50000")
	rec.At = time.Now().Add(time.Hour).Truncate(time.Microsecond)
	require.NoError(t, repo.InsertFrameLog(ctx, rec))

	recs, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, uint64(42), got.ConnID)
	assert.Equal(t, journal.DirUp, got.Direction)
	assert.Equal(t, "0102", got.Payload)
	assert.Equal(t, rec.Raw, got.Raw)
	assert.True(t, rec.At.Equal(got.At))
}
