package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/api/middleware"
	"github.com/taoyao-code/iec101-gateway/internal/gateway"
	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
	"github.com/taoyao-code/iec101-gateway/internal/session"
)

type fakeConn struct{ written [][]byte }

func (f *fakeConn) ID() uint64 { return 7 }

func (f *fakeConn) Write(b []byte) error {
	f.written = append(f.written, b)
	return nil
}

type fixture struct {
	router   *gin.Engine
	sessions *session.Manager
	journal  *journal.Journal
	conn     *fakeConn
}

func newFixture(t *testing.T, auth middleware.AuthConfig) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	codec, err := iec101.NewCodec()
	require.NoError(t, err)

	sessions := session.New(time.Minute)
	j := journal.New(journal.Options{}, nil)
	j.Attach(journal.NewRing(16))
	sender := gateway.NewSender(codec, sessions, j, nil, nil)

	r := gin.New()
	RegisterFrameRoutes(r, NewFrameHandler(sender, sessions, j, nil), auth, zap.NewNop())
	return &fixture{router: r, sessions: sessions, journal: j, conn: &fakeConn{}}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestDecode(t *testing.T) {
	fx := newFixture(t, middleware.AuthConfig{})

	w, out := fx.do(t, http.MethodPost, "/api/v1/frames/decode", gin.H{"hex": "68 04 04 68 08 01 01 02 0C 16 E5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", out["status"])
	assert.EqualValues(t, 10, out["consumed"])
	assert.EqualValues(t, 1, out["trailing"])
	frame := out["frame"].(map[string]any)
	assert.Equal(t, "variable", frame["kind"])
	assert.Equal(t, "0102", frame["payload"])
	assert.EqualValues(t, 0x0C, frame["checksum"])

	w, out = fx.do(t, http.MethodPost, "/api/v1/frames/decode", gin.H{"hex": "10 49 01 4B 16"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "check_error", out["status"])

	w, out = fx.do(t, http.MethodPost, "/api/v1/frames/decode", gin.H{"hex": "10 49"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "need_more_data", out["status"])

	w, _ = fx.do(t, http.MethodPost, "/api/v1/frames/decode", gin.H{"hex": "zz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = fx.do(t, http.MethodPost, "/api/v1/frames/decode", gin.H{"hex": "0x10 0x5A 0x01 0x5B 0x16"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", out["status"])
}

func TestDecodeHex_Forms(t *testing.T) {
	want := []byte{0x10, 0x5A, 0x01}
	for _, in := range []string{"105A01", "10 5A 01", "0x10 0x5A 0x01", "0X10,0x5a, 01", " 0x105A01\n"} {
		got, err := decodeHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := decodeHex("0x1 0x5A")
	assert.ErrorIs(t, err, errBadRequest)
	_, err = decodeHex("0xZZ")
	assert.ErrorIs(t, err, errBadRequest)
}

func TestEncode(t *testing.T) {
	fx := newFixture(t, middleware.AuthConfig{})

	w, out := fx.do(t, http.MethodPost, "/api/v1/frames/encode", gin.H{
		"kind":    "fixed",
		"control": gin.H{"prm": true, "func": 9},
		"address": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1049014a16", out["frame"].(map[string]any)["hex"])

	w, out = fx.do(t, http.MethodPost, "/api/v1/frames/encode", gin.H{
		"kind":    "variable",
		"control": gin.H{"byte": 0x08},
		"address": 1,
		"payload": "0102",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "68040468080101020c16", out["frame"].(map[string]any)["hex"])

	w, _ = fx.do(t, http.MethodPost, "/api/v1/frames/encode", gin.H{"kind": "fixed", "address": 300})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "address overflows 1-byte width")

	w, _ = fx.do(t, http.MethodPost, "/api/v1/frames/encode", gin.H{"kind": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendAndRecent(t *testing.T) {
	fx := newFixture(t, middleware.AuthConfig{})
	body := gin.H{"kind": "fixed", "control": gin.H{"prm": true, "func": 0}, "address": 5}

	w, _ := fx.do(t, http.MethodPost, "/api/v1/links/5/frames", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	fx.sessions.OnFrame(5, fx.conn, time.Now())
	w, _ = fx.do(t, http.MethodPost, "/api/v1/links/5/frames", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, fx.conn.written, 1)
	assert.Equal(t, []byte{0x10, 0x40, 0x05, 0x45, 0x16}, fx.conn.written[0])

	w, _ = fx.do(t, http.MethodPost, "/api/v1/links/6/frames", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "address mismatch")

	w, _ = fx.do(t, http.MethodPost, "/api/v1/links/abc/frames", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 等待异步写入落到内存环
	require.NoError(t, fx.journal.Close(context.Background()))
	w, out := fx.do(t, http.MethodGet, "/api/v1/frames/recent?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	frames := out["frames"].([]any)
	require.Len(t, frames, 1)
	assert.Equal(t, "down", frames[0].(map[string]any)["direction"])

	w, out = fx.do(t, http.MethodGet, "/api/v1/links", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["links"].([]any), 1)
}

func TestRoutesRequireAPIKey(t *testing.T) {
	fx := newFixture(t, middleware.AuthConfig{Enabled: true, APIKeys: []string{"k-123456789"}})
	w, _ := fx.do(t, http.MethodGet, "/api/v1/links", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
