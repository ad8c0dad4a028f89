package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncode(t *testing.T) {
	out, err := run(t, "", "encode", "--kind", "fixed", "--control", "90", "--address", "1")
	require.NoError(t, err)
	assert.Equal(t, "10 5A 01 5B 16\n", out)

	out, err = run(t, "", "--width", "2", "encode", "--kind", "variable", "--control", "8", "--address", "4660", "--payload", "01 02")
	require.NoError(t, err)
	assert.Equal(t, "68 05 05 68 08 34 12 01 02 51 16\n", out)

	_, err = run(t, "", "encode", "--address", "300")
	assert.Error(t, err)

	_, err = run(t, "", "--width", "3", "encode")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	out, err := run(t, "", "decode", "E5 10 5A 01 5C 16 10 5A 01 5B 16 68 09")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "E5")
	assert.Contains(t, lines[1], "fixed c=5A a=1")
	assert.Contains(t, lines[2], "check_error")
	assert.Contains(t, lines[3], "2 bytes pending")
}

func TestDecode_StdinKeepsPartialFrame(t *testing.T) {
	out, err := run(t, "10 5A\n01 5B 16\n", "--json", "decode")
	require.NoError(t, err)
	assert.Contains(t, out, `"fault":"need_more_data"`)
	assert.Contains(t, out, `"frame":"fixed c=5A a=1"`)
}

func TestVerify(t *testing.T) {
	out, err := run(t, "", "verify")
	require.NoError(t, err)
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "PASS reference/encode/fixed request")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bad
decode:
  - name: expects failure
    input: "E5"
    status: bad_format
`), 0o600))
	out, err = run(t, "", "verify", "-f", path)
	assert.ErrorIs(t, err, errVectorsFailed)
	assert.Contains(t, out, "FAIL bad/decode/expects failure")
}
