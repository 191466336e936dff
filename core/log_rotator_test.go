package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotator_RotatesToOld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gateway.log")
	r, err := NewLogRotator(path, 1)
	require.NoError(t, err)
	defer r.Close()

	chunk := []byte(strings.Repeat("a", 600*1024))
	_, err = r.Write(chunk)
	require.NoError(t, err)
	_, err = r.Write(chunk)
	require.NoError(t, err)

	old, err := os.Stat(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), old.Size())

	cur, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), cur.Size())
}

func TestLogRotator_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	require.NoError(t, os.WriteFile(path, []byte("line1\n"), 0o644))

	r, err := NewLogRotator(path, 1)
	require.NoError(t, err)
	_, err = r.Write([]byte("line2\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", string(data))
}

func TestLogRotator_WriteAfterClose(t *testing.T) {
	r, err := NewLogRotator(filepath.Join(t.TempDir(), "gateway.log"), 1)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
