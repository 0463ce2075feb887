package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".decipher"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".decipher", "decipher.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".decipher", "status.json"), p.Status)
	assert.Equal(t, filepath.Join("/project", ".decipher", "config.yaml"), p.Config)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	require.NoError(t, p.EnsureDirs())
	info, err := os.Stat(p.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}
