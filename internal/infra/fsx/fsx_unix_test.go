//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileAtomic_ReadOnlyDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 不受目录权限限制")
	}

	root := t.TempDir()
	src := filepath.Join(root, "1.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	dst := filepath.Join(root, "ro")
	require.NoError(t, os.Mkdir(dst, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dst, 0o755) })

	err := CopyFileAtomic(src, dst, "2.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
