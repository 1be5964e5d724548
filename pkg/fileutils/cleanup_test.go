package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteEmptyParentDirs(t *testing.T) {
	t.Parallel()

	log := logger.New()

	t.Run("removes empty chain up to the library root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		deep := filepath.Join(root, "Author", "Series")
		require.NoError(t, os.MkdirAll(deep, 0700))

		DeleteEmptyParentDirs(log, deep, []string{root})

		_, err := os.Stat(filepath.Join(root, "Author"))
		assert.True(t, os.IsNotExist(err))
		// The root itself survives.
		_, err = os.Stat(root)
		assert.NoError(t, err)
	})

	t.Run("ignored files do not keep a directory alive", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		dir := filepath.Join(root, "Author")
		require.NoError(t, os.MkdirAll(dir, 0700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte{}, 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Thumbs.db"), []byte{}, 0600))

		DeleteEmptyParentDirs(log, dir, []string{root})

		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("stops at a directory with real files", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		keep := filepath.Join(root, "Author")
		empty := filepath.Join(keep, "Series")
		require.NoError(t, os.MkdirAll(empty, 0700))
		require.NoError(t, os.WriteFile(filepath.Join(keep, "other.epub"), []byte("x"), 0600))

		DeleteEmptyParentDirs(log, empty, []string{root})

		_, err := os.Stat(empty)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(keep)
		assert.NoError(t, err)
	})

	t.Run("never removes the library root even when empty", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		DeleteEmptyParentDirs(log, root, []string{root})

		_, err := os.Stat(root)
		assert.NoError(t, err)
	})
}
