package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "book.epub")
	err := os.WriteFile(path, []byte("hello world"), 0600)
	require.NoError(t, err)

	hash, err := File(path)
	require.NoError(t, err)
	// md5("hello world")
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", hash)
}

func TestFile_SameContentSameHash(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	pathA := filepath.Join(tmpDir, "a.pdf")
	pathB := filepath.Join(tmpDir, "subdir", "renamed.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(pathB), 0700))
	require.NoError(t, os.WriteFile(pathA, []byte("identical bytes"), 0600))
	require.NoError(t, os.WriteFile(pathB, []byte("identical bytes"), 0600))

	hashA, err := File(pathA)
	require.NoError(t, err)
	hashB, err := File(pathB)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestFile_NotFound(t *testing.T) {
	t.Parallel()

	_, err := File(filepath.Join(t.TempDir(), "missing.epub"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestReader(t *testing.T) {
	t.Parallel()

	hash, err := Reader(strings.NewReader(""))
	require.NoError(t, err)
	// md5 of the empty string
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", hash)
}
