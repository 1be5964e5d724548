package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src", "book.epub")
	dst := filepath.Join(tmpDir, "dst", "nested", "book.epub")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0700))
	require.NoError(t, os.WriteFile(src, []byte("content"), 0600))

	err := MoveFile(src, dst)
	require.NoError(t, err)

	// Source is gone, destination has the bytes.
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestMoveFile_OverwritesDestination(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "book.epub")
	dst := filepath.Join(tmpDir, "existing.epub")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0600))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0600))

	err := MoveFile(src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMoveFile_MissingSource(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	err := MoveFile(filepath.Join(tmpDir, "missing.epub"), filepath.Join(tmpDir, "out.epub"))
	require.Error(t, err)
}

func TestFileSizeKB(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "file.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0600))

	size, err := FileSizeKB(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)
}

func TestExtractSubPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filePath string
		root     string
		expected string
	}{
		{
			name:     "nested",
			filePath: "/library/Author/Series/book.epub",
			root:     "/library",
			expected: "Author/Series",
		},
		{
			name:     "directly under root",
			filePath: "/library/book.epub",
			root:     "/library",
			expected: "",
		},
		{
			name:     "trailing slash on root",
			filePath: "/library/Author/book.epub",
			root:     "/library/",
			expected: "Author",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			subPath, err := ExtractSubPath(tt.filePath, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, subPath)
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Truncate("abc", 255))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("", 10))
}
