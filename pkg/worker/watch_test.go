package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFileEvent_IngestsWatchedFile(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	library := tc.createLibrary([]string{root})

	full := filepath.Join(root, "incoming", "Dune.epub")
	writeEPUB(t, full, duneOPF)

	tc.worker.handleFileEvent(full)

	all := tc.listBooks()
	require.Len(t, all, 1)
	assert.Equal(t, library.ID, all[0].LibraryID)
	assert.Equal(t, "incoming", all[0].FileSubPath)
	assert.Equal(t, "Dune.epub", all[0].FileName)
}

func TestHandleFileEvent_OutsideAnyLibrary(t *testing.T) {
	tc := newTestContext(t)

	tc.createLibrary([]string{t.TempDir()})

	elsewhere := filepath.Join(t.TempDir(), "Dune.epub")
	writeEPUB(t, elsewhere, duneOPF)

	tc.worker.handleFileEvent(elsewhere)
	assert.Empty(t, tc.listBooks())
}

func TestResolveLibraryFile_RootLevelFile(t *testing.T) {
	tc := newTestContext(t)

	root := t.TempDir()
	library := tc.createLibrary([]string{root})

	full := filepath.Join(root, "Dune.epub")
	require.NoError(t, os.WriteFile(full, []byte("bytes"), 0o644))

	file, err := tc.worker.resolveLibraryFile(tc.ctx, full)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, library.ID, file.Library.ID)
	assert.Equal(t, "", file.FileSubPath)
	assert.Equal(t, "Dune.epub", file.FileName)
}
