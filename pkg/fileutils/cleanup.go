package fileutils

import (
	"os"
	"path/filepath"

	"github.com/robinjoseph08/golib/logger"
)

// OS droppings that should not keep a directory alive.
var ignoredFilenames = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// DeleteEmptyParentDirs walks upward from startDir removing directories that
// are empty apart from ignored files, stopping at (and never removing) any of
// the given library roots. Roots are matched by filesystem identity, not
// string equality, so symlinked paths still act as boundaries. Failures are
// logged and stop the walk rather than erroring out.
func DeleteEmptyParentDirs(log logger.Logger, startDir string, libraryRoots []string) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return
	}

	for {
		if isLibraryRoot(log, currentDir, libraryRoots) {
			return
		}

		entries, err := os.ReadDir(currentDir)
		if err != nil {
			log.Warn("cannot read directory, stopping cleanup", logger.Data{"dir": currentDir})
			return
		}

		if !hasOnlyIgnoredFiles(entries) {
			return
		}

		for _, entry := range entries {
			path := filepath.Join(currentDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Warn("failed to delete ignored file", logger.Data{"path": path})
			}
		}
		if err := os.Remove(currentDir); err != nil {
			log.Warn("failed to delete directory", logger.Data{"dir": currentDir})
			return
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return
		}
		currentDir = parent
	}
}

func isLibraryRoot(log logger.Logger, dir string, libraryRoots []string) bool {
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return false
	}

	for _, root := range libraryRoots {
		rootInfo, err := os.Stat(root)
		if err != nil {
			log.Warn("failed to compare paths", logger.Data{"root": root, "dir": dir})
			continue
		}
		if os.SameFile(rootInfo, dirInfo) {
			return true
		}
	}
	return false
}

func hasOnlyIgnoredFiles(entries []os.DirEntry) bool {
	for _, entry := range entries {
		if !ignoredFilenames[entry.Name()] {
			return false
		}
	}
	return true
}
