package fileutils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MoveFile moves a file from src to dst, creating intermediate directories
// and overwriting any pre-existing file at dst. It tries a rename first and
// falls back to copy + delete when src and dst are on different filesystems.
func MoveFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WithStack(err)
		}
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}

	// Remove the source file only after successful copy.
	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return errors.WithStack(err)
	}

	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return errors.WithStack(err)
	}

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(destFile.Chmod(sourceInfo.Mode()))
}

// FileSizeKB returns the size of the file at path in kilobytes.
func FileSizeKB(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size() / 1024, nil
}

// ExtractSubPath returns the directory of filePath relative to libraryRoot,
// normalized to forward slashes. A file directly under the root yields "".
func ExtractSubPath(filePath, libraryRoot string) (string, error) {
	absRoot, err := filepath.Abs(libraryRoot)
	if err != nil {
		return "", errors.WithStack(err)
	}
	absParent, err := filepath.Abs(filepath.Dir(filePath))
	if err != nil {
		return "", errors.WithStack(err)
	}

	rel, err := filepath.Rel(absRoot, absParent)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// Truncate cuts s down to at most maxLen bytes. Vocabulary names are capped
// this way before hitting the unique name columns.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
