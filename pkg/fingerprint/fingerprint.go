package fingerprint

import (
	"crypto/md5" //nolint:gosec // content identity, not security
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// File computes the MD5 content hash of the file at path, streaming so large
// archives never load fully into memory. The hash is returned as a lowercase
// hex string.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader computes the MD5 content hash of everything remaining in r.
func Reader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec // content identity, not security
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
