// Package fileutil holds small file helpers shared by the ledger and CLI.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest streams path through SHA-256 and returns the hex digest and the
// number of bytes read. A size change while reading is reported as an error.
func Digest(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("%s is a directory", path)
	}

	in, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	hasher := sha256.New()
	read, err := io.Copy(hasher, in)
	if err != nil {
		return "", 0, err
	}
	if read != info.Size() {
		return "", 0, fmt.Errorf("digest size mismatch: stat %d bytes, read %d bytes", info.Size(), read)
	}
	return hex.EncodeToString(hasher.Sum(nil)), read, nil
}
