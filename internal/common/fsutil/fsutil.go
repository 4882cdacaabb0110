package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrIOLimitReached is returned when a reader yields more bytes than allowed.
var ErrIOLimitReached = errors.New("read size limit reached")

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/.cache/asrd
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// RemoveIfExists removes path when present. A file that vanished between the
// existence check and the removal is not an error.
func RemoveIfExists(path string) error {
	if path == "" || !PathExists(path) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ReadAllLimit reads r to EOF. When limit > 0 and r holds more than limit
// bytes, the first limit bytes are returned together with ErrIOLimitReached.
func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	buf, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return buf, err
	}
	if int64(len(buf)) > limit {
		return buf[:limit], ErrIOLimitReached
	}
	return buf, nil
}
