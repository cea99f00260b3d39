//go:build unix

package security

import (
	"path/filepath"
	"syscall"
	"testing"
)

// CreateFIFO creates a named pipe nobody writes to. Opening it for
// reading blocks forever.
func CreateFIFO(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "pipe.txt")
	if err := syscall.Mkfifo(path, 0644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}
	return path
}
