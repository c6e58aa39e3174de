package platform

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// TempSuffix is appended to in-flight downloads; a crash mid-write leaves a
// .tmp sibling, never a half-written file at the final path.
const TempSuffix = ".tmp"

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// AtomicWrite streams r to path via a temporary sibling file and a rename.
// On any failure the temporary file is removed and the final path is left
// untouched. Returns the number of bytes written.
func AtomicWrite(path string, r io.Reader) (int64, error) {
	tmpPath := path + TempSuffix

	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return written, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return written, err
	}
	return written, nil
}

// IsNameTooLong reports whether err came from a file name exceeding the
// filesystem limit.
func IsNameTooLong(err error) bool {
	return errors.Is(err, syscall.ENAMETOOLONG)
}

// ExpandHome resolves a leading ~ to the user home directory.
func ExpandHome(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
