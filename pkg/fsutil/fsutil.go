// Package fsutil holds the small filesystem primitives shared by the
// cache store and component manager: atomic byte writes,
// path-containment checks, and secure temp-directory creation. This
// package is the single place that owns them, so no caller hand-rolls
// its own copy.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// AtomicWrite writes data to path via a sibling temp file plus rename,
// so a reader never observes a partially written file. The parent
// directory must already exist.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return subgenerr.IO(path, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return subgenerr.IO(path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return subgenerr.IO(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return subgenerr.IO(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return subgenerr.IO(path, err)
	}
	return nil
}

// WithinRoot reports whether rel, once joined with root and normalized,
// still resolves inside root. Used by archive extraction to reject any
// path that escapes via ".." components or an absolute prefix.
func WithinRoot(root, rel string) (string, bool) {
	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, rel)
	if joined == cleanRoot {
		return joined, true
	}
	if !strings.HasPrefix(joined, cleanRoot+string(os.PathSeparator)) {
		return "", false
	}
	return joined, true
}

// PathEscapesRoot reports whether an absolute path escapes root, the
// check component uninstall runs before deleting a recorded install
// path: a record pointing outside the user data root must never be
// removed, only reported.
func PathEscapesRoot(root, absPath string) bool {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(absPath)
	return cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, cleanRoot+string(os.PathSeparator))
}

// SecureTempDir creates a 0700 directory with a random suffix under the
// system temp root, never by constructing a name that merely "doesn't
// exist yet".
func SecureTempDir(prefix string) (string, error) {
	dir := filepath.Join(os.TempDir(), prefix+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", subgenerr.IO(dir, err)
	}
	return dir, nil
}
