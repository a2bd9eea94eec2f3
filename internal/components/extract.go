package components

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

// entryName extracts the archive-relative name from an archiver.File,
// independent of the underlying zip/tar header shape.
func entryName(f archiver.File) (string, error) {
	switch hdr := f.Header.(type) {
	case zip.FileHeader:
		return hdr.Name, nil
	case *zip.FileHeader:
		return hdr.Name, nil
	case tar.Header:
		return hdr.Name, nil
	case *tar.Header:
		return hdr.Name, nil
	default:
		return f.Name(), nil
	}
}

// extractArchive unpacks archivePath into installPath, rejecting any
// entry whose normalized destination escapes installPath, any symlink,
// and any non-regular file type. It returns subgenerr.UnsafeArchive on
// the first unsafe entry and writes no further files.
func extractArchive(archivePath, installPath string) error {
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return subgenerr.IO(installPath, err)
	}

	// archiver.Walk re-wraps callback errors with fmt.Errorf("walking %s: %v", ...),
	// which loses the *subgenerr.Error type via %v. Capture the original error so
	// callers can still inspect its Kind after Walk returns.
	var firstErr error
	fail := func(err error) error {
		firstErr = err
		return err
	}
	walkErr := archiver.Walk(archivePath, func(f archiver.File) error {
		defer f.Close()

		name, err := entryName(f)
		if err != nil {
			return fail(err)
		}
		name = filepath.Clean(name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") || strings.Contains(name, string(os.PathSeparator)+"..") {
			return fail(subgenerr.UnsafeArchive(name))
		}

		dest, ok := fsutil.WithinRoot(installPath, name)
		if !ok {
			return fail(subgenerr.UnsafeArchive(name))
		}

		if f.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		if f.Mode()&os.ModeSymlink != 0 {
			// Symlinks are rejected outright: validating the link target
			// would require re-resolving it against dest, and archive
			// formats do not guarantee targets are written before links
			// that point at them.
			return fail(subgenerr.UnsafeArchive(name))
		}

		if !f.Mode().IsRegular() {
			return fail(subgenerr.UnsafeArchive(name))
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fail(subgenerr.IO(dest, err))
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm())
		if err != nil {
			return fail(subgenerr.IO(dest, err))
		}
		defer out.Close()

		if _, err := io.Copy(out, f); err != nil {
			return fail(fmt.Errorf("extract %s: %w", name, err))
		}
		return nil
	})
	if firstErr != nil {
		return firstErr
	}
	return walkErr
}
