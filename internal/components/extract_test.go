package components

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtractArchiveRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{"../../etc/shadow": "malicious"})

	installPath := filepath.Join(dir, "install")
	err := extractArchive(archivePath, installPath)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindUnsafeArchive))

	_, statErr := os.Stat(filepath.Join(dir, "etc", "shadow"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractArchiveWritesSafeEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "good.zip")
	writeZip(t, archivePath, map[string]string{"bin/tool": "binary contents"})

	installPath := filepath.Join(dir, "install")
	require.NoError(t, extractArchive(archivePath, installPath))

	data, err := os.ReadFile(filepath.Join(installPath, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "binary contents", string(data))
}

func TestSafePathRejectsEscape(t *testing.T) {
	_, ok := fsutil.WithinRoot("/data/install", "../../etc/passwd")
	assert.False(t, ok)
}

func TestSafePathAllowsNested(t *testing.T) {
	p, ok := fsutil.WithinRoot("/data/install", "bin/tool")
	assert.True(t, ok)
	assert.Equal(t, "/data/install/bin/tool", p)
}
