package components

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

// Manager locates, downloads, verifies, and uninstalls components under
// a user data root, keeping the available-component registry separate
// from the installed.json state it records.
type Manager struct {
	dataRoot string
	registry []Descriptor
	http     *http.Client
	platform string // canonical platform key, resolved once at construction
}

// NewManager builds a Manager rooted at dataRoot using the default
// registry. A non-nil error only occurs if the running platform is not
// one of the canonical keys.
func NewManager(dataRoot string) (*Manager, error) {
	key, err := CanonicalPlatformKey(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, err
	}
	return &Manager{
		dataRoot: dataRoot,
		registry: DefaultRegistry(),
		http:     &http.Client{},
		platform: key,
	}, nil
}

// ListAvailable returns every component in the registry.
func (m *Manager) ListAvailable() []Descriptor { return m.registry }

// ListInstalled returns the recorded installed components.
func (m *Manager) ListInstalled() (InstalledState, error) {
	return loadInstalledState(m.dataRoot)
}

// IsInstalled reports whether id has a recorded install.
func (m *Manager) IsInstalled(id string) (bool, error) {
	state, err := loadInstalledState(m.dataRoot)
	if err != nil {
		return false, err
	}
	_, ok := state[id]
	return ok, nil
}

// GetPath returns the absolute install path for id, or a typed
// missing-component error naming the install command.
func (m *Manager) GetPath(id string) (string, error) {
	state, err := loadInstalledState(m.dataRoot)
	if err != nil {
		return "", err
	}
	rec, ok := state[id]
	if !ok {
		return "", subgenerr.MissingComponent(id, id)
	}
	return rec.AbsolutePath, nil
}

func (m *Manager) lookup(id string) (Descriptor, error) {
	for _, d := range m.registry {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, subgenerr.BadInput(fmt.Sprintf("unknown component %q", id), nil)
}

// Install downloads, verifies, extracts, and records component id,
// reporting cumulative byte progress. Installing an already-installed
// component is a no-op that returns its existing path.
func (m *Manager) Install(ctx context.Context, id string, onProgress ProgressFunc) (string, error) {
	if installed, err := m.IsInstalled(id); err != nil {
		return "", err
	} else if installed {
		return m.GetPath(id)
	}

	desc, err := m.lookup(id)
	if err != nil {
		return "", err
	}

	url, ok := desc.URLs[m.platform]
	if !ok {
		return "", subgenerr.UnsupportedPlatform(runtime.GOOS, runtime.GOARCH)
	}
	checksum := desc.SHA256[m.platform]
	if checksum == "" {
		return "", subgenerr.MissingIntegrity(id)
	}

	tmpDir := filepath.Join(m.dataRoot, "tmp")
	tmpPath, err := download(ctx, m.http, url, tmpDir, "", onProgress)
	if err != nil {
		return "", fmt.Errorf("install %s: %w", id, err)
	}
	defer os.Remove(tmpPath)

	actual, err := sha256File(tmpPath)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(actual, checksum) {
		return "", subgenerr.MissingIntegrity(id)
	}

	installPath := filepath.Join(m.dataRoot, desc.InstallPath)

	lock := newDataRootLock(m.dataRoot)
	release, err := lock.acquire(30 * time.Second)
	if err != nil {
		return "", fmt.Errorf("install %s: %w", id, err)
	}
	defer release()

	var absPath string
	var size int64
	if isArchive(url) {
		if err := extractArchive(tmpPath, installPath); err != nil {
			return "", err
		}
		absPath = installPath
		if desc.ExecutableName != "" {
			absPath = filepath.Join(installPath, desc.ExecutableName)
		}
		size = dirSize(installPath)
	} else {
		if err := os.MkdirAll(filepath.Dir(installPath), 0o755); err != nil {
			return "", subgenerr.IO(installPath, err)
		}
		if err := moveFile(tmpPath, installPath); err != nil {
			return "", err
		}
		absPath = installPath
		if info, statErr := os.Stat(installPath); statErr == nil {
			size = info.Size()
		}
	}

	state, err := loadInstalledState(m.dataRoot)
	if err != nil {
		return "", err
	}
	state[id] = InstalledRecord{
		Version:      desc.Version,
		AbsolutePath: absPath,
		InstalledAt:  time.Now(),
		SizeBytes:    size,
	}
	if err := saveInstalledState(m.dataRoot, state); err != nil {
		return "", err
	}
	return absPath, nil
}

// Uninstall removes a component's files and installed.json entry. Before
// deleting, it asserts the recorded path resolves inside the data root
// and refuses otherwise.
func (m *Manager) Uninstall(id string) error {
	lock := newDataRootLock(m.dataRoot)
	release, err := lock.acquire(30 * time.Second)
	if err != nil {
		return err
	}
	defer release()

	state, err := loadInstalledState(m.dataRoot)
	if err != nil {
		return err
	}
	rec, ok := state[id]
	if !ok {
		return subgenerr.MissingComponent(id, id)
	}

	if fsutil.PathEscapesRoot(m.dataRoot, rec.AbsolutePath) {
		return subgenerr.BadInput(fmt.Sprintf("installed path for %q escapes the data root, refusing to remove", id), nil)
	}

	if err := os.RemoveAll(rec.AbsolutePath); err != nil {
		return subgenerr.IO(rec.AbsolutePath, err)
	}
	delete(state, id)
	return saveInstalledState(m.dataRoot, state)
}

// Update reinstalls id at its current registry version.
func (m *Manager) Update(ctx context.Context, id string, onProgress ProgressFunc) (string, error) {
	if err := m.Uninstall(id); err != nil && !subgenerr.Is(err, subgenerr.KindMissingComponent) {
		return "", err
	}
	return m.Install(ctx, id, onProgress)
}

// FindFFmpeg returns the installed ffmpeg path.
func (m *Manager) FindFFmpeg() (string, error) { return m.GetPath("ffmpeg") }

// FindWhisperEngine returns the installed whisper recognizer binary path.
func (m *Manager) FindWhisperEngine() (string, error) { return m.GetPath("whisper-engine") }

// FindWhisperModel returns the installed model path for name.
func (m *Manager) FindWhisperModel(name string) (string, error) {
	return m.GetPath("whisper-model-" + name)
}

func isArchive(url string) bool {
	for _, ext := range []string{".zip", ".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".tar"} {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}
	return false
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Cross-device rename falls back to copy+remove.
	in, err := os.Open(src)
	if err != nil {
		return subgenerr.IO(src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return subgenerr.IO(dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return subgenerr.IO(dst, err)
	}
	return os.Remove(src)
}

func dirSize(root string) int64 {
	var total int64
	filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
