package components

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

// InstalledRecord is one entry of installed.json.
type InstalledRecord struct {
	Version      string    `json:"version"`
	AbsolutePath string    `json:"absolute_path"`
	InstalledAt  time.Time `json:"installed_at"`
	SizeBytes    int64     `json:"size_bytes"`
}

// InstalledState is the full installed.json document: component id ->
// record.
type InstalledState map[string]InstalledRecord

func installedStatePath(dataRoot string) string {
	return filepath.Join(dataRoot, "installed.json")
}

// loadInstalledState reads installed.json, treating a missing file as an
// empty state.
func loadInstalledState(dataRoot string) (InstalledState, error) {
	path := installedStatePath(dataRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return InstalledState{}, nil
		}
		return nil, subgenerr.IO(path, err)
	}
	var state InstalledState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, subgenerr.BadConfig(path, err)
	}
	if state == nil {
		state = InstalledState{}
	}
	return state, nil
}

// saveInstalledState writes installed.json atomically (temp file +
// rename).
func saveInstalledState(dataRoot string, state InstalledState) error {
	path := installedStatePath(dataRoot)
	if err := os.MkdirAll(dataRoot, 0o700); err != nil {
		return subgenerr.IO(dataRoot, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return subgenerr.IO(path, err)
	}
	return fsutil.AtomicWrite(path, data, 0o644)
}
