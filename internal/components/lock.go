package components

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// dataRootLock is a simple advisory exclusive lock implemented with
// O_EXCL file creation. It guards installed.json for the duration of
// install/uninstall so concurrent invocations cannot corrupt it.
type dataRootLock struct {
	path string
}

func newDataRootLock(dataRoot string) *dataRootLock {
	return &dataRootLock{path: filepath.Join(dataRoot, ".installed.lock")}
}

// acquire blocks (with polling) until the lock file can be created
// exclusively, or timeout elapses.
func (l *dataRootLock) acquire(timeout time.Duration) (func(), error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			f.Close()
			return func() { os.Remove(l.path) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock at %s", l.path)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
