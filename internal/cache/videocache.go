package cache

import (
	"encoding/json"
	"os"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

// VideoCachePath returns the video-adjacent cache path for videoPath:
// `<video>.subgen-cache.json`.
func VideoCachePath(videoPath string) string {
	return videoPath + ".subgen-cache.json"
}

// entry is the on-disk shape of the video-adjacent transcription cache.
// Entries are immutable after write.
type entry struct {
	SchemaVersion int                `json:"schema_version"`
	Fingerprint   string             `json:"fingerprint"`
	SourceLang    string             `json:"source_lang"`
	Segments      []subtitle.Segment `json:"segments"`
}

// VideoCache is the primary transcription cache: one JSON file next to
// the source video, atomic writes, write once per fingerprint.
type VideoCache struct {
	path  string
	locks *keyedLock
}

// NewVideoCache opens the cache for videoPath. The file is created lazily
// on first write; a missing file is not an error.
func NewVideoCache(videoPath string) *VideoCache {
	return &VideoCache{path: VideoCachePath(videoPath), locks: newKeyedLock()}
}

// Get looks up fp. ok is false on a cache miss. A schema version other
// than the one this build understands surfaces subgenerr.IncompatibleCache
// rather than silently misreading the record.
func (c *VideoCache) Get(fp Fingerprint) (segments []subtitle.Segment, sourceLang string, ok bool, err error) {
	data, readErr := os.ReadFile(c.path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, "", false, nil
		}
		return nil, "", false, subgenerr.IO(c.path, readErr)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, "", false, subgenerr.BadConfig(c.path, err)
	}
	if e.SchemaVersion != schemaVersion {
		return nil, "", false, subgenerr.IncompatibleCache(e.SchemaVersion)
	}
	if e.Fingerprint != fp.Hash() {
		return nil, "", false, nil
	}
	return e.Segments, e.SourceLang, true, nil
}

// Put writes the cache entry for fp atomically (temp file + rename).
// Writes are serialized per-fingerprint via the keyed lock so at most
// one build per fingerprint is ever in flight. Because entries are
// write-once, Put is a no-op if an entry for fp already exists.
func (c *VideoCache) Put(fp Fingerprint, segments []subtitle.Segment, sourceLang string) error {
	return c.locks.With(fp.Hash(), func() error {
		if _, _, ok, err := c.Get(fp); err != nil {
			return err
		} else if ok {
			return nil
		}

		e := entry{
			SchemaVersion: schemaVersion,
			Fingerprint:   fp.Hash(),
			SourceLang:    sourceLang,
			Segments:      segments,
		}
		data, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return subgenerr.IO(c.path, err)
		}
		return fsutil.AtomicWrite(c.path, data, 0o644)
	})
}

// Invalidate deletes the cache file, the only way an entry is evicted
// (`--force-transcribe`).
func (c *VideoCache) Invalidate() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return subgenerr.IO(c.path, err)
	}
	return nil
}
