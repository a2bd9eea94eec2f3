// Package cache implements the two persistence stores the pipeline
// consults: the write-once, fingerprint-keyed transcription cache kept
// next to each video, and the shared SQLite translation cache with its
// exact and optional fuzzy lookup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// schemaVersion is bumped whenever the on-disk schema changes shape. Reads
// against foreign schema versions fail with subgenerr.IncompatibleCache
// rather than crash on a shape mismatch.
const schemaVersion = 1

// Fingerprint is the cache key for a transcription: a stable hash of the
// audio bytes, the recognizer provider id, the recognizer model id, and
// the forced language.
type Fingerprint struct {
	AudioHash  string
	ProviderID string
	ModelID    string
	ForcedLang string
}

// Hash collapses the fingerprint fields into the hex string stored as the
// primary key.
func (f Fingerprint) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", f.AudioHash, f.ProviderID, f.ModelID, f.ForcedLang)
	return hex.EncodeToString(h.Sum(nil))
}

// HashAudio computes the stable content hash of raw audio bytes used to
// build a Fingerprint.
func HashAudio(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashText builds the translation cache's exact-match lookup key.
func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
