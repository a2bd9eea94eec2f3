package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

func TestVideoCacheMissThenHit(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	vc := NewVideoCache(video)
	fp := Fingerprint{AudioHash: "abc", ProviderID: "cloud-api", ModelID: "whisper-1", ForcedLang: ""}

	_, _, ok, err := vc.Get(fp)
	require.NoError(t, err)
	assert.False(t, ok)

	segs := []subtitle.Segment{{StartSec: 0, EndSec: 1, Text: "hi"}}
	require.NoError(t, vc.Put(fp, segs, "es"))

	got, lang, ok, err := vc.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "es", lang)
	assert.Equal(t, segs, got)
}

func TestVideoCacheWriteOnceIgnoresSecondPut(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	vc := NewVideoCache(video)
	fp := Fingerprint{AudioHash: "abc", ProviderID: "cloud-api", ModelID: "whisper-1"}

	require.NoError(t, vc.Put(fp, []subtitle.Segment{{Text: "first"}}, "es"))
	require.NoError(t, vc.Put(fp, []subtitle.Segment{{Text: "second"}}, "fr"))

	_, lang, ok, err := vc.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "es", lang) // first write wins, write-once semantics
}

func TestVideoCacheInvalidate(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	vc := NewVideoCache(video)
	fp := Fingerprint{AudioHash: "abc"}
	require.NoError(t, vc.Put(fp, []subtitle.Segment{{Text: "hi"}}, "en"))
	require.NoError(t, vc.Invalidate())

	_, _, ok, err := vc.Get(fp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintDiffersOnForcedLang(t *testing.T) {
	a := Fingerprint{AudioHash: "x", ForcedLang: "en"}
	b := Fingerprint{AudioHash: "x", ForcedLang: "fr"}
	assert.NotEqual(t, a.Hash(), b.Hash())
}
