package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

func TestCanonicalPlatformKeyKnown(t *testing.T) {
	key, err := CanonicalPlatformKey("linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "linux-x64", key)

	key, err = CanonicalPlatformKey("darwin", "arm64")
	require.NoError(t, err)
	assert.Equal(t, "macos-arm64", key)
}

func TestCanonicalPlatformKeyUnknown(t *testing.T) {
	_, err := CanonicalPlatformKey("plan9", "386")
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindUnsupportedPlatform))
}
