package components

import "github.com/lsilvatti/subgen/internal/subgenerr"

// CanonicalPlatformKey maps a Go (GOOS, GOARCH) pair to the registry's
// canonical platform key. Unrecognized pairs return a
// typed unsupported-platform error rather than silently falling back to
// the wrong platform.
func CanonicalPlatformKey(goos, goarch string) (string, error) {
	switch goos {
	case "windows":
		if goarch == "amd64" {
			return "windows-x64", nil
		}
	case "linux":
		switch goarch {
		case "amd64":
			return "linux-x64", nil
		case "arm64":
			return "linux-arm64", nil
		}
	case "darwin":
		switch goarch {
		case "amd64":
			return "macos-x64", nil
		case "arm64":
			return "macos-arm64", nil
		}
	}
	return "", subgenerr.UnsupportedPlatform(goos, goarch)
}
