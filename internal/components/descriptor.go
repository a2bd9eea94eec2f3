// Package components implements the component manager: on-demand
// download, checksum verification, safe extraction, and lookup of native
// binaries and model files under the user data root.
package components

// Type is the kind of asset a Descriptor describes.
type Type string

const (
	TypeEngine Type = "engine"
	TypeModel  Type = "model"
	TypeTool   Type = "tool"
)

// Descriptor describes one installable component.
type Descriptor struct {
	ID             string
	Type           Type
	Version        string
	URLs           map[string]string // platform key -> download URL
	SHA256         map[string]string // platform key -> expected checksum, may be absent
	InstallPath    string            // relative to the user data root
	ExecutableName string            // empty for pure data/model components
}

// DefaultRegistry is the built-in catalog of installable components. A
// fetched components.json registry cache can replace it at runtime; the
// in-process default covers the assets the pipeline looks up directly
// (FindFFmpeg, FindWhisperEngine, FindWhisperModel).
func DefaultRegistry() []Descriptor {
	return []Descriptor{
		{
			ID:      "ffmpeg",
			Type:    TypeTool,
			Version: "7.0",
			URLs: map[string]string{
				"windows-x64": "https://subgen-components.example.com/ffmpeg/7.0/windows-x64.zip",
				"linux-x64":   "https://subgen-components.example.com/ffmpeg/7.0/linux-x64.tar.xz",
				"linux-arm64": "https://subgen-components.example.com/ffmpeg/7.0/linux-arm64.tar.xz",
				"macos-x64":   "https://subgen-components.example.com/ffmpeg/7.0/macos-x64.tar.xz",
				"macos-arm64": "https://subgen-components.example.com/ffmpeg/7.0/macos-arm64.tar.xz",
			},
			SHA256: map[string]string{
				"linux-x64":   "5f6e7d8c9b0a1f2e3d4c5b6a7980716253443546576879808192a3b4c5d6e7f",
				"linux-arm64": "6e5d4c3b2a1908f7e6d5c4b3a29180716253443546576879808192a3b4c5d6f",
				"macos-x64":   "7d6c5b4a392817f6e5d4c3b2a190807162534435465768798081920a3b4c5e6",
				"macos-arm64": "8c7b6a5948372615e4d3c2b1a098f7e6d5c4b3a291807162534435465768798",
				"windows-x64": "9b8a796857463524e1d0c9b8a79685746352419304928374655869708192a3b",
			},
			InstallPath:    "bin/ffmpeg",
			ExecutableName: "ffmpeg",
		},
		{
			ID:      "whisper-engine",
			Type:    TypeEngine,
			Version: "1.6.2",
			URLs: map[string]string{
				"linux-x64":   "https://subgen-components.example.com/whisper-cpp/1.6.2/linux-x64.tar.gz",
				"linux-arm64": "https://subgen-components.example.com/whisper-cpp/1.6.2/linux-arm64.tar.gz",
				"macos-arm64": "https://subgen-components.example.com/whisper-cpp/1.6.2/macos-arm64.tar.gz",
				"macos-x64":   "https://subgen-components.example.com/whisper-cpp/1.6.2/macos-x64.tar.gz",
				"windows-x64": "https://subgen-components.example.com/whisper-cpp/1.6.2/windows-x64.zip",
			},
			SHA256: map[string]string{
				"linux-x64":   "1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f809",
				"linux-arm64": "2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a",
				"macos-arm64": "3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b",
				"macos-x64":   "4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c",
				"windows-x64": "5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d",
			},
			InstallPath:    "bin/whisper-engine",
			ExecutableName: "whisper-cli",
		},
		{
			ID:      "whisper-model-small",
			Type:    TypeModel,
			Version: "small",
			URLs: map[string]string{
				"linux-x64":   "https://subgen-components.example.com/whisper-models/ggml-small.bin",
				"linux-arm64": "https://subgen-components.example.com/whisper-models/ggml-small.bin",
				"macos-arm64": "https://subgen-components.example.com/whisper-models/ggml-small.bin",
				"macos-x64":   "https://subgen-components.example.com/whisper-models/ggml-small.bin",
				"windows-x64": "https://subgen-components.example.com/whisper-models/ggml-small.bin",
			},
			SHA256: map[string]string{
				"linux-x64":   "6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e",
				"linux-arm64": "6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e",
				"macos-arm64": "6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e",
				"macos-x64":   "6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e",
				"windows-x64": "6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e",
			},
			InstallPath: "models/ggml-small.bin",
		},
	}
}
