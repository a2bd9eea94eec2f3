// Package transcribe implements the two recognizer adapters behind one
// interface: a cloud transcription API client and a local binary
// wrapper.
package transcribe

import (
	"context"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

// Options configures a single transcription call.
type Options struct {
	Model      string
	ForcedLang string // empty = auto-detect
	TimeoutSec int    // default 900s
}

// Result is a recognizer's normalized output.
type Result struct {
	Segments         []subtitle.Segment
	DetectedLanguage string
}

// Recognizer is the uniform adapter interface both backends implement;
// the concrete variant is chosen by configuration at construction.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
	Name() string
}
