package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/pkg/fsutil"
)

// BinaryAdapter spawns an external speech-recognition binary (e.g. a
// whisper.cpp CLI) that writes JSON output to a file under a private
// temp directory.
type BinaryAdapter struct {
	BinaryPath string
}

func NewBinaryAdapter(binaryPath string) *BinaryAdapter {
	return &BinaryAdapter{BinaryPath: binaryPath}
}

func (b *BinaryAdapter) Name() string { return "cpp-binary" }

func (b *BinaryAdapter) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	tmpDir, err := fsutil.SecureTempDir("subgen")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	outputPath := filepath.Join(tmpDir, "output.json")

	timeout := time.Duration(opts.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 900 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--output-json", "--output-file", outputPath, "--file", audioPath}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.ForcedLang != "" {
		args = append(args, "--language", opts.ForcedLang)
	}

	cmd := exec.CommandContext(ctx, b.BinaryPath, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("binary recognizer: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("binary recognizer: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, subgenerr.TranscriptionFailed("failed to start recognizer binary", err)
	}

	// Drain stdout and stderr concurrently: reading them sequentially can
	// deadlock once either pipe's buffer fills.
	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); io.Copy(&stdout, stdoutPipe) }()
	go func() { defer wg.Done(); io.Copy(&stderr, stderrPipe) }()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return Result{}, subgenerr.TranscriptionFailed(
			fmt.Sprintf("recognizer binary exited with error: %s", firstLine(stderr.String())), err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return Result{}, subgenerr.BadTranscriptionOutput("recognizer did not produce output file", err)
	}

	var parsed cloudResponse // binary adapters emit the same shape as the cloud response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, subgenerr.BadTranscriptionOutput("malformed recognizer JSON output", err)
	}

	segs, err := normalizeCloudSegments(parsed.Segments)
	if err != nil {
		return Result{}, err
	}
	return Result{Segments: segs, DetectedLanguage: parsed.Language}, nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
