package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle/encode"
)

// defaultFFmpegTimeoutSec bounds any ffmpeg invocation that has no
// configured timeout, mirroring the recognizer's own fallback timeout
// convention.
const defaultFFmpegTimeoutSec = 900

func runFFmpeg(ctx context.Context, binary string, timeoutSec int, args ...string) error {
	if timeoutSec <= 0 {
		timeoutSec = defaultFFmpegTimeoutSec
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return subgenerr.IO(binary, fmt.Errorf("%s: %w", firstLines(out, 10), err))
	}
	return nil
}

func firstLines(out []byte, n int) string {
	lines := 0
	for i, b := range out {
		if b == '\n' {
			lines++
			if lines >= n {
				return string(out[:i])
			}
		}
	}
	if len(out) > 2000 {
		return string(out[:2000])
	}
	return string(out)
}

// runFFmpegExtractAudio pulls a mono 16kHz PCM WAV track out of a video
// container, the format whisper-family recognizers expect.
func runFFmpegExtractAudio(ctx context.Context, ffmpeg, videoPath, audioPath string, timeoutSec int) error {
	return runFFmpeg(ctx, ffmpeg, timeoutSec,
		"-y", "-i", videoPath, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", audioPath)
}

// runFFmpegSoftMux copies the video and audio streams unmodified and adds
// subPath as a new, selectable subtitle track (ModeSoft).
func runFFmpegSoftMux(ctx context.Context, ffmpeg, videoPath, subPath, outPath string, timeoutSec int) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return subgenerr.IO(outPath, err)
	}
	subCodec := "mov_text"
	if filepath.Ext(outPath) == ".mkv" {
		subCodec = "srt"
	}
	return runFFmpeg(ctx, ffmpeg, timeoutSec,
		"-y", "-i", videoPath, "-i", subPath,
		"-map", "0", "-map", "1",
		"-c", "copy", "-c:s", subCodec,
		outPath)
}

// runFFmpegHardBurn re-encodes the video with subtitles composited into
// the picture (ModeHard), using the libavfilter
// subtitles filter with the path escaped for the filter-graph parser.
func runFFmpegHardBurn(ctx context.Context, ffmpeg, videoPath, subPath, outPath string, timeoutSec int) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return subgenerr.IO(outPath, err)
	}
	filter := "subtitles=" + encode.EscapeFilterPath(subPath)
	return runFFmpeg(ctx, ffmpeg, timeoutSec,
		"-y", "-i", videoPath, "-vf", filter, "-c:a", "copy", outPath)
}
