package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/config"
	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle"
	"github.com/lsilvatti/subgen/internal/subtitle/encode"
	"github.com/lsilvatti/subgen/internal/transcribe"
)

func sampleSegments() []subtitle.Segment {
	return []subtitle.Segment{
		{
			StartSec: 0, EndSec: 1, Text: "Hello.",
			Words: []subtitle.Word{{Text: "Hello.", StartSec: 0, EndSec: 1}},
		},
		{
			StartSec: 1.2, EndSec: 2, Text: "World.",
			Words: []subtitle.Word{{Text: "World.", StartSec: 1.2, EndSec: 2}},
		},
	}
}

func newTestAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, []byte("fake pcm audio"), 0o644))
	return path
}

func TestTranscribeCacheMissRunsRecognizerAndWritesCache(t *testing.T) {
	audioPath := newTestAudioFile(t)
	t.Cleanup(func() { os.Remove(audioPath + ".subgen-cache.json") })

	recognizer := &transcribe.FakeRecognizer{
		NameV: "fake-whisper",
		Result: transcribe.Result{
			Segments:         sampleSegments(),
			DetectedLanguage: "en",
		},
	}

	engine := &Engine{Recognizer: recognizer, Config: config.Default()}

	proj, err := engine.Transcribe(context.Background(), audioPath, config.RunOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, proj.State.IsTranscribed)
	assert.Equal(t, "en", proj.Metadata.SourceLang)
	assert.Equal(t, "transcribed", proj.Metadata.SourceFrom)
	assert.Len(t, proj.Segments, 2)

	_, statErr := os.Stat(audioPath + ".subgen-cache.json")
	assert.NoError(t, statErr, "transcription should be cached next to the audio file")
}

func TestTranscribeCacheHitRereadsSourceLang(t *testing.T) {
	// A cache hit must re-read source_lang from the cached entry rather
	// than trusting stale state.
	audioPath := newTestAudioFile(t)
	t.Cleanup(func() { os.Remove(audioPath + ".subgen-cache.json") })

	recognizer := &transcribe.FakeRecognizer{
		NameV: "fake-whisper",
		Result: transcribe.Result{
			Segments:         sampleSegments(),
			DetectedLanguage: "ja",
		},
	}
	engine := &Engine{Recognizer: recognizer, Config: config.Default()}

	first, err := engine.Transcribe(context.Background(), audioPath, config.RunOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ja", first.Metadata.SourceLang)

	// A second recognizer that would detect a different language must
	// never be consulted: the cache entry wins and source_lang comes from it.
	recognizer.Result.DetectedLanguage = "en"
	second, err := engine.Transcribe(context.Background(), audioPath, config.RunOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ja", second.Metadata.SourceLang)
	assert.Equal(t, "cache", second.Metadata.SourceFrom)
}

func TestTranscribeForceFlagInvalidatesCache(t *testing.T) {
	audioPath := newTestAudioFile(t)
	t.Cleanup(func() { os.Remove(audioPath + ".subgen-cache.json") })

	recognizer := &transcribe.FakeRecognizer{
		NameV:  "fake-whisper",
		Result: transcribe.Result{Segments: sampleSegments(), DetectedLanguage: "ja"},
	}
	engine := &Engine{Recognizer: recognizer, Config: config.Default()}

	_, err := engine.Transcribe(context.Background(), audioPath, config.RunOptions{}, nil)
	require.NoError(t, err)

	recognizer.Result.DetectedLanguage = "en"
	proj, err := engine.Transcribe(context.Background(), audioPath, config.RunOptions{ForceTranscribe: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "en", proj.Metadata.SourceLang)
	assert.Equal(t, "transcribed", proj.Metadata.SourceFrom)
}

func TestTranslateGroupsAndRedistributesSegments(t *testing.T) {
	proj := &subtitle.Project{
		Segments: sampleSegments(),
		Metadata: subtitle.Metadata{SourceLang: "en"},
	}
	client := &llm.FakeClient{NameV: "fake", ModelV: "fake-model", Responses: []string{"1: Bonjour.\n2: Monde.\n"}}
	engine := &Engine{LLMClient: client, Config: config.Default()}

	out, err := engine.Translate(context.Background(), proj, config.RunOptions{ToLang: "fr"}, nil)
	require.NoError(t, err)
	assert.True(t, out.State.IsTranslated)
	assert.Equal(t, "fr", out.Metadata.TargetLang)
	assert.Equal(t, "fake", out.Metadata.LLMProvider)
	require.Len(t, out.Segments, 2)
	assert.Equal(t, "Bonjour.", out.Segments[0].Translated)
	assert.Equal(t, "Monde.", out.Segments[1].Translated)
}

func TestRunThreeSegmentClipEnglishToChinese(t *testing.T) {
	// Scenario E1: "Hello." closes the first group on terminal
	// punctuation; "How are" + "you?" form the second. The fake LLM
	// answers each group in a separate reply, exercising the tail retry.
	audioPath := newTestAudioFile(t)
	t.Cleanup(func() { os.Remove(audioPath + ".subgen-cache.json") })

	recognizer := &transcribe.FakeRecognizer{
		NameV: "fake-whisper",
		Result: transcribe.Result{
			Segments: []subtitle.Segment{
				{StartSec: 0, EndSec: 1.2, Text: "Hello."},
				{StartSec: 1.3, EndSec: 2.4, Text: "How are"},
				{StartSec: 2.4, EndSec: 2.9, Text: "you?"},
			},
			DetectedLanguage: "en",
		},
	}
	client := &llm.FakeClient{NameV: "fake", Responses: []string{"1: 你好。\n", "1: 你好吗？\n"}}
	engine := &Engine{Recognizer: recognizer, LLMClient: client, Config: config.Default()}

	proj, err := engine.Run(context.Background(), audioPath, config.RunOptions{ToLang: "zh"}, nil)
	require.NoError(t, err)
	require.Len(t, proj.Segments, 2)
	assert.Equal(t, "你好。", proj.Segments[0].Translated)
	assert.Equal(t, "你好吗？", proj.Segments[1].Translated)

	outPath := filepath.Join(t.TempDir(), "clip.srt")
	_, err = engine.Export(proj, outPath, "srt", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "1\n00:00:00,000 --> 00:00:01,200\n你好。\n\n"))
}

func TestRunRejectsMalformedTargetLangBeforeTouchingFilesystem(t *testing.T) {
	// inputPath deliberately doesn't exist: if Run ever reached Transcribe
	// before validating opts.ToLang it would fail with an io error instead,
	// not bad-input.
	engine := &Engine{LLMClient: &llm.FakeClient{NameV: "fake"}, Config: config.Default()}

	_, err := engine.Run(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), config.RunOptions{ToLang: "not a lang code"}, nil)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadInput))
}

func TestTranslateWithoutTargetLangIsBadInput(t *testing.T) {
	proj := &subtitle.Project{Segments: sampleSegments(), Metadata: subtitle.Metadata{SourceLang: "en"}}
	engine := &Engine{LLMClient: &llm.FakeClient{NameV: "fake"}, Config: config.Default()}

	_, err := engine.Translate(context.Background(), proj, config.RunOptions{}, nil)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadInput))
}

func TestProofreadRequiresTranslatedProject(t *testing.T) {
	proj := &subtitle.Project{Segments: sampleSegments()}
	engine := &Engine{LLMClient: &llm.FakeClient{NameV: "fake"}, Config: config.Default()}

	_, err := engine.Proofread(context.Background(), proj, nil)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadInput))
}

func TestProofreadCorrectsTranslationsAndMarksState(t *testing.T) {
	proj := &subtitle.Project{
		Segments: []subtitle.Segment{
			{StartSec: 0, EndSec: 1, Text: "Hello.", Translated: "Bonjour."},
		},
		State: subtitle.State{IsTranslated: true},
	}
	client := &llm.FakeClient{NameV: "fake", Responses: []string{"1: Bonjour !\n"}}
	engine := &Engine{LLMClient: client, Config: config.Default()}

	out, err := engine.Proofread(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.True(t, out.State.IsProofread)
	assert.Equal(t, "Bonjour !", out.Segments[0].Translated)
}

func TestProofreadSubtitleFileWritesIdenticalOutputForIdentityLLM(t *testing.T) {
	// Scenario E2: proofread-only mode reads an existing SRT and writes
	// `<base>.proofread.srt`; with a fake LLM that returns the input
	// unchanged, the output is byte-identical aside from the filename.
	proj := &subtitle.Project{
		Segments: []subtitle.Segment{
			{StartSec: 0, EndSec: 1.2, Text: "你好。", Translated: "你好。"},
			{StartSec: 1.3, EndSec: 2.9, Text: "你好吗？", Translated: "你好吗？"},
		},
	}
	srtPath := filepath.Join(t.TempDir(), "clip_zh.srt")
	original := []byte(encodeSRTForTest(proj))
	require.NoError(t, os.WriteFile(srtPath, original, 0o644))

	client := &llm.FakeClient{NameV: "fake", Responses: []string{"1: 你好。\n2: 你好吗？\n"}}
	engine := &Engine{LLMClient: client, Config: config.Default()}

	outPath, err := engine.ProofreadSubtitleFile(context.Background(), srtPath, false, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(srtPath), "clip_zh.proofread.srt"), outPath)

	proofread, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, original, proofread)
}

func encodeSRTForTest(proj *subtitle.Project) string {
	return encode.SRT(proj, false)
}

func TestExportWritesSRTFile(t *testing.T) {
	proj := &subtitle.Project{
		Segments: []subtitle.Segment{{StartSec: 0, EndSec: 1.5, Text: "Hi", Translated: "Salut"}},
	}
	engine := &Engine{Config: config.Default()}
	outPath := filepath.Join(t.TempDir(), "out.srt")

	path, err := engine.Export(proj, outPath, "srt", nil)
	require.NoError(t, err)
	assert.Equal(t, outPath, path)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Salut")
}

func TestExportUnsupportedFormatIsBadInput(t *testing.T) {
	proj := &subtitle.Project{}
	engine := &Engine{Config: config.Default()}

	_, err := engine.Export(proj, filepath.Join(t.TempDir(), "out.xyz"), "xyz", nil)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadInput))
}

func TestExportVideoWithoutFFmpegIsMissingComponent(t *testing.T) {
	proj := &subtitle.Project{Segments: []subtitle.Segment{{StartSec: 0, EndSec: 1, Text: "Hi"}}}
	engine := &Engine{Config: config.Default()}

	err := engine.ExportVideo(context.Background(), proj, "in.mkv", filepath.Join(t.TempDir(), "out.mkv"), ModeSoft)
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindMissingComponent))
}

func TestIsVideoPathDistinguishesAudioExtensions(t *testing.T) {
	assert.False(t, isVideoPath("clip.wav"))
	assert.False(t, isVideoPath("clip.mp3"))
	assert.True(t, isVideoPath("clip.mkv"))
	assert.True(t, isVideoPath("clip.mp4"))
}
