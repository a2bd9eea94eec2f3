// Package pipeline owns the end-to-end workflow: audio extraction, cache
// consult, transcription, sentence-aware translation, proofreading, and
// subtitle export. Rather than one monolithic execute call, the Engine
// exposes each stage as a discrete operation
// (Run/Transcribe/Translate/Proofread/Export/ExportVideo) so callers can
// retry just the stage that failed.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lsilvatti/subgen/internal/cache"
	"github.com/lsilvatti/subgen/internal/components"
	"github.com/lsilvatti/subgen/internal/config"
	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/proofread"
	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle"
	"github.com/lsilvatti/subgen/internal/subtitle/encode"
	"github.com/lsilvatti/subgen/internal/subtitle/style"
	"github.com/lsilvatti/subgen/internal/transcribe"
	"github.com/lsilvatti/subgen/internal/translate"
)

// Stage names one point in the pipeline's progress reporting.
type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageTranslating  Stage = "translating"
	StageProofreading Stage = "proofreading"
	StageExporting    Stage = "exporting"
)

// ProgressFunc receives cumulative progress within a stage, never a
// per-call delta, so a listener can render a percentage directly.
type ProgressFunc func(stage Stage, current, total int)

// ExportMode selects how subtitles are attached to a video in ExportVideo.
type ExportMode string

const (
	ModeSoft ExportMode = "soft"
	ModeHard ExportMode = "hard"
)

var audioExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".flac": true, ".m4a": true, ".aac": true, ".ogg": true,
}

// Engine orchestrates the pipeline. It is stateless across invocations
// aside from the progress callback passed into each call.
type Engine struct {
	Recognizer       transcribe.Recognizer
	LLMClient        llm.Client
	TranslationCache translate.TranslationCache // nil disables translation caching
	Components       *components.Manager        // nil: FFmpegPath must be set directly
	FFmpegPath       string                     // explicit override, takes precedence over Components
	Config           config.Config
	Logger           zerolog.Logger
}

func (e *Engine) ffmpegPath() (string, error) {
	if e.FFmpegPath != "" {
		return e.FFmpegPath, nil
	}
	if e.Components != nil {
		return e.Components.FindFFmpeg()
	}
	return "", subgenerr.MissingComponent("ffmpeg", "ffmpeg")
}

func isVideoPath(path string) bool {
	return !audioExtensions[strings.ToLower(filepath.Ext(path))]
}

func newProject(videoPath string) *subtitle.Project {
	return &subtitle.Project{
		Style:    style.Default(),
		Metadata: subtitle.Metadata{VideoPath: videoPath},
	}
}

// Run extracts audio (if input is video), consults the cache, transcribes
// on a miss, and optionally translates and proofreads, returning the
// finalized Project. It never writes a subtitle file.
func (e *Engine) Run(ctx context.Context, inputPath string, opts config.RunOptions, onProgress ProgressFunc) (*subtitle.Project, error) {
	cfg := e.Config.Clone()
	opts = opts.Clone()

	// A malformed target language must be rejected before any filesystem
	// I/O (audio extraction, cache reads, project loads) ever happens.
	if opts.ToLang != "" && !translate.ValidateLangCode(opts.ToLang) {
		return nil, subgenerr.BadInput("invalid target language code", nil)
	}

	var proj *subtitle.Project
	var err error
	if opts.LoadProjectPath != "" {
		proj, err = subtitle.Load(opts.LoadProjectPath)
		if err != nil {
			return nil, subgenerr.IO(opts.LoadProjectPath, err)
		}
	} else {
		proj, err = e.Transcribe(ctx, inputPath, opts, onProgress)
		if err != nil {
			return proj, err
		}
	}

	if !opts.NoTranslate && !opts.ProofreadOnly && !proj.State.IsTranslated {
		proj, err = e.translateWithConfig(ctx, proj, opts, cfg, onProgress)
		if err != nil {
			return proj, err
		}
	}

	if (opts.Proofread || opts.ProofreadOnly) && !proj.State.IsProofread {
		proj, err = e.Proofread(ctx, proj, onProgress)
		if err != nil {
			return proj, err
		}
	}

	if opts.SaveProjectPath != "" {
		if err := proj.Save(opts.SaveProjectPath); err != nil {
			return proj, subgenerr.IO(opts.SaveProjectPath, err)
		}
	}
	return proj, nil
}

// Transcribe extracts audio (if inputPath is a video container), consults
// the video-adjacent cache, and runs the configured recognizer on a
// miss. On a cache hit it re-reads the cached source_lang rather than
// trusting whatever a prior run left behind, so stale language state
// never leaks into translation.
func (e *Engine) Transcribe(ctx context.Context, inputPath string, opts config.RunOptions, onProgress ProgressFunc) (*subtitle.Project, error) {
	cleanup := &cleanupList{}
	defer cleanup.run()

	proj := newProject(inputPath)

	audioPath, err := e.resolveAudioPath(ctx, inputPath, opts, cleanup, onProgress)
	if err != nil {
		return proj, err
	}

	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return proj, subgenerr.IO(audioPath, err)
	}

	fp := cache.Fingerprint{
		AudioHash:  cache.HashAudio(audioData),
		ProviderID: e.Recognizer.Name(),
		ModelID:    e.Config.Whisper.Model,
		ForcedLang: opts.FromLang,
	}
	vc := cache.NewVideoCache(inputPath)

	if onProgress != nil {
		onProgress(StageTranscribing, 0, 1)
	}

	if opts.ForceTranscribe {
		if err := vc.Invalidate(); err != nil {
			return proj, err
		}
	} else if segs, sourceLang, ok, err := vc.Get(fp); err != nil {
		return proj, err
	} else if ok {
		proj.Segments = segs
		proj.Metadata.SourceLang = sourceLang
		proj.Metadata.SourceFrom = "cache"
		proj.Metadata.WhisperProvider = e.Recognizer.Name()
		proj.State.IsTranscribed = true
		if onProgress != nil {
			onProgress(StageTranscribing, 1, 1)
		}
		return proj, nil
	}

	result, err := e.Recognizer.Transcribe(ctx, audioPath, transcribe.Options{
		Model:      e.Config.Whisper.Model,
		ForcedLang: opts.FromLang,
		TimeoutSec: e.Config.Advanced.RecognizerTimeoutSec,
	})
	if err != nil {
		return proj, err
	}

	if err := vc.Put(fp, result.Segments, result.DetectedLanguage); err != nil {
		e.Logger.Warn().Err(err).Msg("failed to persist transcription cache entry")
	}

	proj.Segments = result.Segments
	proj.Metadata.SourceLang = result.DetectedLanguage
	proj.Metadata.SourceFrom = "transcribed"
	proj.Metadata.WhisperProvider = e.Recognizer.Name()
	proj.State.IsTranscribed = true
	if onProgress != nil {
		onProgress(StageTranscribing, 1, 1)
	}
	return proj, nil
}

// resolveAudioPath returns a path to audio content, extracting it from
// video via ffmpeg into a cleanup-registered temporary file when
// inputPath is not already an audio container.
func (e *Engine) resolveAudioPath(ctx context.Context, inputPath string, opts config.RunOptions, cleanup *cleanupList, onProgress ProgressFunc) (string, error) {
	if !isVideoPath(inputPath) {
		return inputPath, nil
	}

	if onProgress != nil {
		onProgress(StageExtracting, 0, 1)
	}

	ffmpeg, err := e.ffmpegPath()
	if err != nil {
		return "", err
	}

	audioPath := inputPath + ".subgen-audio.wav"
	timeout := e.Config.Advanced.AudioExtractTimeoutSec
	if err := runFFmpegExtractAudio(ctx, ffmpeg, inputPath, audioPath, timeout); err != nil {
		return "", err
	}
	cleanup.add(audioPath)

	if onProgress != nil {
		onProgress(StageExtracting, 1, 1)
	}
	return audioPath, nil
}

// Translate groups proj's segments into sentences, translates them in
// batches through the configured LLM client, and redistributes the
// result back onto word-level timestamps. It uses the
// engine's live Config; callers needing per-run overrides should build
// Options and call Run instead.
func (e *Engine) Translate(ctx context.Context, proj *subtitle.Project, opts config.RunOptions, onProgress ProgressFunc) (*subtitle.Project, error) {
	return e.translateWithConfig(ctx, proj, opts, e.Config.Clone(), onProgress)
}

func (e *Engine) translateWithConfig(ctx context.Context, proj *subtitle.Project, opts config.RunOptions, cfg config.Config, onProgress ProgressFunc) (*subtitle.Project, error) {
	targetLang := opts.ToLang
	if targetLang == "" {
		targetLang = proj.Metadata.TargetLang
	}
	if targetLang == "" {
		return proj, subgenerr.BadInput("target language is required for translation", nil)
	}

	groupingCfg := translate.GroupingConfig{
		MaxGapSec:    cfg.Translation.MaxGapSec,
		MaxGroupSize: cfg.Translation.MaxGroupSize,
		CharBudget:   cfg.Translation.CharBudget,
	}
	if groupingCfg.MaxGroupSize <= 0 {
		groupingCfg = translate.DefaultGroupingConfig()
	}
	groups := translate.GroupSegments(proj.Segments, groupingCfg)

	glossary := cfg.Translation.Glossary
	if len(glossary) == 0 {
		glossary = translate.SeedVolatileGlossary(proj.Segments, 2)
	}

	rules, err := translate.LoadRules(cfg.Translation.RulesDir, targetLang)
	if err != nil {
		if subgenerr.Is(err, subgenerr.KindBadInput) {
			return proj, err
		}
		e.Logger.Warn().Err(err).Str("target_lang", targetLang).Msg("could not read translation rules, proceeding without them")
	}

	translator := &translate.Translator{
		Client:   e.LLMClient,
		Cache:    e.TranslationCache,
		Logger:   e.Logger,
		Rules:    rules,
		Glossary: glossary,
		Cfg: translate.Config{
			BatchSize:      valueOr(cfg.Translation.BatchSize, translate.DefaultConfig().BatchSize),
			ContextGroups:  valueOr(cfg.Translation.ContextGroups, translate.DefaultConfig().ContextGroups),
			RetryBudget:    valueOr(cfg.Translation.RetryBudget, translate.DefaultConfig().RetryBudget),
			Temperature:    cfg.Translation.Temperature,
			TimeoutSec:     valueOr(cfg.Advanced.LLMTimeoutSec, translate.DefaultConfig().TimeoutSec),
			FuzzyThreshold: cfg.Advanced.FuzzyCacheThreshold,
		},
	}

	translated, err := translator.TranslateGroups(ctx, groups, proj.Metadata.SourceLang, targetLang, func(current, total int) {
		if onProgress != nil {
			onProgress(StageTranslating, current, total)
		}
	})
	if err != nil {
		return proj, err
	}

	segments, err := translate.RedistributeAll(ctx, e.LLMClient, translated)
	if err != nil {
		return proj, err
	}

	proj.Segments = segments
	proj.Metadata.TargetLang = targetLang
	proj.Metadata.LLMProvider = e.LLMClient.Name()
	proj.Metadata.LLMModel = e.LLMClient.Model()
	proj.State.IsTranslated = true
	return proj, nil
}

// Proofread runs the second-pass LLM review over proj's translated
// segments.
func (e *Engine) Proofread(ctx context.Context, proj *subtitle.Project, onProgress ProgressFunc) (*subtitle.Project, error) {
	if !proj.State.IsTranslated {
		return proj, subgenerr.BadInput("cannot proofread a project that has not been translated", nil)
	}

	cfg := e.Config.Advanced
	proofreader := &proofread.Proofreader{
		Client: e.LLMClient,
		Logger: e.Logger,
		Cfg: proofread.Config{
			WindowSize:   valueOr(cfg.ProofreadBatchSize, proofread.DefaultConfig().WindowSize),
			ContextChars: valueOr(cfg.ProofreadContextChars, proofread.DefaultConfig().ContextChars),
			Temperature:  0.1,
			TimeoutSec:   valueOr(cfg.LLMTimeoutSec, proofread.DefaultConfig().TimeoutSec),
		},
	}

	err := proofreader.Proofread(ctx, proj, func(current, total int) {
		if onProgress != nil {
			onProgress(StageProofreading, current, total)
		}
	})
	return proj, err
}

// ProofreadSubtitleFile implements proofread-only mode over an existing
// subtitle file (`--proofread-only`): load the SRT at srtPath,
// run the second-pass review, and write the result next to the input as
// `<base>.proofread.srt`, returning the output path. When bilingual is
// false every cue's text is treated as the translation under review.
func (e *Engine) ProofreadSubtitleFile(ctx context.Context, srtPath string, bilingual bool, onProgress ProgressFunc) (string, error) {
	f, err := os.Open(srtPath)
	if err != nil {
		return "", subgenerr.IO(srtPath, err)
	}
	segs, err := encode.LoadSRT(f, bilingual)
	f.Close()
	if err != nil {
		return "", subgenerr.BadInput(fmt.Sprintf("could not parse subtitle file %s", filepath.Base(srtPath)), err)
	}
	if !bilingual {
		for i := range segs {
			segs[i].Translated = segs[i].Text
		}
	}

	proj := &subtitle.Project{
		Segments: segs,
		Style:    style.Default(),
		State:    subtitle.State{IsTranscribed: true, IsTranslated: true},
	}
	if _, err := e.Proofread(ctx, proj, onProgress); err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(srtPath, filepath.Ext(srtPath)) + ".proofread.srt"
	if onProgress != nil {
		onProgress(StageExporting, 0, 1)
	}
	if err := os.WriteFile(outPath, []byte(encode.SRT(proj, bilingual)), 0o644); err != nil {
		return "", subgenerr.IO(outPath, err)
	}
	if onProgress != nil {
		onProgress(StageExporting, 1, 1)
	}
	return outPath, nil
}

// Export renders proj to outPath in the given format (srt|vtt|ass),
// optionally under a style override that never mutates proj's own Style
// or the engine's live configuration. It returns outPath on success.
func (e *Engine) Export(proj *subtitle.Project, outPath, format string, styleOverride *style.Profile) (string, error) {
	rendered := *proj
	if styleOverride != nil {
		rendered.Style = *styleOverride
	}

	var content string
	var err error
	switch format {
	case "srt":
		content = encode.SRT(&rendered, e.Config.Output.Bilingual)
	case "vtt":
		content = encode.VTT(&rendered, e.Config.Output.Bilingual)
	case "ass":
		content, err = encode.ASS(&rendered, e.Config.Output.Bilingual)
	default:
		return "", subgenerr.BadInput(fmt.Sprintf("unsupported subtitle format %q", format), nil)
	}
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return "", subgenerr.IO(outPath, err)
	}
	return outPath, nil
}

// ExportVideo renders proj's subtitles and attaches them to videoPath,
// either as a soft (muxed, selectable) track or hard-burned into the
// picture, via the managed ffmpeg binary.
func (e *Engine) ExportVideo(ctx context.Context, proj *subtitle.Project, videoPath, outPath string, mode ExportMode) error {
	ffmpeg, err := e.ffmpegPath()
	if err != nil {
		return err
	}

	format := e.Config.Output.Format
	if format == "" {
		format = "srt"
	}
	if mode == ModeHard && format == "vtt" {
		format = "srt" // libavfilter's subtitles filter does not read WebVTT directly
	}

	subPath := outPath + ".subgen-export." + format
	if _, err := e.Export(proj, subPath, format, nil); err != nil {
		return err
	}
	defer os.Remove(subPath)

	switch mode {
	case ModeHard:
		return runFFmpegHardBurn(ctx, ffmpeg, videoPath, subPath, outPath, e.Config.Advanced.AudioExtractTimeoutSec)
	default:
		return runFFmpegSoftMux(ctx, ffmpeg, videoPath, subPath, outPath, e.Config.Advanced.AudioExtractTimeoutSec)
	}
}

func valueOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
