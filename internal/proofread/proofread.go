// Package proofread implements the second-pass LLM review over an already
// translated Project: windowed batching with rolling prior-document
// context, grounded on the same batched-request/indexed-reply idiom as
// internal/translate.
package proofread

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle"
	"github.com/lsilvatti/subgen/internal/translate"
)

// Config tunes windowed proofreading.
type Config struct {
	WindowSize   int // PB, default 50
	ContextChars int // PC, default 15000
	Temperature  float64
	TimeoutSec   int
}

// DefaultConfig returns the documented proofreading defaults.
func DefaultConfig() Config {
	return Config{WindowSize: 50, ContextChars: 15000, Temperature: 0.1, TimeoutSec: 120}
}

// ProgressFunc receives cumulative (segmentsCompleted, totalSegments).
type ProgressFunc func(segmentsCompleted, totalSegments int)

// Proofreader runs the second-pass review over a Project's translated
// segments.
type Proofreader struct {
	Client llm.Client
	Logger zerolog.Logger
	Cfg    Config
}

// Proofread corrects proj.Segments[*].Translated in place, window by
// window, and sets proj.State.IsProofread = true only once every window
// has succeeded. A window's LLM request failing (it is not retried)
// aborts the whole pass with a typed error; the Project is
// left with whichever prior windows already succeeded so the caller can
// persist partial progress.
func (p *Proofreader) Proofread(ctx context.Context, proj *subtitle.Project, onProgress ProgressFunc) error {
	cfg := p.Cfg
	if cfg.WindowSize <= 0 {
		cfg = DefaultConfig()
	}
	total := len(proj.Segments)

	for start := 0; start < total; start += cfg.WindowSize {
		end := start + cfg.WindowSize
		if end > total {
			end = total
		}
		if err := p.proofreadWindow(ctx, proj, start, end, cfg); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(end, total)
		}
	}

	proj.State.IsProofread = true
	return nil
}

func (p *Proofreader) proofreadWindow(ctx context.Context, proj *subtitle.Project, start, end int, cfg Config) error {
	window := proj.Segments[start:end]

	prompt := p.buildSystemPrompt(proj, start, cfg)
	userMsg := renderWindowRequest(window)

	reply, err := p.Client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: userMsg},
	}, llm.Params{Temperature: cfg.Temperature, TimeoutSec: cfg.TimeoutSec})
	if err != nil {
		return subgenerr.ProofreadFailed(fmt.Sprintf("window [%d,%d) request failed", start, end), err)
	}

	parsed := translate.ParseIndexedLines(reply)
	var missing int
	for i := range window {
		corrected, ok := parsed[i+1]
		if !ok || corrected == "" {
			missing++
			continue
		}
		proj.Segments[start+i].Translated = corrected
	}
	if missing > 0 {
		p.Logger.Warn().Int("missing", missing).Int("window_start", start).Int("window_end", end).
			Msg("proofreader returned fewer corrections than requested; keeping original translations for the rest")
	}
	return nil
}

// buildSystemPrompt renders instructions plus up to cfg.ContextChars of
// rolling prior-document context, walking backward from the window start
// so the most recent finalized pairs are kept and older ones are dropped
// once the character budget is exhausted.
func (p *Proofreader) buildSystemPrompt(proj *subtitle.Project, windowStart int, cfg Config) string {
	var b strings.Builder
	b.WriteString("You are a professional subtitle proofreader. Review the translated lines below for " +
		"consistency with prior context (character names, terminology, tone) and correctness. ")
	b.WriteString("Respond with exactly one corrected line per input, in the form \"N: corrected text\".\n\n")

	budget := cfg.ContextChars
	if budget <= 0 {
		budget = DefaultConfig().ContextChars
	}
	var context []string
	used := 0
	for i := windowStart - 1; i >= 0; i-- {
		seg := proj.Segments[i]
		if seg.Translated == "" {
			continue
		}
		pair := seg.Text + " -> " + seg.Translated
		if used+len(pair) > budget {
			break
		}
		context = append([]string{pair}, context...)
		used += len(pair)
	}
	if len(context) > 0 {
		b.WriteString("Prior context:\n")
		for _, pair := range context {
			b.WriteString(pair)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderWindowRequest(window []subtitle.Segment) string {
	var b strings.Builder
	for i, seg := range window {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(seg.Translated)
		b.WriteString("\n")
	}
	return b.String()
}
