// Package subtitle defines the data model shared by every stage of the
// pipeline: Word and Segment (transcription/translation units) and
// Project (the top-level container persisted as `.project` JSON).
package subtitle

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/lsilvatti/subgen/internal/subtitle/style"
)

// Word is a single token with a timestamp span.
type Word struct {
	Text     string  `json:"text"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// Validate checks the word invariants: non-empty text, finite
// non-negative bounds, start <= end.
func (w Word) Validate() error {
	if w.Text == "" {
		return fmt.Errorf("word: empty text")
	}
	if math.IsNaN(w.StartSec) || math.IsNaN(w.EndSec) || math.IsInf(w.StartSec, 0) || math.IsInf(w.EndSec, 0) {
		return fmt.Errorf("word %q: non-finite timestamp", w.Text)
	}
	if w.StartSec < 0 || w.EndSec < 0 {
		return fmt.Errorf("word %q: negative timestamp", w.Text)
	}
	if w.StartSec > w.EndSec {
		return fmt.Errorf("word %q: start %f after end %f", w.Text, w.StartSec, w.EndSec)
	}
	return nil
}

// Segment is a unit of transcription/translation output.
type Segment struct {
	StartSec     float64  `json:"start_sec"`
	EndSec       float64  `json:"end_sec"`
	Text         string   `json:"text"`
	Translated   string   `json:"translated,omitempty"`
	Words        []Word   `json:"words,omitempty"`
	NoSpeechProb *float64 `json:"no_speech_prob,omitempty"`
}

// wordSpanToleranceSec is the allowed slack between a segment's bounds
// and the bounds implied by its words.
const wordSpanToleranceSec = 0.050

// Validate checks the segment-level invariants: ordered bounds, ordered
// contained words, no_speech_prob in range.
func (s Segment) Validate() error {
	if s.EndSec < s.StartSec {
		return fmt.Errorf("segment %q: end %f before start %f", s.Text, s.EndSec, s.StartSec)
	}
	if s.StartSec < 0 {
		return fmt.Errorf("segment %q: negative start", s.Text)
	}
	if s.NoSpeechProb != nil && (*s.NoSpeechProb < 0 || *s.NoSpeechProb > 1) {
		return fmt.Errorf("segment %q: no_speech_prob out of [0,1]", s.Text)
	}
	var prevEnd float64 = -1
	for _, w := range s.Words {
		if err := w.Validate(); err != nil {
			return err
		}
		if w.StartSec < prevEnd {
			return fmt.Errorf("segment %q: words not in non-decreasing start order", s.Text)
		}
		prevEnd = w.StartSec
		if w.StartSec < s.StartSec-wordSpanToleranceSec || w.EndSec > s.EndSec+wordSpanToleranceSec {
			return fmt.Errorf("segment %q: word %q outside segment span beyond tolerance", s.Text, w.Text)
		}
	}
	return nil
}

// HasTranslation reports whether the segment carries a non-empty translation.
func (s Segment) HasTranslation() bool { return s.Translated != "" }

// Metadata records provenance for a Project.
type Metadata struct {
	VideoPath       string    `json:"video_path"`
	SourceLang      string    `json:"source_lang"`
	TargetLang      string    `json:"target_lang"`
	WhisperProvider string    `json:"whisper_provider"`
	LLMProvider     string    `json:"llm_provider"`
	LLMModel        string    `json:"llm_model"`
	CreatedAt       time.Time `json:"created_at"`
	ModifiedAt      time.Time `json:"modified_at"`
	// SourceFrom records whether the source language in effect came from a
	// cache hit or a fresh transcription.
	SourceFrom string `json:"source_from,omitempty"`
}

// State tracks which stages have completed.
type State struct {
	IsTranscribed bool `json:"is_transcribed"`
	IsTranslated  bool `json:"is_translated"`
	IsProofread   bool `json:"is_proofread"`
}

// Project is the top-level container, serialized to `.project` JSON.
type Project struct {
	Segments []Segment     `json:"segments"`
	Style    style.Profile `json:"style"`
	Metadata Metadata      `json:"metadata"`
	State    State         `json:"state"`
}

// Validate checks the Project-level invariants: segment ordering and the
// is_translated/is_proofread implications.
func (p *Project) Validate() error {
	var prevStart float64 = -1
	for i, seg := range p.Segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if seg.StartSec < prevStart {
			return fmt.Errorf("segment %d: start %f out of order", i, seg.StartSec)
		}
		prevStart = seg.StartSec
		if p.State.IsTranslated && !seg.HasTranslation() {
			return fmt.Errorf("segment %d: is_translated but has no translation", i)
		}
	}
	if p.State.IsProofread && !p.State.IsTranslated {
		return fmt.Errorf("is_proofread requires is_translated")
	}
	return nil
}

// Save persists the Project as `.project` JSON.
func (p *Project) Save(path string) error {
	p.Metadata.ModifiedAt = time.Now()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a `.project` JSON file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	return &p, nil
}

// TotalWords returns the number of words across all segments.
func (p *Project) TotalWords() int {
	n := 0
	for _, s := range p.Segments {
		n += len(s.Words)
	}
	return n
}
