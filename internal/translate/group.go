// Package translate implements the sentence-aware translator: sentence
// grouping, batched LLM translation with rolling context and
// self-healing retry, and word-aligned redistribution of the translation
// back onto per-word timestamps.
package translate

import (
	"strings"
	"unicode/utf8"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

// GroupingConfig tunes sentence grouping.
type GroupingConfig struct {
	MaxGapSec    float64
	MaxGroupSize int
	CharBudget   int
}

// DefaultGroupingConfig returns the documented grouping defaults.
func DefaultGroupingConfig() GroupingConfig {
	return GroupingConfig{MaxGapSec: 1.5, MaxGroupSize: 10, CharBudget: 400}
}

// Group is a contiguous run of segments forming one sentence for
// translation purposes.
type Group struct {
	Segments []subtitle.Segment
}

// SourceText concatenates the group's segment text with a single space
// separator.
func (g Group) SourceText() string {
	parts := make([]string, len(g.Segments))
	for i, s := range g.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Words flattens every word across the group's segments, in order.
func (g Group) Words() []subtitle.Word {
	var out []subtitle.Word
	for _, s := range g.Segments {
		out = append(out, s.Words...)
	}
	return out
}

func (g Group) StartSec() float64 {
	if len(g.Segments) == 0 {
		return 0
	}
	return g.Segments[0].StartSec
}

func (g Group) EndSec() float64 {
	if len(g.Segments) == 0 {
		return 0
	}
	return g.Segments[len(g.Segments)-1].EndSec
}

var terminalPunctuation = []string{".", "?", "!", "。", "？", "！", "…"}

func endsWithTerminalPunctuation(s string) bool {
	s = strings.TrimRightFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	for _, p := range terminalPunctuation {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

// GroupSegments partitions segments into Groups greedily left to right:
// a group closes on terminal punctuation, a silence gap over MaxGapSec,
// MaxGroupSize, or the character budget. Every segment belongs to
// exactly one group; group boundaries partition the segment sequence.
func GroupSegments(segments []subtitle.Segment, cfg GroupingConfig) []Group {
	if len(segments) == 0 {
		return nil
	}
	var groups []Group
	current := Group{Segments: []subtitle.Segment{segments[0]}}
	currentChars := utf8.RuneCountInString(segments[0].Text)

	for i := 1; i < len(segments); i++ {
		prev := segments[i-1]
		next := segments[i]
		gap := next.StartSec - prev.EndSec
		nextChars := utf8.RuneCountInString(next.Text)

		closeGroup := endsWithTerminalPunctuation(prev.Text) ||
			gap > cfg.MaxGapSec ||
			len(current.Segments)+1 > cfg.MaxGroupSize ||
			currentChars+1+nextChars > cfg.CharBudget

		if closeGroup {
			groups = append(groups, current)
			current = Group{Segments: []subtitle.Segment{next}}
			currentChars = nextChars
			continue
		}
		current.Segments = append(current.Segments, next)
		currentChars += 1 + nextChars
	}
	groups = append(groups, current)
	return groups
}
