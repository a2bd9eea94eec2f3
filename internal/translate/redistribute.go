package translate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/subtitle"
)

// indexedFragment is one line of a redistribution reply: a translated
// fragment tagged with the 1-based index of the last source word it
// covers.
type indexedFragment struct {
	WordIndex int
	Text      string
}

// RedistributeGroup splits a Group's single translated string into
// segments at the source-word indices the LLM returns for each fragment,
// so each fragment takes the time span of the words it covers; the split
// points need not match the original segment boundaries. A Group formed
// from a single segment, one without word timings, a nil client, and a
// failed or invalid alignment reply all yield one whole-group segment.
func RedistributeGroup(ctx context.Context, client llm.Client, g Group, translated string) ([]subtitle.Segment, error) {
	words := g.Words()
	if len(g.Segments) <= 1 || len(words) == 0 || client == nil {
		return wholeGroupFallback(g, translated), nil
	}

	reply, err := client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: redistributionPrompt(len(words))},
		{Role: llm.RoleUser, Content: translated},
	}, llm.Params{Temperature: 0, TimeoutSec: 60})
	if err != nil {
		// Redistribution is a refinement, not a hard requirement: a failed
		// alignment call falls back to one subtitle spanning the group
		// rather than failing the whole translation.
		return wholeGroupFallback(g, translated), nil
	}

	fragments := parseIndexedFragments(reply)
	if !monotonicFragmentIndices(fragments, len(words)) {
		return wholeGroupFallback(g, translated), nil
	}

	// monotonicFragmentIndices only guarantees the sequence is strictly
	// increasing and within [1,n]; the LLM may still under-split and stop
	// short of n. Rather than discard the alignment entirely, the
	// trailing words are appended as one more segment, so every source
	// word still lands in exactly one output segment.
	segments := make([]subtitle.Segment, 0, len(fragments)+1)
	prevIdx := 0
	for _, frag := range fragments {
		span := words[prevIdx:frag.WordIndex]
		segments = append(segments, subtitle.Segment{
			StartSec:   span[0].StartSec,
			EndSec:     span[len(span)-1].EndSec,
			Text:       joinWordText(span),
			Translated: frag.Text,
			Words:      span,
		})
		prevIdx = frag.WordIndex
	}

	if prevIdx < len(words) {
		span := words[prevIdx:]
		tail := translationTail(translated, fragments[len(fragments)-1].Text)
		if tail == "" {
			tail = joinWordText(span)
		}
		segments = append(segments, subtitle.Segment{
			StartSec:   span[0].StartSec,
			EndSec:     span[len(span)-1].EndSec,
			Text:       joinWordText(span),
			Translated: tail,
			Words:      span,
		})
	}

	return segments, nil
}

// translationTail returns whatever of full follows the last occurrence
// of lastFragText: the best-effort remainder assigned to trailing words
// an under-splitting LLM never covered.
func translationTail(full, lastFragText string) string {
	full = strings.TrimSpace(full)
	idx := strings.LastIndex(full, lastFragText)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(full[idx+len(lastFragText):])
}

func wholeGroupFallback(g Group, translated string) []subtitle.Segment {
	return []subtitle.Segment{{
		StartSec:   g.StartSec(),
		EndSec:     g.EndSec(),
		Text:       g.SourceText(),
		Translated: translated,
		Words:      g.Words(),
	}}
}

func joinWordText(words []subtitle.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func redistributionPrompt(wordCount int) string {
	return fmt.Sprintf(
		"The translation you are given corresponds to exactly %d source words, in order. "+
			"Split it into natural fragments at sentence or clause breaks. "+
			"Respond with one line per fragment, in the form \"W: fragment text\", where W is the "+
			"1-based index (out of %d) of the last source word that fragment covers. "+
			"Indices must strictly increase and the final line must use index %d.",
		wordCount, wordCount, wordCount)
}

// parseIndexedFragments parses "W: text" lines in order, unlike
// parseIndexedLines it preserves line order rather than keying by index,
// since fragment order (not the literal line number) carries meaning
// here.
func parseIndexedFragments(reply string) []indexedFragment {
	var out []indexedFragment
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := indexedLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, indexedFragment{WordIndex: idx, Text: strings.TrimSpace(m[2])})
	}
	return out
}

// monotonicFragmentIndices reports whether fragments form a well-shaped
// sequence: strictly increasing, non-empty text, all within [1,n]. It does
// not require the sequence to terminate at n; an LLM that under-splits and
// stops short is handled by appending a trailing segment rather than
// discarding the alignment.
func monotonicFragmentIndices(fragments []indexedFragment, n int) bool {
	if len(fragments) == 0 {
		return false
	}
	prev := 0
	for _, f := range fragments {
		if f.WordIndex <= prev || f.WordIndex > n || f.Text == "" {
			return false
		}
		prev = f.WordIndex
	}
	return true
}

// RedistributeAll redistributes every translated group concurrently
// (bounded by concurrencyLimit) and returns the flattened, in-order
// segment list ready to attach to a Project.
func RedistributeAll(ctx context.Context, client llm.Client, groups []TranslatedGroup) ([]subtitle.Segment, error) {
	perGroup := make([][]subtitle.Segment, len(groups))
	err := runBounded(ctx, len(groups), func(ctx context.Context, i int) error {
		tg := groups[i]
		if tg.Failed {
			perGroup[i] = wholeGroupFallback(tg.Group, tg.Translated)
			return nil
		}
		segs, err := RedistributeGroup(ctx, client, tg.Group, tg.Translated)
		if err != nil {
			return err
		}
		perGroup[i] = segs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []subtitle.Segment
	for _, segs := range perGroup {
		out = append(out, segs...)
	}
	return out, nil
}
