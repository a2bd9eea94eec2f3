package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// Config tunes batched translation. A BatchSize <= 0 replaces the whole
// Config with DefaultConfig(); a ContextGroups <= 0 uses the default when
// the prompt is built. Other zero values are used as given.
type Config struct {
	BatchSize      int // B, default 20
	ContextGroups  int // C, default 5
	RetryBudget    int // R, default 2
	Temperature    float64
	TimeoutSec     int
	FuzzyThreshold float64 // 0 disables fuzzy cache lookup
}

// DefaultConfig returns the documented batching defaults.
func DefaultConfig() Config {
	return Config{BatchSize: 20, ContextGroups: 5, RetryBudget: 2, Temperature: 0.1, TimeoutSec: 120}
}

// TranslationCache is the subset of cache.TranslationStore the translator
// needs, kept as an interface so tests can substitute an in-memory fake
// without pulling in SQLite.
type TranslationCache interface {
	GetExact(ctx context.Context, langPair, sourceText string) (string, bool, error)
	GetFuzzy(ctx context.Context, langPair, sourceText string, threshold float64) (string, bool, error)
	Save(ctx context.Context, langPair, sourceText, translatedText string) error
}

// ProgressFunc receives cumulative (groups_completed, total_groups), never
// per-batch deltas.
type ProgressFunc func(groupsCompleted, totalGroups int)

// TranslatedGroup pairs a Group with its translation. Failed is set when
// every retry was exhausted and Translated is the pass-through source
// text.
type TranslatedGroup struct {
	Group      Group
	Translated string
	Failed     bool
}

// Translator runs sentence-aware batched translation.
type Translator struct {
	Client   llm.Client
	Cache    TranslationCache // nil disables cache lookups
	Logger   zerolog.Logger
	Rules    string
	Glossary map[string]string
	Cfg      Config
}

// TranslateGroups translates groups in order, maintaining rolling context
// across batches, and returns one TranslatedGroup per input Group in the
// same order regardless of retries. onProgress, if non-nil,
// is called with the cumulative count of groups completed so far after
// each batch; it is never called with a per-batch delta.
func (t *Translator) TranslateGroups(ctx context.Context, groups []Group, sourceLang, targetLang string, onProgress ProgressFunc) ([]TranslatedGroup, error) {
	if t.Cfg.BatchSize <= 0 {
		t.Cfg = DefaultConfig()
	}
	cfg := t.Cfg

	results := make([]TranslatedGroup, len(groups))
	total := len(groups)
	var completed int64

	for start := 0; start < len(groups); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(groups) {
			end = len(groups)
		}
		batch := groups[start:end]

		batchResults, err := t.translateBatchWithRetry(ctx, batch, results[:start], sourceLang, targetLang, 0)
		if err != nil {
			return nil, err
		}
		copy(results[start:end], batchResults)

		atomic.AddInt64(&completed, int64(len(batch)))
		if onProgress != nil {
			onProgress(int(atomic.LoadInt64(&completed)), total)
		}
	}
	return results, nil
}

// maxRetryDepth bounds the self-healing split recursion so a persistently
// broken LLM response cannot recurse without limit.
const maxRetryDepth = 3

// translateBatchWithRetry sends one batch to the LLM, parses the reply,
// and on a short reply recursively retries the missing tail as a fresh,
// smaller sub-batch. prior is every already-resolved group before this
// batch, used to build rolling context.
func (t *Translator) translateBatchWithRetry(ctx context.Context, batch []Group, prior []TranslatedGroup, sourceLang, targetLang string, depth int) ([]TranslatedGroup, error) {
	out := make([]TranslatedGroup, len(batch))
	langPair := sourceLang + "-" + targetLang

	// Cache lookup first: groups already seen verbatim (or, above the
	// configured fuzzy threshold, near-verbatim) skip the LLM entirely.
	pending := make([]int, 0, len(batch))
	for i, g := range batch {
		if t.Cache == nil {
			pending = append(pending, i)
			continue
		}
		src := g.SourceText()
		if hit, ok, err := t.Cache.GetExact(ctx, langPair, src); err == nil && ok {
			out[i] = TranslatedGroup{Group: g, Translated: hit}
			continue
		}
		if hit, ok, err := t.Cache.GetFuzzy(ctx, langPair, src, t.Cfg.FuzzyThreshold); err == nil && ok {
			out[i] = TranslatedGroup{Group: g, Translated: hit}
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	prompt := t.buildSystemPrompt(targetLang, prior)
	userMsg := renderBatchRequest(batch, pending)

	reply, err := t.Client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: userMsg},
	}, llm.Params{Temperature: t.Cfg.Temperature, TimeoutSec: t.Cfg.TimeoutSec})

	if err != nil {
		if llm.IsAuthError(err) {
			return nil, subgenerr.TranslationFailed("provider rejected credentials", err)
		}
		if depth >= maxRetryDepth {
			return nil, subgenerr.TranslationFailed("translation provider request failed after retries", err)
		}
		t.Logger.Warn().Err(err).Int("depth", depth).Msg("translation batch request failed, retrying")
		return t.retrySplit(ctx, batch, prior, sourceLang, targetLang, depth, out, pending)
	}

	parsed := parseIndexedLines(reply)

	// renderBatchRequest numbers pending items 1..len(pending) in order,
	// so position i in pending corresponds to reply line i+1.
	for pos, localIdx := range pending {
		line, ok := parsed[pos+1]
		if !ok {
			continue
		}
		g := batch[localIdx]
		lint := Check(g.SourceText(), line, sourceLang, targetLang, t.Glossary)
		if lint.HighestSeverity() == SeverityHigh && depth < t.Cfg.RetryBudget {
			continue // leave unset; swept into the retry pass below
		}
		for _, issue := range lint.Issues {
			t.Logger.Debug().Str("issue", issue.Message).Msg("translation lint finding passed through")
		}
		out[localIdx] = TranslatedGroup{Group: g, Translated: line}
		if t.Cache != nil {
			_ = t.Cache.Save(ctx, langPair, g.SourceText(), line)
		}
	}

	var missing []int
	for _, localIdx := range pending {
		if out[localIdx].Translated == "" {
			missing = append(missing, localIdx)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	if depth >= t.Cfg.RetryBudget || depth >= maxRetryDepth {
		return passThroughFailures(batch, missing, out), nil
	}

	t.Logger.Warn().Int("missing", len(missing)).Int("depth", depth).Msg("translation batch returned fewer lines than requested, retrying tail")
	retried, err := t.translateBatchWithRetry(ctx, subsetGroups(batch, missing), prior, sourceLang, targetLang, depth+1)
	if err != nil {
		// A credential failure will not heal on retry; everything else
		// degrades to pass-through so the groups that did translate
		// survive.
		var provErr *llm.Error
		if errors.As(err, &provErr) && (provErr.Status == 401 || provErr.Status == 403) {
			return nil, err
		}
		t.Logger.Warn().Err(err).Msg("tail retry failed, passing source text through")
		return passThroughFailures(batch, missing, out), nil
	}
	for i, localIdx := range missing {
		out[localIdx] = retried[i]
	}
	return out, nil
}

func (t *Translator) retrySplit(ctx context.Context, batch []Group, prior []TranslatedGroup, sourceLang, targetLang string, depth int, out []TranslatedGroup, pending []int) ([]TranslatedGroup, error) {
	if len(pending) <= 1 {
		retried, err := t.translateBatchWithRetry(ctx, subsetGroups(batch, pending), prior, sourceLang, targetLang, depth+1)
		if err != nil {
			return nil, err
		}
		for i, idx := range pending {
			out[idx] = retried[i]
		}
		return out, nil
	}
	mid := len(pending) / 2
	left, right := pending[:mid], pending[mid:]

	leftResult, err := t.translateBatchWithRetry(ctx, subsetGroups(batch, left), prior, sourceLang, targetLang, depth+1)
	if err != nil {
		return nil, err
	}
	for i, idx := range left {
		out[idx] = leftResult[i]
	}

	rightResult, err := t.translateBatchWithRetry(ctx, subsetGroups(batch, right), prior, sourceLang, targetLang, depth+1)
	if err != nil {
		return nil, err
	}
	for i, idx := range right {
		out[idx] = rightResult[i]
	}
	return out, nil
}

func subsetGroups(batch []Group, indexes []int) []Group {
	out := make([]Group, len(indexes))
	for i, idx := range indexes {
		out[i] = batch[idx]
	}
	return out
}

// passThroughFailures marks every index in missing as failed, keeping the
// source text as the translation so no subtitle line ever disappears.
func passThroughFailures(batch []Group, missing []int, out []TranslatedGroup) []TranslatedGroup {
	for _, idx := range missing {
		out[idx] = TranslatedGroup{Group: batch[idx], Translated: batch[idx].SourceText(), Failed: true}
	}
	return out
}

// buildSystemPrompt assembles the translation rules, the glossary, and a
// sliding window of up to Cfg.ContextGroups preceding groups rendered as
// "source|target" pairs.
func (t *Translator) buildSystemPrompt(targetLang string, prior []TranslatedGroup) string {
	var b strings.Builder
	b.WriteString("You are a professional subtitle translator. Translate into ")
	b.WriteString(targetLang)
	b.WriteString(".\n\n")

	if t.Rules != "" {
		b.WriteString("Rules:\n")
		b.WriteString(t.Rules)
		b.WriteString("\n\n")
	}
	if g := RenderGlossary(t.Glossary); g != "" {
		b.WriteString("Glossary (keep these terms unchanged):\n")
		b.WriteString(g)
		b.WriteString("\n")
	}

	n := t.Cfg.ContextGroups
	if n <= 0 {
		n = DefaultConfig().ContextGroups
	}
	start := len(prior) - n
	if start < 0 {
		start = 0
	}
	if start < len(prior) {
		b.WriteString("Prior context:\n")
		for _, p := range prior[start:] {
			if p.Translated == "" {
				continue
			}
			fmt.Fprintf(&b, "%s|%s\n", p.Group.SourceText(), p.Translated)
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with exactly one line per input, in the form \"N: translated text\".\n")
	return b.String()
}

func renderBatchRequest(batch []Group, pending []int) string {
	var b strings.Builder
	n := 1
	for _, idx := range pending {
		fmt.Fprintf(&b, "%d: %s\n", n, batch[idx].SourceText())
		n++
	}
	return b.String()
}

var indexedLinePattern = regexp.MustCompile(`^\s*[-*]?\s*(\d+)[.:)]\s*(.*)$`)

// ParseIndexedLines parses "N: translated text" lines robustly to extra
// whitespace, blank lines, and leading enumerators. The proofreader
// reuses the same parser so both stages accept the same reply shape.
func ParseIndexedLines(reply string) map[int]string {
	return parseIndexedLines(reply)
}

func parseIndexedLines(reply string) map[int]string {
	out := make(map[int]string)
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
		out[idx] = strings.TrimSpace(m[2])
	}
	return out
}

// concurrencyLimit returns min(4, number-of-cores), the bounded
// parallelism default for LLM calls.
func concurrencyLimit() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

// runBounded runs fn(i) for i in [0,n) with bounded concurrency, used by
// the redistribution pass where each group's secondary LLM split call is
// independent.
func runBounded(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(ctx, i) })
	}
	return g.Wait()
}
