package translate

import (
	"regexp"
	"strings"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

// stopWords are common capitalized words (sentence-initial capitals,
// common pronouns) excluded from glossary seeding so the scanner does
// not flag every sentence-leading "The" as a proper noun.
var stopWords = map[string]bool{
	"The": true, "A": true, "An": true, "I": true, "He": true, "She": true,
	"It": true, "They": true, "We": true, "You": true, "This": true, "That": true,
	"But": true, "And": true, "So": true, "If": true, "When": true, "Then": true,
}

var capitalizedWord = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// SeedVolatileGlossary scans segment text for repeated capitalized terms
// (proper nouns, character names) occurring at least minOccurrences
// times and returns candidate entries that map each term to itself, so the
// translator can instruct the LLM to keep them unchanged. Invoked only
// when the caller's glossary is empty.
func SeedVolatileGlossary(segments []subtitle.Segment, minOccurrences int) map[string]string {
	counts := make(map[string]int)
	for _, seg := range segments {
		for _, m := range capitalizedWord.FindAllString(seg.Text, -1) {
			if stopWords[m] {
				continue
			}
			counts[m]++
		}
	}

	glossary := make(map[string]string)
	for term, n := range counts {
		if n >= minOccurrences {
			glossary[term] = term
		}
	}
	return glossary
}

// RenderGlossary formats a glossary map as "term -> term" lines for
// injection into the system prompt.
func RenderGlossary(glossary map[string]string) string {
	if len(glossary) == 0 {
		return ""
	}
	var b strings.Builder
	for term, rendering := range glossary {
		b.WriteString(term)
		b.WriteString(" -> ")
		b.WriteString(rendering)
		b.WriteString("\n")
	}
	return b.String()
}
