package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

func TestSeedVolatileGlossaryFindsRepeatedProperNouns(t *testing.T) {
	segments := []subtitle.Segment{
		{Text: "Gandalf arrived at the gate."},
		{Text: "Gandalf spoke to Frodo."},
		{Text: "Frodo nodded."},
	}
	glossary := SeedVolatileGlossary(segments, 2)
	assert.Equal(t, "Gandalf", glossary["Gandalf"])
	assert.Equal(t, "Frodo", glossary["Frodo"])
}

func TestSeedVolatileGlossaryExcludesStopWords(t *testing.T) {
	segments := []subtitle.Segment{
		{Text: "The dog ran."},
		{Text: "The cat sat."},
	}
	glossary := SeedVolatileGlossary(segments, 2)
	_, ok := glossary["The"]
	assert.False(t, ok)
}

func TestSeedVolatileGlossaryRespectsMinOccurrences(t *testing.T) {
	segments := []subtitle.Segment{{Text: "Aragorn walked alone."}}
	glossary := SeedVolatileGlossary(segments, 2)
	assert.Empty(t, glossary)
}

func TestRenderGlossaryFormatsLines(t *testing.T) {
	out := RenderGlossary(map[string]string{"Frodo": "Frodo"})
	assert.Equal(t, "Frodo -> Frodo\n", out)
}

func TestRenderGlossaryEmpty(t *testing.T) {
	assert.Empty(t, RenderGlossary(nil))
}
