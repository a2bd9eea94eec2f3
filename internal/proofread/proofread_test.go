package proofread

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/subtitle"
)

func sampleProject(n int) *subtitle.Project {
	segs := make([]subtitle.Segment, n)
	for i := range segs {
		segs[i] = subtitle.Segment{
			StartSec:   float64(i),
			EndSec:     float64(i) + 1,
			Text:       "source line",
			Translated: "rough translation",
		}
	}
	return &subtitle.Project{Segments: segs, State: subtitle.State{IsTranslated: true}}
}

func TestProofreadSingleWindowSetsIsProofread(t *testing.T) {
	proj := sampleProject(3)
	client := &llm.FakeClient{NameV: "fake", Responses: []string{"1: a\n2: b\n3: c\n"}}
	p := &Proofreader{Client: client, Logger: zerolog.Nop(), Cfg: DefaultConfig()}

	err := p.Proofread(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.True(t, proj.State.IsProofread)
	assert.Equal(t, "a", proj.Segments[0].Translated)
	assert.Equal(t, "b", proj.Segments[1].Translated)
	assert.Equal(t, "c", proj.Segments[2].Translated)
}

func TestProofreadMultipleWindows(t *testing.T) {
	proj := sampleProject(5)
	client := &llm.FakeClient{NameV: "fake", Responses: []string{
		"1: a1\n2: a2\n3: a3\n",
		"1: b1\n2: b2\n",
	}}
	p := &Proofreader{Client: client, Logger: zerolog.Nop(), Cfg: Config{WindowSize: 3, ContextChars: 100, TimeoutSec: 60}}

	var progressed int
	err := p.Proofread(context.Background(), proj, func(done, total int) { progressed = done })
	require.NoError(t, err)
	assert.True(t, proj.State.IsProofread)
	assert.Equal(t, "a1", proj.Segments[0].Translated)
	assert.Equal(t, "b2", proj.Segments[4].Translated)
	assert.Equal(t, 5, progressed)
}

func TestProofreadKeepsOriginalOnMissingCorrection(t *testing.T) {
	proj := sampleProject(2)
	client := &llm.FakeClient{NameV: "fake", Responses: []string{"1: corrected\n"}} // line 2 missing
	p := &Proofreader{Client: client, Logger: zerolog.Nop(), Cfg: DefaultConfig()}

	err := p.Proofread(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.Equal(t, "corrected", proj.Segments[0].Translated)
	assert.Equal(t, "rough translation", proj.Segments[1].Translated) // untouched
	assert.True(t, proj.State.IsProofread)
}

func TestProofreadFailureLeavesIsProofreadFalse(t *testing.T) {
	proj := sampleProject(2)
	client := &llm.FakeClient{NameV: "fake", Responses: []string{}} // errors immediately
	p := &Proofreader{Client: client, Logger: zerolog.Nop(), Cfg: DefaultConfig()}

	err := p.Proofread(context.Background(), proj, nil)
	require.Error(t, err)
	assert.False(t, proj.State.IsProofread)
}

// Running Proofread twice with a deterministic fake LLM must produce the
// same translated content.
func TestProofreadIdempotentWithDeterministicLLM(t *testing.T) {
	proj1 := sampleProject(2)
	proj2 := sampleProject(2)

	resp := []string{"1: same\n2: result\n"}
	p1 := &Proofreader{Client: &llm.FakeClient{NameV: "fake", Responses: resp}, Logger: zerolog.Nop(), Cfg: DefaultConfig()}
	p2 := &Proofreader{Client: &llm.FakeClient{NameV: "fake", Responses: resp}, Logger: zerolog.Nop(), Cfg: DefaultConfig()}

	require.NoError(t, p1.Proofread(context.Background(), proj1, nil))
	require.NoError(t, p2.Proofread(context.Background(), proj2, nil))

	for i := range proj1.Segments {
		assert.Equal(t, proj1.Segments[i].Translated, proj2.Segments[i].Translated)
	}
}
