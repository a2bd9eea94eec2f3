package encode

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

func sampleProject() *subtitle.Project {
	return &subtitle.Project{
		Segments: []subtitle.Segment{
			{StartSec: 0, EndSec: 1.5, Text: "hello there", Translated: "bonjour"},
			{StartSec: 2, EndSec: 3.25, Text: "goodbye", Translated: "au revoir"},
		},
	}
}

func TestSRTRoundTripBilingual(t *testing.T) {
	p := sampleProject()
	out := SRT(p, true)

	f, err := os.CreateTemp(t.TempDir(), "*.srt")
	require.NoError(t, err)
	_, err = f.WriteString(out)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	segs, err := LoadSRT(f, true)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.InDelta(t, p.Segments[0].StartSec, segs[0].StartSec, 0.001)
	assert.InDelta(t, p.Segments[0].EndSec, segs[0].EndSec, 0.001)
	assert.Equal(t, p.Segments[0].Text, segs[0].Text)
	assert.Equal(t, p.Segments[0].Translated, segs[0].Translated)
	assert.Equal(t, p.Segments[1].Text, segs[1].Text)
	assert.Equal(t, p.Segments[1].Translated, segs[1].Translated)
}

func TestFormatSRTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:01,500", formatSRTTimestamp(1.5))
	assert.Equal(t, "01:00:00,000", formatSRTTimestamp(3600))
}

func TestParseSRTTimestamp(t *testing.T) {
	sec, err := parseSRTTimestamp("00:00:01,500")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sec, 0.0001)

	_, err = parseSRTTimestamp("garbage")
	assert.Error(t, err)
}
