package encode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subtitle/style"
)

func TestASSContainsHeaderAndDialogue(t *testing.T) {
	p := sampleProject()
	p.Style = style.Default()

	out, err := ASS(p, true)
	require.NoError(t, err)

	assert.Contains(t, out, "[Script Info]")
	assert.Contains(t, out, "[V4+ Styles]")
	assert.Contains(t, out, "[Events]")
	assert.Contains(t, out, "Dialogue: 0,0:00:00.00,0:00:01.50,Primary")
	assert.Contains(t, out, `bonjour\N{\rSecondary}hello there`)
}

func TestEscapeASSTextNeutralizesBraces(t *testing.T) {
	got := escapeASSText("{\\pos(0,0)}line one\nline two")
	assert.False(t, strings.Contains(got, "{\\pos"))
	assert.Contains(t, got, `\N`)
}

func TestAssTimestamp(t *testing.T) {
	assert.Equal(t, "0:00:01.50", assTimestamp(1.5))
	assert.Equal(t, "1:00:00.00", assTimestamp(3600))
}
