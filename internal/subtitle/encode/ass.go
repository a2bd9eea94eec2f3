package encode

import (
	"fmt"
	"strings"

	"github.com/lsilvatti/subgen/internal/subtitle"
	"github.com/lsilvatti/subgen/internal/subtitle/style"
)

// assTimestamp renders seconds as H:MM:SS.cc (centiseconds), the format ASS
// Dialogue lines use.
func assTimestamp(sec float64) string {
	cs := int64(sec*100 + 0.5)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// escapeASSText converts newlines to the ASS hard line-break tag and
// neutralizes braces so source text can never inject tag overrides.
func escapeASSText(s string) string {
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.ReplaceAll(s, "\n", `\N`)
}

// ASS renders a Project as a complete .ass document: the style.Header
// followed by one Dialogue line per segment. In bilingual mode the
// translated line uses the Primary style and the source line is appended
// below it with an inline override selecting the Secondary style, joined
// by \N.
func ASS(p *subtitle.Project, bilingual bool) (string, error) {
	header, err := style.Header(p.Style)
	if err != nil {
		return "", fmt.Errorf("ass header: %w", err)
	}
	var b strings.Builder
	b.WriteString(header)

	for _, seg := range p.Segments {
		start := assTimestamp(seg.StartSec)
		end := assTimestamp(seg.EndSec)

		var text string
		switch {
		case bilingual && seg.Translated != "":
			text = escapeASSText(seg.Translated) + `\N{\rSecondary}` + escapeASSText(seg.Text)
		case seg.Translated != "":
			text = escapeASSText(seg.Translated)
		default:
			text = escapeASSText(seg.Text)
		}

		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Primary,,0,0,0,,%s\n", start, end, text)
	}
	return b.String(), nil
}
