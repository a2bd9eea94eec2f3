package encode

import (
	"fmt"
	"strings"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

// formatVTTTimestamp renders seconds as HH:MM:SS.mmm, rounded to the
// nearest millisecond like the SRT formatter.
func formatVTTTimestamp(sec float64) string {
	total := int64(sec*1000 + 0.5)
	h := total / 3600000
	total -= h * 3600000
	m := total / 60000
	total -= m * 60000
	s := total / 1000
	ms := total - s*1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// VTT renders a Project as WebVTT text.
func VTT(p *subtitle.Project, bilingual bool) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, seg := range p.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatVTTTimestamp(seg.StartSec), formatVTTTimestamp(seg.EndSec))
		if bilingual && seg.Translated != "" {
			b.WriteString(seg.Text)
			b.WriteString("\n")
			b.WriteString(seg.Translated)
		} else if seg.Translated != "" {
			b.WriteString(seg.Translated)
		} else {
			b.WriteString(seg.Text)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
