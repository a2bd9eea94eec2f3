// Package encode implements the subtitle-file encoders: SRT, WebVTT, and
// styled ASS, generated from a subtitle.Project.
package encode

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/lsilvatti/subgen/internal/subtitle"
)

// formatSRTTimestamp renders seconds as HH:MM:SS,mmm, rounding to the
// nearest millisecond so binary float representations of values like 1.2
// never truncate down to ,199.
func formatSRTTimestamp(sec float64) string {
	total := int64(sec*1000 + 0.5)
	h := total / 3600000
	total -= h * 3600000
	m := total / 60000
	total -= m * 60000
	s := total / 1000
	ms := total - s*1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func parseSRTTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ","))
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	h, err := strconv.Atoi(hms[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(hms[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.Atoi(hms[2])
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return float64(h*3600+m*60+sec) + float64(ms)/1000.0, nil
}

// SRT renders a Project as SubRip text. In bilingual mode each cue
// carries the source line first, translated line second, separated by a
// newline.
func SRT(p *subtitle.Project, bilingual bool) string {
	var b strings.Builder
	for i, seg := range p.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTimestamp(seg.StartSec), formatSRTTimestamp(seg.EndSec))
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

var srtTimeLine = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,.]\d{3})`)

// LoadSRT parses SubRip text back into segments. When bilingual is true,
// the first text line of each cue is treated as source and the second as
// translated — the same convention SRT writes, so encode-then-load is
// idempotent.
func LoadSRT(r *os.File, bilingual bool) ([]subtitle.Segment, error) {
	scanner := bufio.NewScanner(r)
	var segs []subtitle.Segment
	state := 0 // 0=index, 1=timing, 2=text
	var cur subtitle.Segment
	var lines []string

	flush := func() {
		if len(lines) == 0 {
			return
		}
		if bilingual && len(lines) >= 2 {
			cur.Text = lines[0]
			cur.Translated = strings.Join(lines[1:], "\n")
		} else {
			cur.Text = strings.Join(lines, "\n")
		}
		segs = append(segs, cur)
		lines = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch state {
		case 0:
			if line == "" {
				continue
			}
			if _, err := strconv.Atoi(line); err == nil {
				cur = subtitle.Segment{}
				state = 1
			}
		case 1:
			if m := srtTimeLine.FindStringSubmatch(line); m != nil {
				start, err := parseSRTTimestamp(m[1])
				if err != nil {
					return nil, fmt.Errorf("load srt: %w", err)
				}
				end, err := parseSRTTimestamp(m[2])
				if err != nil {
					return nil, fmt.Errorf("load srt: %w", err)
				}
				cur.StartSec, cur.EndSec = start, end
				state = 2
			}
		case 2:
			if line == "" {
				flush()
				state = 0
			} else {
				lines = append(lines, line)
			}
		}
	}
	if state == 2 {
		flush()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return segs, nil
}
