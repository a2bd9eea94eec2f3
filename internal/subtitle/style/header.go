package style

import (
	"fmt"
	"strings"
)

func boolToASS(b bool) int {
	if b {
		return -1
	}
	return 0
}

// styleLine renders one "Style:" line for the given name and font.
func styleLine(name string, f FontStyle, p Profile) (string, error) {
	primary, err := HexToASS(f.PrimaryColor)
	if err != nil {
		return "", err
	}
	outline, err := HexToASS(f.OutlineColor)
	if err != nil {
		return "", err
	}
	// Secondary/back colors are derived at export time: secondary
	// karaoke color is unused by this encoder so it mirrors primary, and
	// back color mirrors outline, matching how single-pass ASS subtitle
	// renderers commonly default these two fields.
	return fmt.Sprintf(
		"Style: %s,%s,%d,%s,%s,%s,%s,%d,%d,0,0,100,100,%g,0,1,%g,%g,%d,%d,%d,%d,1",
		name, f.FontName, f.PointSize,
		primary, primary, outline, outline,
		boolToASS(f.Bold), boolToASS(f.Italic),
		p.LineSpacing, f.OutlineWidth, f.ShadowWidth,
		p.Alignment, p.MarginL, p.MarginR, p.MarginV,
	), nil
}

// Header renders the [Script Info] and [V4+ Styles] sections from a
// Profile's primary and secondary FontStyles.
func Header(p Profile) (string, error) {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", p.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", p.PlayResY)
	b.WriteString("WrapStyle: 0\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")

	primaryLine, err := styleLine("Primary", p.Primary, p)
	if err != nil {
		return "", err
	}
	secondaryLine, err := styleLine("Secondary", p.Secondary, p)
	if err != nil {
		return "", err
	}
	b.WriteString(primaryLine + "\n")
	b.WriteString(secondaryLine + "\n\n")

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	return b.String(), nil
}
