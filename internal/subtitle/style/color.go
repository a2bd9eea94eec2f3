package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

var (
	rrggbbPattern   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	aarrggbbPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{8}$`)
)

// HexToASS converts a `#RRGGBB` or `#AARRGGBB` literal into the ASS color
// representation (`&H00BBGGRR` / `&HAABBGGRR`). Invalid input returns a
// typed bad-color error.
func HexToASS(hex string) (string, error) {
	switch {
	case aarrggbbPattern.MatchString(hex):
		a, r, g, b := hex[1:3], hex[3:5], hex[5:7], hex[7:9]
		return fmt.Sprintf("&H%s%s%s%s", strings.ToUpper(a), strings.ToUpper(b), strings.ToUpper(g), strings.ToUpper(r)), nil
	case rrggbbPattern.MatchString(hex):
		r, g, b := hex[1:3], hex[3:5], hex[5:7]
		return fmt.Sprintf("&H00%s%s%s", strings.ToUpper(b), strings.ToUpper(g), strings.ToUpper(r)), nil
	default:
		return "", subgenerr.BadColor(hex)
	}
}

var assColorPattern = regexp.MustCompile(`^&H([0-9A-Fa-f]{2})([0-9A-Fa-f]{2})([0-9A-Fa-f]{2})([0-9A-Fa-f]{2})$`)

// ASSToHex inverts HexToASS. If the alpha channel is "00" the result is a
// bare `#RRGGBB`; otherwise it includes the alpha channel as `#AARRGGBB`.
// Hex digits come back upper-case, and a `#00RRGGBB` input to HexToASS
// comes back as `#RRGGBB`.
func ASSToHex(ass string) (string, error) {
	m := assColorPattern.FindStringSubmatch(ass)
	if m == nil {
		return "", subgenerr.BadColor(ass)
	}
	a, b, g, r := m[1], m[2], m[3], m[4]
	if strings.EqualFold(a, "00") {
		return fmt.Sprintf("#%s%s%s", strings.ToUpper(r), strings.ToUpper(g), strings.ToUpper(b)), nil
	}
	return fmt.Sprintf("#%s%s%s%s", strings.ToUpper(a), strings.ToUpper(r), strings.ToUpper(g), strings.ToUpper(b)), nil
}

// ValidateHex reports whether s is a well-formed #RRGGBB or #AARRGGBB literal.
func ValidateHex(s string) error {
	if rrggbbPattern.MatchString(s) || aarrggbbPattern.MatchString(s) {
		return nil
	}
	return subgenerr.BadColor(s)
}

// mustParseByte is a small helper kept for callers that already validated
// the hex pair and want the numeric value; nothing in the package calls it.
func mustParseByte(hexPair string) int {
	v, _ := strconv.ParseUint(hexPair, 16, 8)
	return int(v)
}
