package translate

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// langCodePattern validates a language code before it is ever used to
// build a file path, preventing any path outside rulesDir from being
// reachable.
var langCodePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,4})?$`)

// ValidateLangCode reports whether code is well-formed. Called before
// the pipeline touches the filesystem for a target language.
func ValidateLangCode(code string) bool {
	return langCodePattern.MatchString(code)
}

// LoadRules reads the translation rules for targetLang from rulesDir
// with fallback priority: exact match, language family (the part before
// the first hyphen), then default.md. Returns empty string (no rules) if
// nothing is found; that is not an error.
func LoadRules(rulesDir, targetLang string) (string, error) {
	if !ValidateLangCode(targetLang) {
		return "", subgenerr.BadInput("invalid target language code", nil)
	}

	candidates := []string{targetLang + ".md"}
	if idx := indexOfHyphen(targetLang); idx >= 0 {
		candidates = append(candidates, targetLang[:idx]+".md")
	}
	candidates = append(candidates, "default.md")

	for _, name := range candidates {
		path := filepath.Join(rulesDir, name)
		// filepath.Join already collapses "..", but the language code was
		// validated above so name can only ever be "<code>.md" or
		// "default.md" — no traversal is possible regardless.
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", subgenerr.IO(path, err)
		}
	}
	return "", nil
}

func indexOfHyphen(s string) int {
	for i, c := range s {
		if c == '-' {
			return i
		}
	}
	return -1
}
