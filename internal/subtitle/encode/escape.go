package encode

import "strings"

// EscapeFilterPath escapes a subtitle file path for use inside an ffmpeg
// `-vf subtitles=...` filter-graph argument (hard-burn mode).
// The filter-graph parser treats colon, comma, semicolon, equals,
// single-quote, and backslash as syntactically significant, so each must
// be backslash-escaped; on top of that the whole path is wrapped in single
// quotes, so embedded single quotes need the libavfilter triple-escape.
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\\\`)
	path = strings.ReplaceAll(path, ":", `\:`)
	path = strings.ReplaceAll(path, "'", `'\\\''`)
	path = strings.ReplaceAll(path, ",", `\,`)
	path = strings.ReplaceAll(path, ";", `\;`)
	path = strings.ReplaceAll(path, "=", `\=`)
	path = strings.ReplaceAll(path, "@", `\@`)
	path = strings.ReplaceAll(path, "[", `\[`)
	path = strings.ReplaceAll(path, "]", `\]`)
	return "'" + path + "'"
}
