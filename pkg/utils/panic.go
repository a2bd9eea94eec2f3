package utils

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

const (
	Version = "v1.0.0"
	RepoURL = "https://github.com/lsilvatti/subgen"
)

// RecoverPanic is the global panic handler installed by cmd/subgen's
// main: a programming-error panic still needs a readable report instead
// of a raw Go trace dumped to a terminal. The report is plain text on
// stderr; there is no TUI to host anything fancier.
func RecoverPanic() {
	if r := recover(); r != nil {
		fmt.Fprint(os.Stderr, renderCrashReport(r))
		os.Exit(1)
	}
}

func renderCrashReport(panicValue interface{}) string {
	width := 80

	var b strings.Builder
	b.WriteString(strings.Repeat("=", width))
	b.WriteString("\n")

	title := "SUBGEN CRASHED"
	padding := (width - len(title)) / 2
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(centerText("SubGen hit an internal error and has to stop.", width))
	b.WriteString("\n\n")

	panicMsg := fmt.Sprintf("%v", panicValue)
	b.WriteString("Error details:\n")
	b.WriteString(wrapText(panicMsg, width-4, "  "))
	b.WriteString("\n\n")

	stack := string(debug.Stack())
	b.WriteString("Stack trace:\n")
	stackLines := strings.Split(stack, "\n")

	displayLines := 10
	if len(stackLines) < displayLines {
		displayLines = len(stackLines)
	}
	for i := 0; i < displayLines; i++ {
		if len(stackLines[i]) > width-4 {
			b.WriteString("  " + stackLines[i][:width-7] + "...")
		} else {
			b.WriteString("  " + stackLines[i])
		}
		b.WriteString("\n")
	}
	if len(stackLines) > displayLines {
		b.WriteString(fmt.Sprintf("  ... and %d more lines\n", len(stackLines)-displayLines))
	}
	b.WriteString("\n")

	b.WriteString(centerText("Please report this at:", width))
	b.WriteString("\n")
	b.WriteString(centerText(RepoURL+"/issues/new", width))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", width))
	b.WriteString("\n")

	return b.String()
}

func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	var currentLine string

	for _, word := range words {
		if len(currentLine)+len(word)+1 > width {
			lines = append(lines, indent+currentLine)
			currentLine = word
		} else {
			if currentLine != "" {
				currentLine += " "
			}
			currentLine += word
		}
	}
	if currentLine != "" {
		lines = append(lines, indent+currentLine)
	}
	return strings.Join(lines, "\n")
}

// SafeRun wraps a function with panic recovery.
func SafeRun(fn func()) {
	defer RecoverPanic()
	fn()
}
