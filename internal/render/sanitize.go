// Package render turns generated documentation into safe, readable
// terminal text.
package render

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every HTML element. Documentation is markdown; stray HTML in
// it would print as noise in a terminal.
var strict = bluemonday.StrictPolicy()

// Sanitize strips HTML from prose and terminal control sequences from
// everything. Fenced code blocks and inline code spans keep their text
// verbatim apart from control characters, so generics like List<T> survive.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			lines[i] = stripControl(line)
			continue
		}
		if inFence {
			lines[i] = stripControl(line)
			continue
		}
		lines[i] = sanitizeProse(line)
	}
	return strings.Join(lines, "\n")
}

func sanitizeProse(line string) string {
	parts := strings.Split(line, "`")
	for i, p := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			// Inside a closed inline code span.
			parts[i] = stripControl(p)
			continue
		}
		parts[i] = stripControl(html.UnescapeString(strict.Sanitize(p)))
	}
	return strings.Join(parts, "`")
}

// stripControl removes C0/C1 control characters except tab, which keeps
// escape sequences in backend output from driving the terminal.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return -1
		}
		return r
	}, s)
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}
