package render

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)

	subheadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c8a84c"))

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0")).
			Italic(true)

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858"))

	boldStyle = lipgloss.NewStyle().Bold(true)
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	bulletRe  = regexp.MustCompile(`^(\s*)[-*+]\s+(.*)$`)
	orderedRe = regexp.MustCompile(`^(\s*)(\d+)[.)]\s+(.*)$`)
	ruleRe    = regexp.MustCompile(`^\s*([-*_])(\s*[-*_]){2,}\s*$`)
	boldRe    = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	codeRe    = regexp.MustCompile("`([^`]+)`")
)

// Documentation sanitizes markdown (or HTML) text and formats it for a
// terminal of the given width. Width <= 0 disables wrapping.
func Documentation(text string, width int) string {
	text = Sanitize(Markdown(text))
	if strings.TrimSpace(text) == "" {
		return ""
	}

	wrap := func(s string) string {
		if width <= 0 {
			return s
		}
		return lipgloss.NewStyle().Width(width).Render(s)
	}

	var b strings.Builder
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			b.WriteString("    " + codeStyle.Render(line) + "\n")
			continue
		}

		switch {
		case strings.TrimSpace(line) == "":
			b.WriteString("\n")
		case headingRe.MatchString(line):
			m := headingRe.FindStringSubmatch(line)
			if len(m[1]) == 1 {
				title := inline(strings.ToUpper(m[2]))
				b.WriteString(headingStyle.Render(title) + "\n")
				b.WriteString(ruleStyle.Render(strings.Repeat("─", ruleWidth(title, width))) + "\n")
			} else {
				b.WriteString(subheadingStyle.Render(inline(m[2])) + "\n")
			}
		case ruleRe.MatchString(line):
			b.WriteString(ruleStyle.Render(strings.Repeat("─", ruleWidth("", width))) + "\n")
		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			b.WriteString(wrap(m[1]+"  • "+inline(m[2])) + "\n")
		case orderedRe.MatchString(line):
			m := orderedRe.FindStringSubmatch(line)
			b.WriteString(wrap(m[1]+"  "+m[2]+". "+inline(m[3])) + "\n")
		case strings.HasPrefix(strings.TrimSpace(line), ">"):
			q := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ">"))
			b.WriteString(quoteStyle.Render("│ "+q) + "\n")
		default:
			b.WriteString(wrap(textStyle.Render(inline(line))) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// inline styles **bold** and `code` spans.
func inline(s string) string {
	s = codeRe.ReplaceAllStringFunc(s, func(m string) string {
		return codeStyle.Render(strings.Trim(m, "`"))
	})
	return boldRe.ReplaceAllStringFunc(s, func(m string) string {
		return boldStyle.Render(m[2 : len(m)-2])
	})
}

func ruleWidth(title string, width int) int {
	w := lipgloss.Width(title)
	if w < 20 {
		w = 20
	}
	if width > 0 && w > width {
		w = width
	}
	return w
}
