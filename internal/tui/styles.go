package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the AUTODOC logo. The same tick drives the pending
// spinner.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "AUTODOC" as a flowing wave between a deep and a
// bright blue, letters spaced apart.
func renderShimmerLogo(frame int) string {
	const text = "AUTODOC"
	n := len(text)

	var out strings.Builder
	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		// Deep:   (30, 42, 92)   #1e2a5c
		// Bright: (96, 165, 250) #60a5fa
		r := clampByte(30 + b*(96-30))
		g := clampByte(42 + b*(165-42))
		bl := clampByte(92 + b*(250-92))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out.WriteString(s.Render(string(text[i])))

		if i < n-1 {
			out.WriteString("  ")
		}
	}

	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner returns the pending indicator for frame.
func spinner(frame int) string {
	return accentStyle.Render(spinnerFrames[frame%len(spinnerFrames)])
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	// Notification severities
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a0e0"))

	// Buttons
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111118")).
			Background(lipgloss.Color("#60a5fa")).
			Bold(true).
			Padding(0, 2)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#505868")).
				Background(lipgloss.Color("#1e1e2a")).
				Padding(0, 2)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#60a5fa")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Surface colors
	borderColor  = lipgloss.Color("#2a3350")
	surfaceColor = lipgloss.Color("#111118")

	// Session state badges
	stateColors = map[string]lipgloss.Color{
		"anonymous":     lipgloss.Color("#8890a0"),
		"authenticated": lipgloss.Color("#d4a844"),
		"verified":      lipgloss.Color("#34d474"),
	}
)

// StateStyle returns a bold style colored for a session state name.
func StateStyle(state string) lipgloss.Style {
	if c, ok := stateColors[state]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// button renders a labelled action, greyed out when disabled.
func button(label string, enabled bool) string {
	if enabled {
		return buttonStyle.Render(label)
	}
	return buttonDisabledStyle.Render(label)
}

// card wraps content in the rounded panel every screen is drawn in.
func card(content string, width int) string {
	w := min(60, width-4)
	if w < 30 {
		w = 30
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Background(surfaceColor).
		Padding(1, 2).
		Width(w).
		Render(content)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins help entries given as key/label pairs.
func helpBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(parts, "  ")
}
