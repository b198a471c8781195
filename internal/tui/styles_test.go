package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStateStyleKnownStates(t *testing.T) {
	for _, state := range []string{"anonymous", "authenticated", "verified"} {
		t.Run(state, func(t *testing.T) {
			rendered := StateStyle(state).Render(state)
			if !strings.Contains(rendered, state) {
				t.Errorf("StateStyle(%q).Render(%q) = %q, want to contain %q", state, state, rendered, state)
			}
		})
	}
}

func TestStateStyleUnknownFallback(t *testing.T) {
	rendered := StateStyle("weird").Render("weird")
	if !strings.Contains(rendered, "weird") {
		t.Errorf("StateStyle fallback did not render text: %q", rendered)
	}
}

func TestButtonRendersLabel(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		if got := button("Upload", enabled); !strings.Contains(got, "Upload") {
			t.Errorf("button(Upload, %v) = %q, missing label", enabled, got)
		}
	}
}

func TestCardWidthClamped(t *testing.T) {
	tests := []struct {
		termWidth int
		maxWidth  int
	}{
		{0, 40},
		{50, 50},
		{200, 70},
	}
	for _, tc := range tests {
		out := card("hello", tc.termWidth)
		if !strings.Contains(out, "hello") {
			t.Errorf("card(%d) lost content: %q", tc.termWidth, out)
		}
		if w := lipgloss.Width(out); w > tc.maxWidth {
			t.Errorf("card(%d) width = %d, want <= %d", tc.termWidth, w, tc.maxWidth)
		}
	}
}

func TestSpinnerCycles(t *testing.T) {
	if spinner(0) == "" {
		t.Fatal("spinner(0) is empty")
	}
	if spinner(0) != spinner(len(spinnerFrames)) {
		t.Error("spinner should wrap around after the last frame")
	}
}

func TestHelpEntryFormat(t *testing.T) {
	result := helpEntry("q", "quit")
	if !strings.Contains(result, "q") || !strings.Contains(result, "quit") {
		t.Errorf("helpEntry('q','quit') = %q, want key and label", result)
	}
}

func TestHelpBarPairs(t *testing.T) {
	bar := helpBar("enter", "upload", "esc", "back", "dangling")
	for _, want := range []string{"enter", "upload", "esc", "back"} {
		if !strings.Contains(bar, want) {
			t.Errorf("helpBar missing %q: %q", want, bar)
		}
	}
	if strings.Contains(bar, "dangling") {
		t.Errorf("helpBar rendered an unpaired key: %q", bar)
	}
}
