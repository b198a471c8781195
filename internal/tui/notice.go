package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type severity int

const (
	severityInfo severity = iota
	severitySuccess
	severityError
)

const (
	loginNoticeTTL = 4 * time.Second
	noticeTTL      = 6 * time.Second
)

// noticeMsg asks the app to show a transient notification.
type noticeMsg struct {
	text     string
	severity severity
	ttl      time.Duration
}

// noticeExpiredMsg hides notification id if it is still the one shown.
type noticeExpiredMsg struct {
	id int
}

func notify(text string, sev severity, ttl time.Duration) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{text: text, severity: sev, ttl: ttl}
	}
}

// notice is the single notification slot at the bottom of the screen. A new
// notice replaces the old one; each carries an id so only its own expiry
// hides it.
type notice struct {
	id       int
	text     string
	severity severity
}

func (n notice) show(msg noticeMsg) (notice, tea.Cmd) {
	n.id++
	n.text = msg.text
	n.severity = msg.severity
	id := n.id
	ttl := msg.ttl
	if ttl <= 0 {
		ttl = noticeTTL
	}
	return n, tea.Tick(ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (n notice) expire(msg noticeExpiredMsg) notice {
	if msg.id == n.id {
		n.text = ""
	}
	return n
}

func (n notice) View() string {
	if n.text == "" {
		return ""
	}
	switch n.severity {
	case severitySuccess:
		return " " + successStyle.Render("✓ "+n.text)
	case severityError:
		return " " + errorStyle.Render("✗ "+n.text)
	}
	return " " + infoStyle.Render("• "+n.text)
}
