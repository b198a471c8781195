package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autodoc-cli/autodoc/internal/logger"
	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
)

// deps is what every screen is handed: the API client and the session
// guard. Screens never read the token store directly.
type deps struct {
	client *client.Client
	guard  *session.Guard
	log    *slog.Logger
}

// navigateMsg asks the app to show another screen. from is the screen that
// asked; a request from a screen no longer shown is dropped so a late
// response cannot yank the user somewhere else.
type navigateMsg struct {
	from session.Route
	to   session.Route
}

func navigate(from, to session.Route) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{from: from, to: to}
	}
}

func navigateAfter(d time.Duration, from, to session.Route) tea.Cmd {
	if d <= 0 {
		return navigate(from, to)
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return navigateMsg{from: from, to: to}
	})
}

const msgSessionExpired = "Session expired. Please log in again."

// rejectSession ends the session after the backend refused token and sends
// the user from route to login.
func (d deps) rejectSession(from session.Route, token string) tea.Cmd {
	next, err := d.guard.OnAuthRejected(token)
	if err != nil {
		d.log.Error("clear rejected token", logger.Err(err))
	}
	return tea.Batch(
		notify(msgSessionExpired, severityError, noticeTTL),
		navigate(from, next),
	)
}
