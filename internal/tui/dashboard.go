package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autodoc-cli/autodoc/internal/logger"
	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
	"github.com/autodoc-cli/autodoc/pkg/domain"
)

// profileLoadedMsg carries the dashboard response together with the token
// the request was sent with.
type profileLoadedMsg struct {
	seq     int
	token   string
	profile *domain.Profile
	err     error
}

type dashboardModel struct {
	deps
	seq     int
	loading bool
	profile *domain.Profile
	expires time.Time
}

func newDashboardModel(d deps) dashboardModel {
	return dashboardModel{deps: d}
}

// enter starts a fresh profile load. Each load gets a sequence number so a
// slow earlier response cannot overwrite a newer one.
func (m dashboardModel) enter() (dashboardModel, tea.Cmd) {
	m.seq++
	m.loading = true
	m.profile = nil
	m.expires = time.Time{}

	seq := m.seq
	token := m.guard.Token()
	if claims, err := session.PeekClaims(token); err == nil {
		m.expires = claims.ExpiresAt
	}
	c := m.client
	return m, func() tea.Msg {
		p, err := c.Dashboard(context.Background())
		return profileLoadedMsg{seq: seq, token: token, profile: p, err: err}
	}
}

func (m dashboardModel) busy() bool {
	return m.loading
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.seq == m.seq {
			m.loading = false
		}
		if msg.err != nil {
			m.log.Warn("dashboard load failed", logger.Err(msg.err))
			if client.IsAuthRejected(msg.err) {
				return m, m.rejectSession(session.RouteDashboard, msg.token)
			}
			return m, tea.Batch(
				notify("Could not load your dashboard: "+client.Reason(msg.err), severityError, noticeTTL),
				navigate(session.RouteDashboard, session.RouteLogin),
			)
		}
		m.guard.OnProtectedSuccess(msg.token)
		if msg.seq == m.seq {
			m.profile = msg.profile
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "u":
			return m, navigate(session.RouteDashboard, session.RouteUpload)
		case "r":
			if !m.loading {
				return m.enter()
			}
		case "l":
			next, err := m.guard.OnLogout()
			if err != nil {
				m.log.Error("logout", logger.Err(err))
				return m, notify("Could not remove the saved session: "+err.Error(), severityError, noticeTTL)
			}
			m.log.Info("logged out")
			m.profile = nil
			return m, tea.Batch(
				notify("Logged out.", severityInfo, noticeTTL),
				navigate(session.RouteDashboard, next),
			)
		}
	}
	return m, nil
}

func (m dashboardModel) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard") + "\n\n")
	if m.profile == nil {
		b.WriteString(dimStyle.Render("Loading user details..."))
		return "\n" + card(b.String(), width)
	}

	name := m.profile.Username
	if name == "" {
		name = "there"
	}
	b.WriteString(normalStyle.Render("Welcome, ") + accentStyle.Render(name) + normalStyle.Render("!") + "\n")
	if m.profile.Email != "" {
		b.WriteString(metaStyle.Render(m.profile.Email) + "\n")
	}
	if !m.expires.IsZero() {
		left := time.Until(m.expires).Round(time.Minute)
		if left > 0 {
			b.WriteString(dimStyle.Render("session valid for "+left.String()) + "\n")
		} else {
			b.WriteString(dimStyle.Render("session token has expired") + "\n")
		}
	}
	b.WriteString("\n" + dimStyle.Render("Generate documentation from a source file.") + "\n\n")
	b.WriteString(button("Upload File", true))
	return "\n" + card(b.String(), width)
}

func (m dashboardModel) help() string {
	return helpBar("u", "upload", "r", "reload", "l", "logout", "esc", "back", "q", "quit")
}
