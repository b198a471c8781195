package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autodoc-cli/autodoc/internal/logger"
	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
	"github.com/autodoc-cli/autodoc/pkg/domain"
)

const (
	loginEmail = iota
	loginPassword
)

type loginResultMsg struct {
	resp *domain.LoginResponse
	err  error
}

// prefillLoginMsg carries the address a fresh signup used.
type prefillLoginMsg struct {
	email string
}

func prefillLogin(email string) tea.Cmd {
	return func() tea.Msg {
		return prefillLoginMsg{email: email}
	}
}

type loginModel struct {
	deps
	form          form
	pending       bool
	status        string
	redirectDelay time.Duration
}

func newLoginModel(d deps, redirectDelay time.Duration) loginModel {
	return loginModel{
		deps: d,
		form: newForm(
			formField{label: "Email Address", placeholder: "you@example.com"},
			formField{label: "Password", secret: true},
		),
		redirectDelay: redirectDelay,
	}
}

func (m loginModel) enter() loginModel {
	m.status = ""
	return m
}

func (m loginModel) busy() bool {
	return m.pending
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.pending = false
		if msg.err != nil {
			m.log.Warn("login failed", logger.Err(msg.err))
			text := client.UserMessage(msg.err, "Login failed. Try again.")
			return m, notify(text, severityError, loginNoticeTTL)
		}
		if msg.resp != nil && msg.resp.Access != "" {
			if err := m.guard.OnLoginSuccess(msg.resp.Access); err != nil {
				m.log.Error("store session token", logger.Err(err))
				return m, notify("Login succeeded but the session could not be saved.", severityError, loginNoticeTTL)
			}
		} else {
			m.log.Warn("login response carried no token")
			// A session left from an earlier account must not satisfy the
			// dashboard guard.
			if _, err := m.guard.OnLogout(); err != nil {
				m.log.Error("clear previous session", logger.Err(err))
			}
		}
		m.form.set(loginPassword, "")
		m.form.focus = loginEmail
		return m, tea.Batch(
			notify("Login successful!", severitySuccess, loginNoticeTTL),
			navigateAfter(m.redirectDelay, session.RouteLogin, session.RouteDashboard),
		)

	case prefillLoginMsg:
		if m.form.value(loginEmail) == "" {
			m.form.set(loginEmail, msg.email)
			m.form.focus = loginPassword
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlN {
			return m, navigate(session.RouteLogin, session.RouteSignup)
		}
		var submit bool
		m.form, submit = m.form.update(msg)
		if submit {
			return m.submit()
		}
		m.status = ""
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	creds := domain.Credentials{
		Email:    m.form.trimmed(loginEmail),
		Password: m.form.trimmed(loginPassword),
	}
	if err := domain.Validate(creds); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			m.status = ve.Message
		} else {
			m.status = err.Error()
		}
		return m, nil
	}

	m.pending = true
	m.status = ""
	c := m.client
	return m, func() tea.Msg {
		resp, err := c.Login(context.Background(), creds)
		return loginResultMsg{resp: resp, err: err}
	}
}

func (m loginModel) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome Back") + "\n")
	b.WriteString(dimStyle.Render("Login to continue") + "\n\n")
	b.WriteString(m.form.View(!m.pending))
	b.WriteString("\n")
	if m.pending {
		b.WriteString(button("Logging in…", false))
	} else {
		b.WriteString(button("Login", true))
	}
	if m.status != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.status))
	}
	b.WriteString("\n\n" + dimStyle.Render("Don't have an account? ") + helpEntry("ctrl+n", "sign up"))
	return "\n" + card(b.String(), width)
}

func (m loginModel) help() string {
	return helpBar("tab", "next", "enter", "login", "ctrl+n", "sign up", "esc", "back", "ctrl+c", "quit")
}
