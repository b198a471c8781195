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
	signupName = iota
	signupEmail
	signupPassword
)

type signupResultMsg struct {
	err error
}

type signupModel struct {
	deps
	form          form
	pending       bool
	status        string
	redirectDelay time.Duration
}

func newSignupModel(d deps, redirectDelay time.Duration) signupModel {
	return signupModel{
		deps: d,
		form: newForm(
			formField{label: "Full Name", placeholder: "Ada Lovelace"},
			formField{label: "Email Address", placeholder: "you@example.com"},
			formField{label: "Password", secret: true},
		),
		redirectDelay: redirectDelay,
	}
}

// enter resets the inline status; typed values survive a round trip to
// the login screen.
func (m signupModel) enter() signupModel {
	m.status = ""
	return m
}

func (m signupModel) busy() bool {
	return m.pending
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signupResultMsg:
		m.pending = false
		if msg.err != nil {
			m.log.Warn("signup failed", logger.Err(msg.err))
			text := client.UserMessage(msg.err, "Signup failed. Try again.")
			return m, notify(text, severityError, noticeTTL)
		}
		m.log.Info("signup succeeded")
		email := m.form.trimmed(signupEmail)
		m.form = newSignupModel(m.deps, 0).form
		return m, tea.Batch(
			notify("Signup successful!", severitySuccess, noticeTTL),
			navigateAfter(m.redirectDelay, session.RouteSignup, session.RouteLogin),
			prefillLogin(email),
		)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlL {
			return m, navigate(session.RouteSignup, session.RouteLogin)
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

func (m signupModel) submit() (signupModel, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	req := domain.SignupRequest{
		Name:     m.form.trimmed(signupName),
		Email:    m.form.trimmed(signupEmail),
		Password: m.form.trimmed(signupPassword),
	}
	if err := domain.Validate(req); err != nil {
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
		return signupResultMsg{err: c.Signup(context.Background(), req)}
	}
}

func (m signupModel) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create Account") + "\n")
	b.WriteString(dimStyle.Render("Join us and start your journey") + "\n\n")
	b.WriteString(m.form.View(!m.pending))
	b.WriteString("\n")
	if m.pending {
		b.WriteString(button("Signing up…", false))
	} else {
		b.WriteString(button("Sign Up", true))
	}
	if m.status != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.status))
	}
	b.WriteString("\n\n" + dimStyle.Render("Already have an account? ") + helpEntry("ctrl+l", "login"))
	return "\n" + card(b.String(), width)
}

func (m signupModel) help() string {
	return helpBar("tab", "next", "enter", "sign up", "ctrl+l", "login", "esc", "back", "ctrl+c", "quit")
}
