package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
)

// DefaultRedirectDelay is how long a success notice stays on screen before
// the app moves on to the next screen.
const DefaultRedirectDelay = 1500 * time.Millisecond

const maxHistory = 20

// Settings tunes the app. The zero value is usable.
type Settings struct {
	// OutputDir is where generated PDFs are saved.
	OutputDir string
	// RedirectDelay overrides DefaultRedirectDelay. Negative means none.
	RedirectDelay time.Duration
	Logger        *slog.Logger
	// SessionChanges, when set, signals that the stored token was changed
	// by another process.
	SessionChanges <-chan struct{}
}

// App is the root Bubbletea model. It owns the current route and sends every
// route change through the session guard.
type App struct {
	client  *client.Client
	guard   *session.Guard
	log     *slog.Logger
	route   session.Route
	history []session.Route
	initCmd tea.Cmd
	changes <-chan struct{}
	// state is the session state as of the last Update; View reads it
	// instead of the store.
	state session.State

	signup    signupModel
	login     loginModel
	dashboard dashboardModel
	upload    uploadModel

	notice notice
	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates a new TUI application. Users with a stored token start on
// the dashboard; everyone else starts on signup.
func NewApp(c *client.Client, g *session.Guard, s Settings) App {
	log := s.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	delay := s.RedirectDelay
	switch {
	case delay == 0:
		delay = DefaultRedirectDelay
	case delay < 0:
		delay = 0
	}

	d := deps{client: c, guard: g, log: log}
	a := App{
		client:    c,
		guard:     g,
		log:       log,
		changes:   s.SessionChanges,
		signup:    newSignupModel(d, delay),
		login:     newLoginModel(d, delay),
		dashboard: newDashboardModel(d),
		upload:    newUploadModel(d, s.OutputDir),
	}

	start := session.RouteRoot
	if g.IsAuthenticated() {
		start = session.RouteDashboard
	}
	a.route, _ = g.Protect(start)
	var cmd tea.Cmd
	a, cmd = a.enter(a.route)
	a.initCmd = cmd
	a.state = g.State()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.initCmd, a.waitSessionChange())
}

type sessionChangedMsg struct{}

// waitSessionChange blocks on the next external token change. It returns nil
// when nothing is watched or the watcher has stopped.
func (a App) waitSessionChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

// sessionChanged leaves a protected screen whose session was removed
// elsewhere.
func (a App) sessionChanged() (App, tea.Cmd) {
	wait := a.waitSessionChange()
	if !a.route.Protected() || a.guard.IsAuthenticated() {
		return a, wait
	}
	a.log.Info("session removed externally", slog.String("route", string(a.route)))
	a, cmd := a.navigate(session.RouteLogin)
	return a, tea.Batch(cmd, notify("Session ended in another terminal.", severityInfo, noticeTTL), wait)
}

// Route returns the screen currently shown.
func (a App) Route() session.Route {
	return a.route
}

// navigate shows route r, or login if r is protected and there is no
// session.
func (a App) navigate(r session.Route) (App, tea.Cmd) {
	shown, redirected := a.guard.Protect(r)
	if shown != a.route {
		a.history = append(a.history, a.route)
		if len(a.history) > maxHistory {
			a.history = a.history[len(a.history)-maxHistory:]
		}
	}
	return a.show(shown, redirected)
}

// back returns to the previous screen, still subject to the guard.
func (a App) back() (App, tea.Cmd) {
	if len(a.history) == 0 {
		return a, nil
	}
	prev := a.history[len(a.history)-1]
	a.history = a.history[:len(a.history)-1]
	shown, redirected := a.guard.Protect(prev)
	return a.show(shown, redirected)
}

func (a App) show(r session.Route, redirected bool) (App, tea.Cmd) {
	a.log.Debug("navigate", slog.String("from", string(a.route)), slog.String("to", string(r)), slog.Bool("redirected", redirected))
	a.route = r
	a, cmd := a.enter(r)
	if redirected {
		cmd = tea.Batch(cmd, notify("Please log in to continue.", severityInfo, noticeTTL))
	}
	return a, cmd
}

func (a App) enter(r session.Route) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch r {
	case session.RouteSignup:
		a.signup = a.signup.enter()
	case session.RouteLogin:
		a.login = a.login.enter()
	case session.RouteDashboard:
		a.dashboard, cmd = a.dashboard.enter()
	case session.RouteUpload:
		a.upload = a.upload.enter()
	}
	return a, cmd
}

// Update handles msg and then refreshes the cached session state. Timer
// messages leave the session untouched, so the state is not re-read for
// them.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a, cmd := a.update(msg)
	switch msg.(type) {
	case shimmerTickMsg, noticeExpiredMsg:
	default:
		a.state = a.guard.State()
	}
	return a, cmd
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + breadcrumb(1) + notice(1) + help(1) = 5 lines
		a.upload, _ = a.upload.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5})
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case noticeMsg:
		a.notice, cmd = a.notice.show(msg)
		return a, cmd

	case noticeExpiredMsg:
		a.notice = a.notice.expire(msg)
		return a, nil

	case sessionChangedMsg:
		return a.sessionChanged()

	case navigateMsg:
		if msg.from != "" && msg.from != a.route {
			a.log.Debug("drop stale navigation", slog.String("from", string(msg.from)), slog.String("to", string(msg.to)))
			return a, nil
		}
		return a.navigate(msg.to)

	// Results go to the screen that asked for them even if the user has
	// moved on, so session changes they carry are never lost.
	case signupResultMsg:
		a.signup, cmd = a.signup.Update(msg)
		return a, cmd
	case loginResultMsg, prefillLoginMsg:
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	case profileLoadedMsg:
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd
	case uploadResultMsg, pdfResultMsg, pdfSavedMsg, copyResultMsg:
		a.upload, cmd = a.upload.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			return a.back()
		case "q":
			if a.route == session.RouteDashboard {
				return a, tea.Quit
			}
		}
	}

	switch a.route {
	case session.RouteSignup:
		a.signup, cmd = a.signup.Update(msg)
	case session.RouteLogin:
		a.login, cmd = a.login.Update(msg)
	case session.RouteDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case session.RouteUpload:
		a.upload, cmd = a.upload.Update(msg)
	}
	return a, cmd
}

func (a App) busy() bool {
	switch a.route {
	case session.RouteSignup:
		return a.signup.busy()
	case session.RouteLogin:
		return a.login.busy()
	case session.RouteDashboard:
		return a.dashboard.busy()
	case session.RouteUpload:
		return a.upload.busy()
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width)

	state := a.state.String()
	status := StateStyle(state).Render(state)
	if p := a.dashboard.profile; p != nil && a.state != session.Anonymous && p.Username != "" {
		status += metaStyle.Render(" . " + p.Username)
	}
	if a.busy() {
		status += " " + spinner(a.frame)
	}
	header += "\n" + center(status, a.width)

	// Breadcrumb of the four screens; locked ones are dimmed for anonymous users.
	var crumbs []string
	authed := a.state != session.Anonymous
	for _, r := range []session.Route{session.RouteSignup, session.RouteLogin, session.RouteDashboard, session.RouteUpload} {
		label := string(r)
		switch {
		case r == a.route:
			crumbs = append(crumbs, selectedStyle.Underline(true).Render(label))
		case r.Protected() && !authed:
			crumbs = append(crumbs, dimStyle.Render(label+" (locked)"))
		default:
			crumbs = append(crumbs, metaStyle.Render(label))
		}
	}
	breadcrumb := center(strings.Join(crumbs, dimStyle.Render("  .  ")), a.width)

	var body, help string
	switch a.route {
	case session.RouteSignup:
		body, help = a.signup.View(a.width), a.signup.help()
	case session.RouteLogin:
		body, help = a.login.View(a.width), a.login.help()
	case session.RouteDashboard:
		body, help = a.dashboard.View(a.width), a.dashboard.help()
	case session.RouteUpload:
		body, help = a.upload.View(a.width), a.upload.help()
	}

	// Chrome budget: header(2) + breadcrumb(1) + notice(1) + help(1) = 5 lines + body
	chrome := 5
	if a.height > chrome {
		body = truncateToHeight(body, a.height-chrome)
	}
	body = strings.TrimRight(body, "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, breadcrumb, body, a.notice.View(), help)
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
