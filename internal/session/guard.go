// Package session keeps the client's bearer token and decides which screens
// may be shown.
//
// A stored, non-empty token is the only thing that makes a session
// "authenticated". Nothing is verified locally: the token is trusted until
// a protected request is rejected by the backend, at which point it is
// cleared.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/autodoc-cli/autodoc/internal/logger"
)

var (
	// ErrEmptyToken is returned when a login produced no token to store.
	ErrEmptyToken = errors.New("empty session token")
	// ErrNoToken is returned when an operation needs a stored token.
	ErrNoToken = errors.New("not logged in")
)

// Guard mediates between the token store and navigation. It is safe for
// concurrent use; screens read it from the UI goroutine while requests read
// it from command goroutines.
type Guard struct {
	mu    sync.Mutex
	store Store
	log   *slog.Logger
	// verified is the token that last succeeded on a protected request.
	verified string
	// readErr is the last store read failure, logged once until it changes.
	readErr string
}

// NewGuard returns a guard over store. log may be nil.
func NewGuard(store Store, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Guard{store: store, log: log.With(slog.String("component", "session"))}
}

// Token returns the stored token, or "" when there is none or the store
// cannot be read.
func (g *Guard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadLocked()
}

func (g *Guard) loadLocked() string {
	tok, err := g.store.Load()
	if err != nil {
		if msg := err.Error(); msg != g.readErr {
			g.readErr = msg
			g.log.Warn("read token failed, treating session as anonymous", logger.Err(err))
		}
		return ""
	}
	if g.readErr != "" {
		g.log.Info("token readable again")
		g.readErr = ""
	}
	return strings.TrimSpace(tok)
}

// IsAuthenticated reports whether a non-empty token is stored. It never
// touches the network.
func (g *Guard) IsAuthenticated() bool {
	return g.Token() != ""
}

// State derives the lifecycle state from the store, so tokens written or
// removed by another process are picked up.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	tok := g.loadLocked()
	switch {
	case tok == "":
		return Anonymous
	case tok == g.verified:
		return Verified
	default:
		return Authenticated
	}
}

// Protect returns r when it may be shown, or RouteLogin with redirected set
// when r is protected and there is no session.
func (g *Guard) Protect(r Route) (shown Route, redirected bool) {
	if !r.Protected() || g.IsAuthenticated() {
		return r, false
	}
	g.log.Debug("redirecting to login", slog.String("route", string(r)))
	return RouteLogin, true
}

// OnLoginSuccess stores token, overwriting any previous one.
func (g *Guard) OnLoginSuccess(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("session.OnLoginSuccess: %w", ErrEmptyToken)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Save(token); err != nil {
		return fmt.Errorf("session.OnLoginSuccess: %w", err)
	}
	g.verified = ""
	g.log.Info("session started")
	return nil
}

// OnLogout removes the token and returns the route to show next.
func (g *Guard) OnLogout() (Route, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = ""
	if err := g.store.Clear(); err != nil {
		return RouteLogin, fmt.Errorf("session.OnLogout: %w", err)
	}
	g.log.Info("session ended", slog.String("reason", "logout"))
	return RouteLogin, nil
}

// OnProtectedSuccess marks token as verified if it is still the stored one.
func (g *Guard) OnProtectedSuccess(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token != "" && token == g.loadLocked() {
		g.verified = token
	}
}

// OnAuthRejected clears the session after the backend rejected token. A
// rejection for a token that has since been replaced by a new login is
// ignored. It returns the route to show next.
func (g *Guard) OnAuthRejected(token string) (Route, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	current := g.loadLocked()
	if current == "" || (token != "" && token != current) {
		return RouteLogin, nil
	}
	g.verified = ""
	if err := g.store.Clear(); err != nil {
		return RouteLogin, fmt.Errorf("session.OnAuthRejected: %w", err)
	}
	g.log.Info("session ended", slog.String("reason", "rejected"))
	return RouteLogin, nil
}
