package tui

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
	"github.com/autodoc-cli/autodoc/pkg/domain"
)

func TestDashboardShowsLoadingUntilProfile(t *testing.T) {
	env := newTestEnv(t, "tok")
	m := newDashboardModel(env.deps())

	m, cmd := m.enter()
	if cmd == nil {
		t.Fatal("enter should start a profile load")
	}
	if !strings.Contains(m.View(80), "Loading user details...") {
		t.Errorf("view while loading:\n%s", m.View(80))
	}

	m, _ = m.Update(profileLoadedMsg{seq: m.seq, token: "tok", profile: &domain.Profile{Username: "ada", Email: "ada@example.com"}})
	view := m.View(80)
	for _, want := range []string{"ada", "ada@example.com", "Upload File"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboardIgnoresOlderLoad(t *testing.T) {
	env := newTestEnv(t, "tok")
	m := newDashboardModel(env.deps())
	m, _ = m.enter()
	old := m.seq
	m, _ = m.enter()

	m, _ = m.Update(profileLoadedMsg{seq: old, token: "tok", profile: &domain.Profile{Username: "stale"}})
	if m.profile != nil {
		t.Errorf("older load overwrote profile: %+v", m.profile)
	}
	if !m.loading {
		t.Error("newer load should still be pending")
	}
}

func TestDashboardStaleRejectionKeepsNewToken(t *testing.T) {
	env := newTestEnv(t, "new")
	m := newDashboardModel(env.deps())

	m.Update(profileLoadedMsg{seq: m.seq, token: "old", err: &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "expired"}})

	if got := env.storedToken(t); got != "new" {
		t.Errorf("stored token = %q, want new", got)
	}
}

func TestDashboardReload(t *testing.T) {
	env := newTestEnv(t, "tok")
	env.backend.handle("/api/dashboard/", replyJSON(http.StatusOK, domain.Profile{Username: "ada"}))
	a := env.app(t, t.TempDir())

	a = pressRune(t, a, 'r')

	if got := env.backend.hitCount("/api/dashboard/"); got != 2 {
		t.Errorf("dashboard hits = %d, want 2", got)
	}
	if a.dashboard.profile == nil {
		t.Error("profile missing after reload")
	}
}

func TestDashboardToUpload(t *testing.T) {
	env := newTestEnv(t, "tok")
	env.backend.handle("/api/dashboard/", replyJSON(http.StatusOK, domain.Profile{Username: "ada"}))
	a := env.app(t, t.TempDir())

	a = pressRune(t, a, 'u')

	if a.Route() != session.RouteUpload {
		t.Errorf("route = %q, want upload", a.Route())
	}
}

func TestDashboardShowsTokenExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ada",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, tok)
	m := newDashboardModel(env.deps())
	m, _ = m.enter()
	m, _ = m.Update(profileLoadedMsg{seq: m.seq, token: tok, profile: &domain.Profile{Username: "ada"}})

	if !strings.Contains(m.View(80), "session valid for") {
		t.Errorf("view missing expiry line:\n%s", m.View(80))
	}
}
