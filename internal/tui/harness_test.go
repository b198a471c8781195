package tui

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/pkg/client"
)

// backend is a fake API server that counts hits and records the
// Authorization header per path.
type backend struct {
	mu       sync.Mutex
	hits     map[string]int
	auth     map[string]string
	handlers map[string]http.HandlerFunc
	srv      *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		hits:     map[string]int{},
		auth:     map[string]string{},
		handlers: map[string]http.HandlerFunc{},
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.auth[r.URL.Path] = r.Header.Get("Authorization")
		h := b.handlers[r.URL.Path]
		b.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) authHeader(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auth[path]
}

func replyJSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}
}

type testEnv struct {
	backend *backend
	store   *session.MemoryStore
	guard   *session.Guard
	client  *client.Client
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	b := newBackend(t)
	store := session.NewMemoryStore(token)
	g := session.NewGuard(store, nil)
	return &testEnv{
		backend: b,
		store:   store,
		guard:   g,
		client:  client.New(b.srv.URL, g),
	}
}

// app builds an App with no redirect delay so navigation after a success
// arrives as a plain message.
func (e *testEnv) app(t *testing.T, outputDir string) App {
	t.Helper()
	a := NewApp(e.client, e.guard, Settings{OutputDir: outputDir, RedirectDelay: -1})
	a = pump(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})
	for _, msg := range run(a.initCmd) {
		a = pump(t, a, msg)
	}
	return a
}

func (e *testEnv) deps() deps {
	return deps{client: e.client, guard: e.guard, log: slog.New(slog.DiscardHandler)}
}

func (e *testEnv) storedToken(t *testing.T) string {
	t.Helper()
	tok, err := e.store.Load()
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	return tok
}

// run executes cmd and flattens batches into the messages they produce.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds msg to the app and keeps delivering the messages its commands
// produce until none are left. Commands returned for notices and the logo
// shimmer are timers and are not run.
func pump(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			t.Fatal("pump: message loop did not settle")
		}
		m := queue[0]
		queue = queue[1:]
		model, cmd := a.Update(m)
		a = model.(App)
		switch m.(type) {
		case noticeMsg, shimmerTickMsg, tea.QuitMsg:
			continue
		}
		queue = append(queue, run(cmd)...)
	}
	return a
}

func typeText(t *testing.T, a App, s string) App {
	t.Helper()
	return pump(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(t *testing.T, a App, k tea.KeyType) App {
	t.Helper()
	return pump(t, a, tea.KeyMsg{Type: k})
}

func pressRune(t *testing.T, a App, r rune) App {
	t.Helper()
	return pump(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func isQuit(cmd tea.Cmd) bool {
	for _, msg := range run(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}
