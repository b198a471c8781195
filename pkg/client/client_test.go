package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/autodoc-cli/autodoc/pkg/domain"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("login sent Authorization %q, want none", got)
		}
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if creds.Email != "a@b.com" || creds.Password != "x" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access": "tok123"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("stale"))
	resp, err := c.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.Access != "tok123" {
		t.Errorf("Access = %q, want %q", resp.Access, "tok123")
	}

	_, err = c.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if got := UserMessage(err, "Login failed. Try again."); got != "Invalid credentials" {
		t.Errorf("UserMessage = %q, want backend message", got)
	}
}

func TestSignup(t *testing.T) {
	var got domain.SignupRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/signup/" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil)
	err := c.Signup(context.Background(), domain.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup() error: %v", err)
	}
	if got.Name != "Ada" || got.Email != "ada@example.com" || got.Password != "pw" {
		t.Errorf("server got %+v", got)
	}
}

func TestDashboard_SendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dashboard/" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"}) //nolint:errcheck
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		json.NewEncoder(w).Encode(domain.Profile{Username: "ada", Email: "ada@example.com"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok123"))
	p, err := c.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error: %v", err)
	}
	if p.Username != "ada" {
		t.Errorf("Username = %q, want %q", p.Username, "ada")
	}
}

func TestDashboard_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "token expired"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("old"))
	_, err := c.Dashboard(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if !IsAuthRejected(err) {
		t.Errorf("IsAuthRejected(%v) = false, want true", err)
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
}

func TestDashboard_NoTokenSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken(""))
	_, err := c.Dashboard(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("error = %v, want ErrNoToken", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "no file"}) //nolint:errcheck
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f) //nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"documentation": "# " + hdr.Filename + "\n" + string(data),
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(path, []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(srv.URL, staticToken("tok"))
	doc, err := c.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile() error: %v", err)
	}
	if doc.Text != "# main.go\npackage main" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestUploadFile_Missing(t *testing.T) {
	c := New("http://127.0.0.1:0", nil)
	if _, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.go")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGeneratePDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var doc domain.Documentation
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc.Text == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "documentation is required"}) //nolint:errcheck
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.GeneratePDF(context.Background(), domain.Documentation{Text: "# Docs"})
	if err != nil {
		t.Fatalf("GeneratePDF() error: %v", err)
	}
	if string(got) != string(pdf) {
		t.Errorf("GeneratePDF() = %q, want %q", got, pdf)
	}

	_, err = c.GeneratePDF(context.Background(), domain.Documentation{})
	if err == nil {
		t.Fatal("expected error for empty documentation")
	}
	if got := Reason(err); got != "documentation is required" {
		t.Errorf("Reason = %q", got)
	}
}

func TestGeneratePDF_RejectsEmptyAndOversized(t *testing.T) {
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, body.Load().(string)) //nolint:errcheck
	}))
	defer srv.Close()
	c := New(srv.URL, nil)

	old := maxPDFSize
	maxPDFSize = 8
	defer func() { maxPDFSize = old }()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"empty", "", ErrEmptyPDF},
		{"over cap", "%PDF-1.4 x", ErrPDFTooLarge},
		{"at cap", "%PDF-1.4", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body.Store(tc.body)
			got, err := c.GeneratePDF(context.Background(), domain.Documentation{Text: "# Docs"})
			if tc.wantErr == nil {
				if err != nil || string(got) != tc.body {
					t.Fatalf("GeneratePDF() = %q, %v", got, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if Reason(err) != tc.wantErr.Error() {
				t.Errorf("Reason = %q", Reason(err))
			}
		})
	}
}

func TestHTTPError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"))
	_, err := c.Dashboard(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if IsAuthRejected(err) {
		t.Error("500 should not count as auth rejection")
	}
	if got := Reason(err); got != "Internal Server Error" {
		t.Errorf("Reason = %q, want status text", got)
	}
	if got := UserMessage(err, "fallback"); got != "fallback" {
		t.Errorf("UserMessage = %q, want fallback", got)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		json.NewEncoder(w).Encode(domain.Profile{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"), WithTimeout(5*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Dashboard(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(domain.Profile{Username: "ada"}) //nolint:errcheck
	}))
	defer srv.Close()

	// One request per hour: the first goes through on the burst, the second
	// cannot get a token before its deadline.
	c := New(srv.URL, staticToken("tok"), WithRateLimit(rate.Every(time.Hour), 1))

	if _, err := c.Dashboard(context.Background()); err != nil {
		t.Fatalf("first request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Dashboard(ctx); err == nil {
		t.Fatal("expected the second request to be rate limited")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}
