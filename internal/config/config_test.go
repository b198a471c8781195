package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AUTODOC_API_URL", "AUTODOC_TIMEOUT", "AUTODOC_STATE_DIR", "AUTODOC_OUTPUT_DIR",
		"AUTODOC_LOG_LEVEL", "AUTODOC_LOG_FILE", "AUTODOC_TOKEN", "AUTODOC_RATE_LIMIT",
		"AUTODOC_RATE_BURST", "AUTODOC_WATCH_SESSION", EnvConfigPath,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(home, ".autodoc"), cfg.StateDir)
	assert.Equal(t, filepath.Join(home, ".autodoc", "autodoc.log"), cfg.LogFile)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.True(t, cfg.WatchSession)
	assert.Empty(t, cfg.Token)
}

func TestLoad_ExpandsHome(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AUTODOC_STATE_DIR", "~/state")
	t.Setenv("AUTODOC_OUTPUT_DIR", "~/pdfs")
	t.Setenv("AUTODOC_LOG_FILE", "~")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state"), cfg.StateDir)
	assert.Equal(t, filepath.Join(home, "pdfs"), cfg.OutputDir)
	assert.Equal(t, home, cfg.LogFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	state := t.TempDir()
	t.Setenv("AUTODOC_API_URL", "https://docs.example.com")
	t.Setenv("AUTODOC_TIMEOUT", "5s")
	t.Setenv("AUTODOC_STATE_DIR", state)
	t.Setenv("AUTODOC_TOKEN", "envtok")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, state, cfg.StateDir)
	assert.Equal(t, "envtok", cfg.Token)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "autodoc.yaml")
	content := "api_url: https://file.example.com\ntimeout: 10s\nstate_dir: " + dir + "\noutput_dir: /tmp/pdfs\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/pdfs", cfg.OutputDir)

	t.Setenv("AUTODOC_API_URL", "https://env.example.com")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.APIURL, "env wins over file")
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://localhost:9000\nstate_dir: "+dir+"\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.APIURL)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{APIURL: "http://127.0.0.1:8000", Timeout: time.Second}, ""},
		{"ftp", Config{APIURL: "ftp://x", Timeout: time.Second}, "invalid api url"},
		{"no host", Config{APIURL: "http://", Timeout: time.Second}, "invalid api url"},
		{"zero timeout", Config{APIURL: "https://x.io", Timeout: 0}, "timeout"},
		{"negative rate", Config{APIURL: "https://x.io", Timeout: time.Second, RateLimit: -1}, "rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestUsageListsVariables(t *testing.T) {
	assert.Contains(t, Usage(), "AUTODOC_API_URL")
}
