// Package config loads autodoc settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath names the variable holding a config file path.
const EnvConfigPath = "AUTODOC_CONFIG"

// Config holds client settings. Environment variables override file values.
type Config struct {
	APIURL       string        `yaml:"api_url" env:"AUTODOC_API_URL" env-default:"http://127.0.0.1:8000" env-description:"documentation backend base URL"`
	Timeout      time.Duration `yaml:"timeout" env:"AUTODOC_TIMEOUT" env-default:"30s" env-description:"per-request HTTP timeout"`
	StateDir     string        `yaml:"state_dir" env:"AUTODOC_STATE_DIR" env-description:"directory holding the session token (default ~/.autodoc)"`
	OutputDir    string        `yaml:"output_dir" env:"AUTODOC_OUTPUT_DIR" env-default:"." env-description:"where generated PDFs are saved"`
	LogLevel     string        `yaml:"log_level" env:"AUTODOC_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogFile      string        `yaml:"log_file" env:"AUTODOC_LOG_FILE" env-description:"log destination (default <state_dir>/autodoc.log)"`
	RateLimit    float64       `yaml:"rate_limit" env:"AUTODOC_RATE_LIMIT" env-default:"5" env-description:"max API requests per second, 0 for no limit"`
	RateBurst    int           `yaml:"rate_burst" env:"AUTODOC_RATE_BURST" env-default:"5" env-description:"requests allowed at once before the rate limit applies"`
	WatchSession bool          `yaml:"watch_session" env:"AUTODOC_WATCH_SESSION" env-default:"true" env-description:"follow logins and logouts made in other terminals"`

	// Token, when set, is used instead of the token file and is never
	// written to disk.
	Token string `yaml:"-" env:"AUTODOC_TOKEN" env-description:"session token overriding the token file"`
}

// Load reads configuration. path may be empty, in which case AUTODOC_CONFIG
// is consulted, and with neither set only the environment is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read env: %w", err)
	}

	if cfg.StateDir == "" {
		cfg.StateDir = "~/.autodoc"
	}
	for _, p := range []*string{&cfg.StateDir, &cfg.LogFile, &cfg.OutputDir} {
		expanded, err := expandHome(*p)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		*p = expanded
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.StateDir, "autodoc.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q: want http(s)://host", c.APIURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("rate limit and burst must not be negative")
	}
	return nil
}

// Usage describes the supported environment variables.
func Usage() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return text
}
