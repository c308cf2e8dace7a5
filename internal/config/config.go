// Package config holds the settings of the ccf command-line client and the
// ccf-web server.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// an optional .env file and the process environment, then command-line
// flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/retry"
)

// Environment variables read by Load.
const (
	EnvBackendURL    = "CCF_BACKEND_URL"
	EnvAuthScheme    = "CCF_AUTH_SCHEME"
	EnvTimeout       = "CCF_TIMEOUT"
	EnvAddr          = "CCF_ADDR"
	EnvDBPath        = "CCF_DB"
	EnvLogLevel      = "CCF_LOG_LEVEL"
	EnvLogFormat     = "CCF_LOG_FORMAT"
	EnvSecureCookies = "CCF_SECURE_COOKIES"
	EnvSessionTTL    = "CCF_SESSION_TTL"
	EnvMeetingsFile  = "CCF_MEETINGS_FILE"
)

// ClientConfig configures access to the feedback backend.
type ClientConfig struct {
	BackendURL string        `yaml:"backend_url"`
	Timeout    time.Duration `yaml:"timeout"`
	AuthScheme string        `yaml:"auth_scheme"` // bearer, x-access-token or both
	MaxRetries int           `yaml:"max_retries"` // login retries after a transport failure
	RetryDelay time.Duration `yaml:"retry_delay"`

	// MeetingsFile is the YAML committee meeting schedule shown to
	// students. Empty means no schedule is published.
	MeetingsFile string `yaml:"meetings_file"`
}

// DefaultClientConfig returns the backend defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BackendURL: "http://localhost:8080",
		Timeout:    api.DefaultTimeout,
		AuthScheme: string(api.AuthBoth),
		MaxRetries: retry.DefaultMaxRetries,
		RetryDelay: retry.DefaultDelay,
	}
}

// Validate checks the client settings.
func (c ClientConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("backend URL is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if _, err := api.ParseAuthScheme(c.AuthScheme); err != nil {
		errs = append(errs, err)
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}

// RetryPolicy returns the login retry policy these settings describe.
func (c ClientConfig) RetryPolicy() retry.Policy {
	return retry.Policy{MaxRetries: c.MaxRetries, Delay: c.RetryDelay}
}

// ServerConfig holds configuration for the ccf-web server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`           // Listen address (default ":3000")
	LogLevel      string        `yaml:"log_level"`      // debug, info, warn, error
	LogFormat     string        `yaml:"log_format"`     // text, json
	DBPath        string        `yaml:"db_path"`        // SQLite path for browser sessions, ":memory:" for testing
	SecureCookies bool          `yaml:"secure_cookies"` // set the Secure flag on the session cookie
	SessionTTL    time.Duration `yaml:"session_ttl"`    // idle browser sessions older than this are purged
	Client        ClientConfig  `yaml:"backend"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       ":3000",
		LogLevel:   "info",
		LogFormat:  "text",
		SessionTTL: 24 * time.Hour,
		Client:     DefaultClientConfig(),
	}
}

// Validate checks the server settings.
func (c ServerConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL))
	}
	if err := c.Client.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DefaultDBPath returns ~/.ccf/web.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".ccf", "web.db"), nil
}

// LoadFile overlays the YAML file at path onto cfg. A missing file is not
// an error.
func LoadFile(path string, cfg any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the CCF_* environment variables onto c.
func (c *ClientConfig) ApplyEnv() {
	c.BackendURL = getenv(EnvBackendURL, c.BackendURL)
	c.AuthScheme = getenv(EnvAuthScheme, c.AuthScheme)
	c.Timeout = getenvDuration(EnvTimeout, c.Timeout)
	c.MeetingsFile = getenv(EnvMeetingsFile, c.MeetingsFile)
}

// ApplyEnv overlays the CCF_* environment variables onto c.
func (c *ServerConfig) ApplyEnv() {
	c.Addr = getenv(EnvAddr, c.Addr)
	c.DBPath = getenv(EnvDBPath, c.DBPath)
	c.LogLevel = getenv(EnvLogLevel, c.LogLevel)
	c.LogFormat = getenv(EnvLogFormat, c.LogFormat)
	c.SecureCookies = getenvBool(EnvSecureCookies, c.SecureCookies)
	c.SessionTTL = getenvDuration(EnvSessionTTL, c.SessionTTL)
	c.Client.ApplyEnv()
}

// LoadServer builds a ServerConfig from defaults, the optional YAML file
// and .env file, and the environment.
func LoadServer(yamlPath, dotEnvPath string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := LoadFile(yamlPath, &cfg); err != nil {
		return cfg, err
	}
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadClient builds a ClientConfig from defaults, the optional YAML file
// and .env file, and the environment.
func LoadClient(yamlPath, dotEnvPath string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := LoadFile(yamlPath, &cfg); err != nil {
		return cfg, err
	}
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
