package runner

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/yaroslav/topoctl/internal/logging"
)

// Config file locations and environment
const (
	// DefaultConfigPath is read when no path is given and the file exists.
	DefaultConfigPath = "./topoctl.json"

	// DotEnvPath is loaded into the environment before overrides are applied.
	DotEnvPath = ".env"

	// EnvPrefix is the prefix of environment overrides.
	EnvPrefix = "TOPOCTL_"

	// DefaultAPIURL is the controller API root of a local installation.
	DefaultAPIURL = "http://127.0.0.1:8080/midonet-api"
)

// Config describes how to reach the controller.
type Config struct {
	// APIURL is the controller API root.
	APIURL string `json:"api_url"`

	// Username and Password enable HTTP basic authentication.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// RetryAttempts is the number of retries of a GET or DELETE that failed
	// in transport or with a 5xx status. Creates are never retried.
	// Negative disables retries.
	RetryAttempts int `json:"retry_attempts,omitempty"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// RequestsPerSecond limits the request rate; 0 means unlimited.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`
}

// LoadConfig reads the configuration at path, then applies .env and
// TOPOCTL_* environment overrides, then validates. An empty path reads
// DefaultConfigPath if it exists and starts from defaults otherwise.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvPath, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	if _, err := os.Stat(DotEnvPath); err == nil {
		return godotenv.Load(DotEnvPath)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvPrefix + "USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvPrefix + "PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_ATTEMPTS is not a number: %q", EnvPrefix, v)
		}
		c.RetryAttempts = n
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT_SECONDS is not a number: %q", EnvPrefix, v)
		}
		c.TimeoutSeconds = n
	}
	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sREQUESTS_PER_SECOND is not a number: %q", EnvPrefix, v)
		}
		c.RequestsPerSecond = f
	}
	return nil
}

// Validate checks the configuration and sets defaults.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must be http or https: %s", c.APIURL)
	}

	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("password is set without username")
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level is invalid: %w", err)
	}

	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
