package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{
		"api_url": "http://controller:8080/midonet-api",
		"username": "admin",
		"password": "secret",
		"retry_attempts": 5,
		"timeout_seconds": 10,
		"requests_per_second": 20,
		"log_level": "debug"
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIURL != "http://controller:8080/midonet-api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Username != "admin" || cfg.Password != "secret" {
		t.Errorf("credentials = %q/%q", cfg.Username, cfg.Password)
	}
	if cfg.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d, want 5", cfg.RetryAttempts)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", cfg.Timeout())
	}
	if cfg.RequestsPerSecond != 20 {
		t.Errorf("RequestsPerSecond = %v, want 20", cfg.RequestsPerSecond)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"api_url": "http://a:8080/api", "username": "file"}`)

	t.Setenv("TOPOCTL_API_URL", "https://b:8443/api")
	t.Setenv("TOPOCTL_USERNAME", "env")
	t.Setenv("TOPOCTL_RETRY_ATTEMPTS", "-1")
	t.Setenv("TOPOCTL_REQUESTS_PER_SECOND", "2.5")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIURL != "https://b:8443/api" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.Username != "env" {
		t.Errorf("Username = %q, want env", cfg.Username)
	}
	if cfg.RetryAttempts != -1 {
		t.Errorf("RetryAttempts = %d, want -1", cfg.RetryAttempts)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RequestsPerSecond)
	}
}

func TestLoadConfig_BadEnvNumber(t *testing.T) {
	t.Setenv("TOPOCTL_TIMEOUT_SECONDS", "soon")

	if _, err := LoadConfig(writeFile(t, t.TempDir(), "c.json", `{}`)); err == nil {
		t.Error("LoadConfig() succeeded with a non-numeric timeout")
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DotEnvPath, "TOPOCTL_USERNAME=dotenv\nTOPOCTL_PASSWORD=pw\n")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(wd)
		os.Unsetenv("TOPOCTL_USERNAME")
		os.Unsetenv("TOPOCTL_PASSWORD")
	})

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Username != "dotenv" || cfg.Password != "pw" {
		t.Errorf("credentials = %q/%q, want values from .env", cfg.Username, cfg.Password)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadConfig() succeeded for a missing file")
	}
	if _, err := LoadConfig(writeFile(t, dir, "bad.json", `{`)); err == nil {
		t.Error("LoadConfig() succeeded for malformed JSON")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "ftp url",
			config:  Config{APIURL: "ftp://controller/api"},
			wantErr: true,
		},
		{
			name:    "password without username",
			config:  Config{Password: "secret"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			config:  Config{TimeoutSeconds: -1},
			wantErr: true,
		},
		{
			name:    "negative rate",
			config:  Config{RequestsPerSecond: -1},
			wantErr: true,
		},
		{
			name:    "bad log level",
			config:  Config{LogLevel: "chatty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}
