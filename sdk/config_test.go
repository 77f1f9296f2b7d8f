package sdk

import (
	"strings"
	"testing"
	"time"
)

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config with credentials",
			config: ClientConfig{
				BaseURL:  "http://127.0.0.1:8080/midonet-api",
				Username: "admin",
				Password: "secret",
			},
			wantErr: false,
		},
		{
			name: "valid config with minimal fields",
			config: ClientConfig{
				BaseURL: "https://controller.example.com/midonet-api",
			},
			wantErr: false,
		},
		{
			name:    "missing base URL",
			config:  ClientConfig{},
			wantErr: true,
			errMsg:  "base URL is required",
		},
		{
			name: "invalid URL format",
			config: ClientConfig{
				BaseURL: "controller:8080",
			},
			wantErr: true,
			errMsg:  "base URL must start with http:// or https://",
		},
		{
			name: "password without username",
			config: ClientConfig{
				BaseURL:  "http://127.0.0.1:8080",
				Password: "secret",
			},
			wantErr: true,
			errMsg:  "password given without username",
		},
		{
			name: "negative rate",
			config: ClientConfig{
				BaseURL:           "http://127.0.0.1:8080",
				RequestsPerSecond: -1,
			},
			wantErr: true,
			errMsg:  "requests per second must not be negative",
		},
		{
			name: "inverted retry window",
			config: ClientConfig{
				BaseURL:      "http://127.0.0.1:8080",
				RetryWaitMin: 5 * time.Second,
				RetryWaitMax: time.Second,
			},
			wantErr: true,
			errMsg:  "retry wait max is below retry wait min",
		},
		{
			name: "trailing slash removed from URL",
			config: ClientConfig{
				BaseURL: "http://127.0.0.1:8080/midonet-api/",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() expected error but got nil")
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
			if tt.config.HTTPClient == nil {
				t.Errorf("HTTPClient not created")
			}
			if tt.config.Logger == nil {
				t.Errorf("Logger not set")
			}
			if strings.HasSuffix(tt.config.BaseURL, "/") {
				t.Errorf("Base URL still has trailing slash: %s", tt.config.BaseURL)
			}
		})
	}
}

func TestClientConfig_Defaults(t *testing.T) {
	config := ClientConfig{
		BaseURL: "http://127.0.0.1:8080/midonet-api",
	}

	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	if config.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", config.RetryAttempts)
	}
	if config.RetryWaitMin != 500*time.Millisecond {
		t.Errorf("RetryWaitMin = %v, want 500ms", config.RetryWaitMin)
	}
	if config.RetryWaitMax != 10*time.Second {
		t.Errorf("RetryWaitMax = %v, want 10s", config.RetryWaitMax)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", config.Timeout)
	}
	if config.Burst != 1 {
		t.Errorf("Burst = %d, want 1", config.Burst)
	}
}

func TestClientConfig_NegativeRetriesDisable(t *testing.T) {
	config := ClientConfig{
		BaseURL:       "http://127.0.0.1:8080",
		RetryAttempts: -1,
	}

	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if config.RetryAttempts != 0 {
		t.Errorf("RetryAttempts = %d, want 0", config.RetryAttempts)
	}
}

func TestClientConfig_HasBasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "has username", username: "admin", want: true},
		{name: "empty username", username: "", want: false},
		{name: "whitespace only username", username: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := ClientConfig{Username: tt.username}
			if got := config.HasBasicAuth(); got != tt.want {
				t.Errorf("HasBasicAuth() = %v, want %v", got, tt.want)
			}
		})
	}
}
