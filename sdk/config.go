package sdk

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ClientConfig contains the configuration for creating a new controller client.
type ClientConfig struct {
	// BaseURL is the controller API root (e.g., "http://127.0.0.1:8080/midonet-api").
	BaseURL string

	// Username and Password are sent with HTTP basic authentication.
	// Optional: no Authorization header is sent when Username is empty.
	Username string
	Password string

	// HTTPClient is the HTTP client to use for requests.
	// Optional: if nil, a default client with reasonable timeouts will be created.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry a GET or DELETE that
	// failed in transport or with a 5xx status. Use a negative value to
	// disable retries.
	// Default: 3
	RetryAttempts int

	// RetryCreates extends RetryAttempts to POST requests. A create that
	// failed with a 5xx may still have been applied by the controller, so a
	// retry can leave a duplicate resource behind.
	// Default: false
	RetryCreates bool

	// RetryWaitMin is the initial wait between retries.
	// Default: 500 milliseconds
	RetryWaitMin time.Duration

	// RetryWaitMax caps the wait between retries.
	// Default: 10 seconds
	RetryWaitMax time.Duration

	// Timeout is the HTTP request timeout.
	// Default: 30 seconds
	Timeout time.Duration

	// RequestsPerSecond limits the client-side request rate.
	// Default: 0 (unlimited)
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once when rate limited.
	// Default: 1
	Burst int

	// Logger receives retry diagnostics.
	// Optional: defaults to a no-op logger.
	Logger *zap.Logger
}

// Validate checks if the client configuration is valid and sets defaults.
func (c *ClientConfig) Validate() error {
	url := strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if url == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%w: base URL must start with http:// or https://", ErrInvalidConfig)
	}
	c.BaseURL = url

	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("%w: password given without username", ErrInvalidConfig)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must not be negative", ErrInvalidConfig)
	}

	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = 500 * time.Millisecond
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = 10 * time.Second
	}
	if c.RetryWaitMax < c.RetryWaitMin {
		return fmt.Errorf("%w: retry wait max is below retry wait min", ErrInvalidConfig)
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: c.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return nil
}

// HasBasicAuth returns true if basic authentication credentials are available.
func (c *ClientConfig) HasBasicAuth() bool {
	return strings.TrimSpace(c.Username) != ""
}
