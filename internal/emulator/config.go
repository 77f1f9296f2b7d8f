package emulator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yaroslav/topoctl/models"
)

// DefaultPrefix is the path the controller API is served under.
const DefaultPrefix = "/midonet-api"

// FailOn makes the Nth create (1-based) of Kind answer Status instead of
// succeeding.
type FailOn struct {
	Kind   models.Kind `json:"kind" yaml:"kind"`
	Nth    int         `json:"nth" yaml:"nth"`
	Status int         `json:"status,omitempty" yaml:"status,omitempty"`
}

// Config holds configuration for the emulator.
type Config struct {
	// Prefix is the URL prefix of the API. Default: DefaultPrefix.
	Prefix string

	// DSN is the SQLite data source. Default: private in-memory database.
	DSN string

	// Username enables HTTP basic authentication when set. The password is
	// given either in clear as Password or as a bcrypt PasswordHash.
	Username     string
	Password     string
	PasswordHash string

	// Tenants and Hosts are seeded at startup. Missing identifiers are
	// generated.
	Tenants []models.Tenant
	Hosts   []models.Host

	// Faults are injected into create requests.
	Faults []FailOn

	// RequestsPerSecond throttles each client address when positive.
	// Throttled requests answer 429.
	RequestsPerSecond float64

	// Burst is the number of requests a client may make at once.
	// Default: 1
	Burst int

	// Logger is the Zap logger for request logging.
	Logger *zap.Logger
}

// Validate checks the configuration and sets defaults.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix must start with /: %q", c.Prefix)
	}
	c.Prefix = strings.TrimSuffix(c.Prefix, "/")

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.Username == "" && (c.Password != "" || c.PasswordHash != "") {
		return fmt.Errorf("password is set without username")
	}
	if c.Username != "" && c.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		c.PasswordHash = string(hash)
	}
	if c.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return fmt.Errorf("password hash is not a bcrypt hash: %w", err)
		}
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst cannot be negative")
	}
	if c.Burst == 0 {
		c.Burst = 1
	}

	for i := range c.Tenants {
		if c.Tenants[i].Name == "" {
			return fmt.Errorf("tenant %d has no name", i)
		}
		if c.Tenants[i].ID == "" {
			c.Tenants[i].ID = uuid.New().String()
		}
	}
	for i := range c.Hosts {
		if c.Hosts[i].ID == "" {
			c.Hosts[i].ID = uuid.New().String()
		}
	}

	for i, f := range c.Faults {
		if !models.IsKnownKind(f.Kind) {
			return fmt.Errorf("fault %d: %w: %q", i, models.ErrUnknownKind, f.Kind)
		}
		if f.Nth < 1 {
			return fmt.Errorf("fault %d: nth must be at least 1", i)
		}
		if f.Status == 0 {
			c.Faults[i].Status = http.StatusInternalServerError
		}
		if c.Faults[i].Status < 400 || c.Faults[i].Status > 599 {
			return fmt.Errorf("fault %d: status %d is not an error status", i, f.Status)
		}
	}
	return nil
}

// ParseFailOn parses "kind:nth[:status]", for example "bgp:2" or
// "router_port:1:503".
func ParseFailOn(s string) (FailOn, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return FailOn{}, fmt.Errorf("invalid fault %q: want kind:nth[:status]", s)
	}

	f := FailOn{Kind: models.Kind(parts[0])}
	if _, err := fmt.Sscanf(parts[1], "%d", &f.Nth); err != nil {
		return FailOn{}, fmt.Errorf("invalid fault %q: bad nth: %w", s, err)
	}
	if len(parts) == 3 {
		if _, err := fmt.Sscanf(parts[2], "%d", &f.Status); err != nil {
			return FailOn{}, fmt.Errorf("invalid fault %q: bad status: %w", s, err)
		}
	}
	return f, nil
}
