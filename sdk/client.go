package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yaroslav/topoctl/models"
)

// Client talks to the virtual network controller REST API. It implements
// the topology API and Directory interfaces.
//
// A Client is safe for concurrent use.
type Client struct {
	baseURL       string
	username      string
	password      string
	httpClient    *http.Client
	retryAttempts int
	retryCreates  bool
	retryWaitMin  time.Duration
	retryWaitMax  time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
}

// NewClient creates a new controller client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		baseURL:       config.BaseURL,
		username:      config.Username,
		password:      config.Password,
		httpClient:    config.HTTPClient,
		retryAttempts: config.RetryAttempts,
		retryCreates:  config.RetryCreates,
		retryWaitMin:  config.RetryWaitMin,
		retryWaitMax:  config.RetryWaitMax,
		limiter:       rate.NewLimiter(limit, config.Burst),
		logger:        config.Logger,
	}, nil
}

// BaseURL returns the normalized controller API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// parseJSONResponse parses a JSON response body into the provided destination.
func (c *Client) parseJSONResponse(resp *http.Response, dest interface{}) error {
	defer drainAndCloseBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", ErrUnexpectedResponse, err)
	}

	return nil
}

// parseErrorResponse builds an *APIError from a non-2xx response.
func (c *Client) parseErrorResponse(method, path string, resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}

	var body models.ErrorResponse
	if err := c.parseJSONResponse(resp, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
		apiErr.RequestID = body.RequestID
	}

	return apiErr
}

// doJSONRequest performs a request with an optional JSON body and parses
// the JSON response into respBody when it is not nil.
func (c *Client) doJSONRequest(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = data
	}

	resp, err := c.doRequestWithRetry(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(method, path, resp)
	}

	if respBody != nil {
		return c.parseJSONResponse(resp, respBody)
	}

	drainAndCloseBody(resp)
	return nil
}

// Create posts r to its collection and returns a reference to the new
// resource, including the path used to delete it.
//
// Parameters:
//   - ctx: Request context for cancellation and timeouts
//   - r: The resource payload; its parent identifiers must be set
//
// Returns:
//   - models.ResourceRef: The kind, identifier and canonical path of the resource
//   - error: ErrBadRequest if the controller rejected the payload, ErrNotFound if
//     a parent does not exist, ErrTransport or ErrServerError after retries,
//     or models.ErrMissingParent if a parent identifier is empty
func (c *Client) Create(ctx context.Context, r models.Resource) (models.ResourceRef, error) {
	path, err := r.CollectionPath()
	if err != nil {
		return models.ResourceRef{}, fmt.Errorf("failed to create %s: %w", r.Kind(), err)
	}

	var created models.CreatedResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, path, r, &created); err != nil {
		return models.ResourceRef{}, fmt.Errorf("failed to create %s: %w", r.Kind(), err)
	}
	if created.ID == "" {
		return models.ResourceRef{}, fmt.Errorf("failed to create %s: %w: empty id", r.Kind(), ErrUnexpectedResponse)
	}

	return models.RefFor(r, created.ID), nil
}

// Delete removes the resource at ref.Path.
//
// A resource that no longer exists is reported as ErrNotFound.
func (c *Client) Delete(ctx context.Context, ref models.ResourceRef) error {
	if ref.Path == "" {
		return fmt.Errorf("failed to delete %s: %w", ref, models.ErrInvalidRequest)
	}
	if err := c.doJSONRequest(ctx, http.MethodDelete, ref.Path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// Tenant looks up a tenant by name. It returns nil and no error when the
// controller knows no such tenant.
func (c *Client) Tenant(ctx context.Context, name string) (*models.Tenant, error) {
	path := "/tenants?name=" + url.QueryEscape(name)

	var list models.TenantListResponse
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to look up tenant %q: %w", name, err)
	}

	for i := range list.Tenants {
		if list.Tenants[i].Name == name {
			return &list.Tenants[i], nil
		}
	}
	return nil, nil
}

// Host looks up a host by identifier. It returns nil and no error when the
// controller knows no such host.
func (c *Client) Host(ctx context.Context, id string) (*models.Host, error) {
	path := "/hosts/" + url.PathEscape(id)

	var host models.Host
	err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &host)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up host %s: %w", id, err)
	}
	return &host, nil
}

// Health checks that the controller API answers.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doJSONRequest(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
