package sdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
)

// doRequestWithRetry sends one logical request, retrying with exponential
// backoff on transport errors and 5xx responses. POST is sent once unless
// the client was configured with RetryCreates. Every attempt first waits
// on the client rate limiter. The body is replayed from memory on retries.
//
// A returned response always has a status below 500 or is the last 5xx
// seen once retries are exhausted; the caller owns its body.
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	fullURL := c.baseURL + path
	attempt := 0

	var resp *http.Response
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.addAuthHeaders(req)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
		}
		if r.StatusCode >= 500 {
			if resp != nil {
				drainAndCloseBody(resp)
			}
			resp = r
			return fmt.Errorf("%w: status code %d", ErrServerError, r.StatusCode)
		}
		if resp != nil {
			drainAndCloseBody(resp)
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Debug("Retrying controller request",
			zap.String(logging.FieldMethod, method),
			zap.String(logging.FieldPath, path),
			zap.Int(logging.FieldAttempt, attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, c.newBackOff(ctx, method), notify)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, ErrServerError) && resp != nil {
		// Retries exhausted on a 5xx; let the caller read the error body.
		return resp, nil
	}
	if resp != nil {
		drainAndCloseBody(resp)
	}
	if errors.Is(err, ErrTransport) {
		return nil, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
	}
	return nil, err
}

// newBackOff builds the retry policy for one request.
func (c *Client) newBackOff(ctx context.Context, method string) backoff.BackOff {
	retries := c.retryAttempts
	if method == http.MethodPost && !c.retryCreates {
		retries = 0
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryWaitMin
	exp.MaxInterval = c.retryWaitMax
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// drainAndCloseBody reads and closes the response body to ensure connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
