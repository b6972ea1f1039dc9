package flightapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the default number of retry attempts. Only
	// dial failures are retried: the POST is not idempotent, so anything
	// that may have reached the endpoint is sent at most once.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// TokenHeader carries the API token.
	TokenHeader = "token"

	// CandidateHeader carries the candidate's name.
	CandidateHeader = "candidate"
)

// Client posts flight legs to the external flight-info endpoint
type Client struct {
	// URL is the full endpoint URL the payload is POSTed to
	URL string

	// Token is sent in the "token" header
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a client for the endpoint at url
func NewClient(url, token string) *Client {
	return &Client{
		URL:                   url,
		Token:                 token,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// SubmitFlightInfo posts one leg. A 2xx response is success; anything else
// is returned as an *APIError.
func (c *Client) SubmitFlightInfo(ctx context.Context, info FlightInfo, candidate string) error {
	if errs := info.Validate(); len(errs) > 0 {
		return NewValidationError(FormatValidationErrors(errs))
	}
	if c.URL == "" {
		return NewValidationError("flight-info endpoint URL is not configured")
	}

	body, err := json.Marshal(info)
	if err != nil {
		return NewParseError("failed to encode payload", err)
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError("submission cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.submitAttempt(ctx, body, candidate)
		if err == nil {
			logging.Debug("Flight info accepted",
				zap.String("flight_number", info.FlightNumber),
				zap.String("arrival_date", info.ArrivalDate),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}

		lastErr = err
		logging.Warn("Flight info submission failed",
			zap.Int("attempt", attempt+1),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err),
		)

		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return lastErr
}

// submitAttempt performs a single POST
func (c *Client) submitAttempt(ctx context.Context, body []byte, candidate string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return NewValidationError(fmt.Sprintf("failed to create POST request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(TokenHeader, c.Token)
	req.Header.Set(CandidateHeader, candidate)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return NewAuthError(resp.StatusCode, "endpoint rejected the API token")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded error body for diagnostics
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("submission failed with status %d: %s", resp.StatusCode, string(snippet)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
