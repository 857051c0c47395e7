package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hades-rgb/timesheets/internal/errors"
)

const (
	// Placeholder is the value shipped in sample configs
	Placeholder = "PASTE_YOUR_RELAY_URL_HERE"

	ActorHeader     = "X-Timesheets-Actor"
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 << 10
)

// Client forwards action names to the service that runs as the store owner
type Client struct {
	endpoint   string
	actor      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout)
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a relay client. The endpoint is validated on Send, not here,
// so a misconfigured relay only fails the calls that need it.
func New(endpoint, actor string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		actor:    actor,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured relay URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ValidateEndpoint rejects empty, placeholder and non-http(s) endpoints
func ValidateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.Contains(endpoint, Placeholder) {
		return errors.RelayNotConfigured()
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ConfigInvalid(fmt.Sprintf("relay_url %q is not an http(s) URL", endpoint))
	}
	return nil
}

// Send posts action and returns the response text. Only the action name is
// sent; the remote side reads everything else from its own context.
// Non-2xx responses still return their body, transport failures return an error.
func (c *Client) Send(ctx context.Context, action string) (string, error) {
	if err := ValidateEndpoint(c.endpoint); err != nil {
		return "", err
	}

	form := url.Values{"action": {action}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.RelayFailed(fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.actor != "" {
		req.Header.Set(ActorHeader, c.actor)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.RelayFailed(fmt.Errorf("error making request: %w", err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", errors.RelayFailed(fmt.Errorf("error reading response: %w", err))
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		text = fmt.Sprintf("Error: relay answered %s with an empty body", res.Status)
	}
	return text, nil
}
