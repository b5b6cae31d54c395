// Package session exchanges a POS SDK setup token for a session payload at
// the backend sessions endpoint.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sahiltable85/RarePay/models"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// ErrEmptyPayload is wrapped by ExchangeError when a 2xx response carries
// no sdkData.
var ErrEmptyPayload = errors.New("empty sdkData")

// TransportError means the endpoint could not be reached or did not answer.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sessions transport %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExchangeError means the endpoint answered but did not produce a session.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("sessions %d: %s", e.StatusCode, e.Body)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Client posts setup tokens to a sessions endpoint. It never retries.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client for sessionsURL, which must be an absolute
// http or https URL. A nil hc gets an instrumented client with a 10 second
// timeout.
func NewClient(sessionsURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(sessionsURL)
	if err != nil {
		return nil, fmt.Errorf("parsing sessions URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("sessions URL %q must be an absolute http(s) URL", sessionsURL)
	}
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		}
	}
	return &Client{url: sessionsURL, http: hc}, nil
}

// ExchangeSetupToken posts token and returns the opaque sdkData.
func (c *Client) ExchangeSetupToken(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(models.SessionRequest{SetupToken: token})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{URL: c.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = "<no body>"
		}
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: msg}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{URL: c.url, Err: err}
	}
	var out models.SessionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: truncate(string(raw)), Err: err}
	}
	if out.SDKData == "" {
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: truncate(string(raw)), Err: ErrEmptyPayload}
	}
	return out.SDKData, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
