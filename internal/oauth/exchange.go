package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const exchangeTimeout = 10 * time.Second

// Exchanger exchanges an authorization code for a bearer token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*Token, error)
}

// ProxyClient exchanges authorization codes through the token exchange
// endpoint, which holds the client secret. The browser-visible parameters
// (code, client id, redirect uri) are the only ones sent.
type ProxyClient struct {
	url         string
	clientID    string
	redirectURI string
	httpClient  *http.Client
}

// NewProxyClient creates a client for the configured proxy endpoint.
func NewProxyClient(cfg Config) *ProxyClient {
	return &ProxyClient{
		url:         cfg.ProxyURL,
		clientID:    cfg.ClientID,
		redirectURI: cfg.RedirectURI,
		httpClient:  &http.Client{Timeout: exchangeTimeout},
	}
}

type exchangeRequest struct {
	Code        string `json:"code"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
}

type exchangeError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Exchange posts the code to the proxy and returns the resulting token.
// Transport-level failures are reported as ErrProxyUnreachable and are the
// only failures the caller may retry; a response that reached the provider
// is never retryable because authorization codes are single-use.
func (c *ProxyClient) Exchange(ctx context.Context, code string) (*Token, error) {
	body, err := json.Marshal(exchangeRequest{
		Code:        code,
		ClientID:    c.clientID,
		RedirectURI: c.redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProxyUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var exErr exchangeError
		if json.Unmarshal(raw, &exErr) == nil && exErr.Error != "" {
			if exErr.Error == "access_denied" {
				return nil, fmt.Errorf("%w: %s", ErrProviderDenied, exErr.Message)
			}
			return nil, fmt.Errorf("%w: %s: %s", ErrExchangeFailed, exErr.Error, exErr.Message)
		}
		return nil, fmt.Errorf("%w: proxy returned %d", ErrExchangeFailed, resp.StatusCode)
	}

	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}

	return &token, nil
}
