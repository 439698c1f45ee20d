// Package suggest calls a generative completion API to draft missing test
// files. Prompt construction happens in the UI; this package only carries
// the prompt over the wire.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned when no suggestion endpoint is configured or
// the endpoint cannot be reached.
var ErrUnavailable = errors.New("test suggestion service unavailable")

// Suggestion is a drafted test file with a short rationale.
type Suggestion struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// Suggester produces test suggestions for a prompt.
type Suggester interface {
	GenerateTestSuggestions(ctx context.Context, prompt string) (*Suggestion, error)
}

// HTTPSuggester talks to a completion endpoint over JSON.
type HTTPSuggester struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSuggester creates a suggester for the given endpoint. An empty
// endpoint yields a suggester that always reports ErrUnavailable.
func NewHTTPSuggester(endpoint, apiKey string) *HTTPSuggester {
	return &HTTPSuggester{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateTestSuggestions posts the prompt and decodes the drafted test.
func (s *HTTPSuggester) GenerateTestSuggestions(ctx context.Context, prompt string) (*Suggestion, error) {
	if s.endpoint == "" {
		return nil, ErrUnavailable
	}

	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("suggestion endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion: %w", err)
	}
	return &suggestion, nil
}
