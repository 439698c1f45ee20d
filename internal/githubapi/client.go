// Package githubapi is a minimal typed client for the pieces of the GitHub
// REST API the dashboard needs: the authenticated user, repository trees,
// and raw file content.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

const defaultBaseURL = "https://api.github.com"

var (
	ErrUnauthorized = errors.New("github rejected the access token")
	ErrNotFound     = errors.New("github resource not found")
	ErrRateLimited  = errors.New("github rate limit exceeded")
)

// Client calls the GitHub REST API with a bearer token per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against api.github.com.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL creates a client against a custom API root, used by
// tests and GitHub Enterprise installs.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

func (c *Client) do(ctx context.Context, token, url string, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if accept == "" {
		accept = "application/vnd.github+json"
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		resp.Body.Close()
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("github returned %d: %s", resp.StatusCode, body)
	}

	return resp, nil
}

// GetUser fetches the profile of the token's owner. A missing display name
// falls back to the login.
func (c *Client) GetUser(ctx context.Context, token string) (*oauth.UserProfile, error) {
	resp, err := c.do(ctx, token, c.baseURL+"/user", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode github user: %w", err)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &oauth.UserProfile{
		Login:     user.Login,
		Name:      name,
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	}, nil
}

// TreeEntry is one node of a repository tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// FetchTree lists the full recursive tree of a branch.
func (c *Client) FetchTree(ctx context.Context, token, owner, repo, branch string) ([]TreeEntry, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.baseURL, owner, repo, branch)
	resp, err := c.do(ctx, token, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tree struct {
		Tree      []TreeEntry `json:"tree"`
		Truncated bool        `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode github tree: %w", err)
	}
	if tree.Truncated {
		// GitHub caps recursive listings around 100k entries. The analysis
		// still works on what was returned.
		log.Warn("github tree listing truncated", "owner", owner, "repo", repo, "branch", branch)
	}

	return tree.Tree, nil
}

// FetchFileContent fetches a blob or contents URL as raw text.
func (c *Client) FetchFileContent(ctx context.Context, token, url string) (string, error) {
	resp, err := c.do(ctx, token, url, "application/vnd.github.raw+json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}
	return string(body), nil
}
