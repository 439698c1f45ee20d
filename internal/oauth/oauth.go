// Package oauth implements the GitHub authorization flow used by the
// dashboard: CSRF state generation, the token exchange client, and the
// shared types carried between the session controller and the callback
// handler.
package oauth

import "errors"

var (
	ErrEntropyUnavailable = errors.New("secure random source unavailable")
	ErrNotConfigured      = errors.New("oauth client id or redirect uri not configured")
	ErrInvalidState       = errors.New("oauth state mismatch")
	ErrProviderDenied     = errors.New("authorization denied by provider")
	ErrExchangeFailed     = errors.New("token exchange failed")
	ErrProxyUnreachable   = errors.New("token exchange endpoint unreachable")
)

// Token holds the bearer credential returned by the token exchange.
// The access token is opaque and never parsed.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// UserProfile holds the subset of the GitHub user record the dashboard
// displays. The profile is a convenience: a failed fetch never invalidates
// an otherwise successful authentication.
type UserProfile struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

// Config holds the OAuth client configuration. It is built once at startup
// and read-only afterwards.
type Config struct {
	ClientID     string
	ClientSecret string // server-only, consumed by the proxy endpoint
	RedirectURI  string
	Scopes       []string
	AuthorizeURL string
	TokenURL     string
	ProxyURL     string
	AllowSignup  bool
}

// DefaultScopes are the permissions the dashboard requests: repository
// access for fetching source trees and read-only profile access.
var DefaultScopes = []string{"repo", "read:user"}
