// Package config loads the covdash configuration from the environment once
// at startup. The parsed struct is read-only afterwards.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2/github"

	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

// Config is the full server configuration.
type Config struct {
	Host   string `env:"COVDASH_HOST" envDefault:"0.0.0.0"`
	Port   int    `env:"COVDASH_PORT" envDefault:"8080"`
	DBPath string `env:"COVDASH_DB" envDefault:"covdash.db"`

	// BaseURL is the externally visible origin; derived from host and
	// port when unset.
	BaseURL string `env:"COVDASH_BASE_URL"`

	// SessionSecret signs the dashboard's own session cookie.
	SessionSecret string `env:"COVDASH_SESSION_SECRET"`

	GitHubClientID     string   `env:"COVDASH_GITHUB_CLIENT_ID"`
	GitHubClientSecret string   `env:"COVDASH_GITHUB_CLIENT_SECRET"`
	RedirectURI        string   `env:"COVDASH_REDIRECT_URI"`
	Scopes             []string `env:"COVDASH_OAUTH_SCOPES" envSeparator:","`
	ProxyURL           string   `env:"COVDASH_PROXY_URL"`

	// Endpoint overrides for GitHub Enterprise installs; empty selects
	// github.com.
	GitHubAuthorizeURL string `env:"COVDASH_GITHUB_AUTHORIZE_URL"`
	GitHubTokenURL     string `env:"COVDASH_GITHUB_TOKEN_URL"`
	GitHubAPIURL       string `env:"COVDASH_GITHUB_API_URL"`

	SuggestEndpoint string `env:"COVDASH_SUGGEST_ENDPOINT"`
	SuggestAPIKey   string `env:"COVDASH_SUGGEST_API_KEY"`

	LogMode     string `env:"COVDASH_LOG_MODE" envDefault:"console"`
	LogLevel    string `env:"COVDASH_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"COVDASH_LOG_FORMAT" envDefault:"text"`
	LogFilePath string `env:"COVDASH_LOG_FILE" envDefault:"covdash.log"`
}

// Load parses the environment and fills in derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		host := c.Host
		if host == "0.0.0.0" || host == "" {
			host = "localhost"
		}
		c.BaseURL = fmt.Sprintf("http://%s:%d", host, c.Port)
	}
	if c.RedirectURI == "" {
		c.RedirectURI = c.BaseURL + "/oauth/callback"
	}
	if c.ProxyURL == "" {
		c.ProxyURL = c.BaseURL + "/api/oauth"
	}
	if len(c.Scopes) == 0 {
		c.Scopes = oauth.DefaultScopes
	}
	if c.GitHubAuthorizeURL == "" {
		c.GitHubAuthorizeURL = github.Endpoint.AuthURL
	}
	if c.GitHubTokenURL == "" {
		c.GitHubTokenURL = github.Endpoint.TokenURL
	}
}

// OAuth assembles the OAuth client configuration.
func (c *Config) OAuth() oauth.Config {
	return oauth.Config{
		ClientID:     c.GitHubClientID,
		ClientSecret: c.GitHubClientSecret,
		RedirectURI:  c.RedirectURI,
		Scopes:       c.Scopes,
		AuthorizeURL: c.GitHubAuthorizeURL,
		TokenURL:     c.GitHubTokenURL,
		ProxyURL:     c.ProxyURL,
		AllowSignup:  true,
	}
}

// Log assembles the logging configuration.
func (c *Config) Log() *log.Config {
	lc := log.DefaultConfig()
	lc.Mode = c.LogMode
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.FilePath = c.LogFilePath
	return lc
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
