package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "http://localhost:8080/oauth/callback", cfg.RedirectURI)
	assert.Equal(t, "http://localhost:8080/api/oauth", cfg.ProxyURL)
	assert.Equal(t, []string{"repo", "read:user"}, cfg.Scopes)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COVDASH_PORT", "9090")
	t.Setenv("COVDASH_GITHUB_CLIENT_ID", "client-env")
	t.Setenv("COVDASH_OAUTH_SCOPES", "repo,read:user,gist")
	t.Setenv("COVDASH_BASE_URL", "https://cov.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "client-env", cfg.GitHubClientID)
	assert.Equal(t, []string{"repo", "read:user", "gist"}, cfg.Scopes)
	assert.Equal(t, "https://cov.example.com/oauth/callback", cfg.RedirectURI)
	assert.Equal(t, "https://cov.example.com/api/oauth", cfg.ProxyURL)
}

func TestOAuthConfig(t *testing.T) {
	t.Setenv("COVDASH_GITHUB_CLIENT_ID", "client-1")
	t.Setenv("COVDASH_GITHUB_CLIENT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	oc := cfg.OAuth()
	assert.Equal(t, "client-1", oc.ClientID)
	assert.Equal(t, "s3cret", oc.ClientSecret)
	assert.Contains(t, oc.AuthorizeURL, "github.com/login/oauth/authorize")
	assert.Contains(t, oc.TokenURL, "github.com/login/oauth/access_token")
	assert.True(t, oc.AllowSignup)
}
