// Package session exposes the authentication facade the dashboard UI talks
// to: connect, disconnect, and the current authenticated state.
package session

import (
	"golang.org/x/oauth2"

	"github.com/covdash/covdash/internal/credstore"
	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

// Controller orchestrates the authorization flow. One instance is built at
// startup and shared by the HTTP handlers.
type Controller struct {
	cfg   oauth.Config
	store *credstore.Store
	oauth *oauth2.Config
}

// New creates a Controller for the given configuration.
func New(cfg oauth.Config, store *credstore.Store) *Controller {
	return &Controller{
		cfg:   cfg,
		store: store,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
	}
}

// IsAuthenticated reports whether a bearer token is stored.
func (c *Controller) IsAuthenticated() bool {
	return c.store.IsAuthenticated()
}

// BuildAuthorizationURL generates a fresh CSRF state, persists it, and
// returns the provider authorization URL embedding it. Every call replaces
// any pending state, so only the most recently issued URL can complete
// validation.
func (c *Controller) BuildAuthorizationURL() (url, state string, err error) {
	state, err = oauth.GenerateState()
	if err != nil {
		return "", "", err
	}

	// A failed state write means the eventual callback will fail
	// validation; the flow itself can still start.
	if err := c.store.StoreState(state); err != nil {
		log.Warn("failed to persist oauth state", "error", err)
	}

	opts := []oauth2.AuthCodeOption{}
	if c.cfg.AllowSignup {
		opts = append(opts, oauth2.SetAuthURLParam("allow_signup", "true"))
	}

	return c.oauth.AuthCodeURL(state, opts...), state, nil
}

// Connect begins an authorization attempt and returns the URL the browser
// must navigate to. Fails with oauth.ErrNotConfigured before any state is
// written when the client id or redirect uri is missing.
func (c *Controller) Connect() (string, error) {
	if c.cfg.ClientID == "" || c.cfg.RedirectURI == "" {
		return "", oauth.ErrNotConfigured
	}
	url, _, err := c.BuildAuthorizationURL()
	return url, err
}

// Disconnect revokes the stored credentials. Storage failures are logged
// and swallowed: disconnect must always leave the session unauthenticated
// from the caller's point of view.
func (c *Controller) Disconnect() {
	if err := c.store.Revoke(); err != nil {
		log.Warn("failed to clear credentials on disconnect", "error", err)
	}
}

// User returns the stored profile, or nil when absent.
func (c *Controller) User() *oauth.UserProfile {
	return c.store.GetUser()
}
