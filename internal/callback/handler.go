// Package callback completes the authorization flow after the provider
// redirects back: state validation, token exchange, and credential
// persistence, plus the retry policy that drives the callback page.
package callback

import (
	"context"
	"fmt"

	"github.com/covdash/covdash/internal/credstore"
	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

// ProfileFetcher fetches the user profile for a freshly issued token.
type ProfileFetcher interface {
	GetUser(ctx context.Context, token string) (*oauth.UserProfile, error)
}

// Handler validates the callback and turns the authorization code into a
// stored credential.
type Handler struct {
	store     *credstore.Store
	exchanger oauth.Exchanger
	profiles  ProfileFetcher
}

// NewHandler creates a callback handler.
func NewHandler(store *credstore.Store, exchanger oauth.Exchanger, profiles ProfileFetcher) *Handler {
	return &Handler{store: store, exchanger: exchanger, profiles: profiles}
}

// HandleCallback validates the returned state, exchanges the code, and
// persists the resulting token. The pending state is consumed whether or
// not it matches, so a replayed callback fails too. The profile fetch is
// best-effort: its failure never fails the callback.
func (h *Handler) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if !h.store.ValidateState(state) {
		return "", oauth.ErrInvalidState
	}

	token, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	if err := h.store.StoreToken(token.AccessToken); err != nil {
		return "", fmt.Errorf("authorization succeeded but the token could not be stored: %w", err)
	}

	if h.profiles != nil {
		if profile, err := h.profiles.GetUser(ctx, token.AccessToken); err != nil {
			log.Warn("user profile fetch failed", "error", err)
		} else if err := h.store.StoreUser(profile); err != nil {
			log.Warn("user profile could not be stored", "error", err)
		}
	}

	return token.AccessToken, nil
}
