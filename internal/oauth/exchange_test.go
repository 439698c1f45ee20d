package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyClientFor(url string) *ProxyClient {
	return NewProxyClient(Config{
		ClientID:    "client-123",
		RedirectURI: "http://localhost:8080/oauth/callback",
		ProxyURL:    url,
	})
}

func TestExchangeSuccess(t *testing.T) {
	var got exchangeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Token{AccessToken: "tok123", TokenType: "bearer", Scope: "repo"})
	}))
	defer srv.Close()

	token, err := proxyClientFor(srv.URL).Exchange(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "tok123", token.AccessToken)
	assert.Equal(t, "abc", got.Code)
	assert.Equal(t, "client-123", got.ClientID)
	assert.Equal(t, "http://localhost:8080/oauth/callback", got.RedirectURI)
}

func TestExchangeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(exchangeError{Error: "bad_verification_code", Message: "code expired"})
	}))
	defer srv.Close()

	_, err := proxyClientFor(srv.URL).Exchange(context.Background(), "stale")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExchangeFailed)
	assert.Contains(t, err.Error(), "bad_verification_code")
}

func TestExchangeAccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(exchangeError{Error: "access_denied", Message: "user cancelled"})
	}))
	defer srv.Close()

	_, err := proxyClientFor(srv.URL).Exchange(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrProviderDenied)
}

func TestExchangeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	_, err := proxyClientFor(srv.URL).Exchange(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrProxyUnreachable)
}

func TestExchangeEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Token{TokenType: "bearer"})
	}))
	defer srv.Close()

	_, err := proxyClientFor(srv.URL).Exchange(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrExchangeFailed)
}
