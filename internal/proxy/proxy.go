// Package proxy implements the token exchange endpoint. It is the trust
// boundary of the flow: the only component holding the client secret. The
// browser sends it an authorization code and gets back a bearer token; the
// secret never leaves the server.
package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/covdash/covdash/internal/log"
)

const defaultTokenURL = "https://github.com/login/oauth/access_token"

// upstreamTimeout bounds the provider round trip so the caller's retry
// loop has a bounded total wall-clock time.
const upstreamTimeout = 10 * time.Second

// Handler serves POST /api/oauth.
type Handler struct {
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
}

// NewHandler creates a proxy handler. An empty tokenURL selects the GitHub
// token endpoint.
func NewHandler(clientSecret, tokenURL string) *Handler {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &Handler{
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: upstreamTimeout},
	}
}

type exchangeRequest struct {
	Code        string `json:"code"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// ServeHTTP implements the proxy contract: OPTIONS preflight, POST only,
// wide-open CORS (the response carries no secret material, only the
// derived bearer token).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters", "")
		return
	}
	if req.Code == "" || req.ClientID == "" || req.RedirectURI == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters", "")
		return
	}

	if h.clientSecret == "" {
		// The secret's absence is detailed in the server log only.
		log.Error("token exchange refused: client secret is not configured")
		writeError(w, http.StatusInternalServerError, "Server configuration error", "")
		return
	}

	form := url.Values{}
	form.Set("client_id", req.ClientID)
	form.Set("client_secret", h.clientSecret)
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURI)

	upstream, err := http.NewRequestWithContext(r.Context(), "POST", h.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server configuration error", "")
		return
	}
	upstream.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	upstream.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(upstream)
	if err != nil {
		log.Warn("token exchange upstream request failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_unreachable", "token exchange request failed")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_unreachable", "failed to read token response")
		return
	}

	// Provider failures keep their upstream status.
	if resp.StatusCode != http.StatusOK {
		writeError(w, resp.StatusCode, "token_exchange_failed", strings.TrimSpace(string(body)))
		return
	}

	// GitHub returns 200 even on errors, so inspect the body.
	var parsed struct {
		tokenResponse
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		writeError(w, http.StatusBadGateway, "token_exchange_failed", "invalid response from provider")
		return
	}
	if parsed.Error != "" {
		writeError(w, http.StatusBadGateway, parsed.Error, parsed.ErrorDesc)
		return
	}
	if parsed.AccessToken == "" {
		writeError(w, http.StatusBadGateway, "token_exchange_failed", "provider returned an empty access token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(parsed.tokenResponse)
}

func writeError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": errCode}
	if message != "" {
		body["message"] = message
	}
	json.NewEncoder(w).Encode(body)
}
