package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covdash/covdash/internal/log"
)

const (
	sessionCookieName = "covdash_session"
	sessionMaxAge     = 24 * time.Hour
)

// sessionSigner issues and validates the dashboard's own session cookie.
// The GitHub token stays server-side; the browser only ever holds this
// signed claim.
type sessionSigner struct {
	secret []byte
}

func newSessionSigner(secret string) *sessionSigner {
	if secret == "" {
		// An ephemeral secret invalidates sessions across restarts, which
		// is acceptable for a local dashboard.
		b := make([]byte, 32)
		rand.Read(b)
		secret = hex.EncodeToString(b)
		log.Warn("COVDASH_SESSION_SECRET not set, sessions will not survive restarts")
	}
	return &sessionSigner{secret: []byte(secret)}
}

// issue writes a signed session cookie for the given login.
func (s *sessionSigner) issue(w http.ResponseWriter, login string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": login,
		"iat": now.Unix(),
		"exp": now.Add(sessionMaxAge).Unix(),
		"iss": "covdash",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clear expires the session cookie.
func (s *sessionSigner) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// validate returns the login from a valid session cookie.
func (s *sessionSigner) validate(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	login, _ := claims["sub"].(string)
	return login, login != ""
}

// requireSession gates the dashboard data endpoints behind a valid session
// cookie and a stored GitHub token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessionJWT.validate(r); !ok || !s.store.IsAuthenticated() {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
