// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/covdash/covdash/internal/callback"
	"github.com/covdash/covdash/internal/config"
	"github.com/covdash/covdash/internal/coverage"
	"github.com/covdash/covdash/internal/credstore"
	"github.com/covdash/covdash/internal/db"
	"github.com/covdash/covdash/internal/githubapi"
	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
	"github.com/covdash/covdash/internal/proxy"
	"github.com/covdash/covdash/internal/session"
	"github.com/covdash/covdash/internal/suggest"
)

type Server struct {
	cfg    *config.Config
	db     *db.DB
	router *chi.Mux

	store      *credstore.Store
	session    *session.Controller
	callback   *callback.Handler
	viewModel  *callback.ViewModel
	proxy      *proxy.Handler
	github     *githubapi.Client
	suggester  suggest.Suggester
	runs       *coverage.RunStore
	sessionJWT *sessionSigner

	httpServer *http.Server
}

// New wires the full application: credential store, session controller,
// token exchange proxy, callback pipeline, and the dashboard data
// endpoints.
func New(cfg *config.Config, database *db.DB) *Server {
	oauthCfg := cfg.OAuth()
	store := credstore.New(database.DB)

	github := githubapi.NewClient()
	if cfg.GitHubAPIURL != "" {
		github = githubapi.NewClientWithBaseURL(cfg.GitHubAPIURL)
	}

	s := &Server{
		cfg:        cfg,
		db:         database,
		router:     chi.NewRouter(),
		store:      store,
		session:    session.New(oauthCfg, store),
		proxy:      proxy.NewHandler(oauthCfg.ClientSecret, oauthCfg.TokenURL),
		github:     github,
		suggester:  suggest.NewHTTPSuggester(cfg.SuggestEndpoint, cfg.SuggestAPIKey),
		runs:       coverage.NewRunStore(database.DB),
		sessionJWT: newSessionSigner(cfg.SessionSecret),
	}

	s.callback = callback.NewHandler(store, oauth.NewProxyClient(oauthCfg), github)
	s.viewModel = callback.NewViewModel(s.callback)

	s.routes()
	return s
}

// Router returns the HTTP handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(log.RequestLogger)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/auth/login", s.handleLogin)
	s.router.Get("/auth/logout", s.handleLogout)
	s.router.Get("/oauth/callback", s.handleCallback)

	// The proxy manages its own CORS headers per the exchange contract.
	s.router.Handle("/api/oauth", s.proxy)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/coverage", s.handleCoverage)
			r.Get("/history", s.handleHistory)
			r.Get("/file", s.handleFile)
			r.Post("/suggest", s.handleSuggest)
			r.Get("/logs", s.handleLogs)
		})
	})
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("covdash listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
