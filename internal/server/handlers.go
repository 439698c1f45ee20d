package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/covdash/covdash/internal/callback"
	"github.com/covdash/covdash/internal/coverage"
	"github.com/covdash/covdash/internal/githubapi"
	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>covdash</title></head>
<body>
<h1>covdash</h1>
{{if .Authenticated}}
<p>Signed in{{if .Login}} as {{.Login}}{{end}}. <a href="/auth/logout">Sign out</a></p>
{{else}}
<p><a href="/auth/login">Sign in with GitHub</a></p>
{{end}}
</body>
</html>
`))

// handleIndex serves a minimal shell page; the full dashboard UI is served
// separately in production builds.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Authenticated bool
		Login         string
	}{Authenticated: s.session.IsAuthenticated()}
	if user := s.session.User(); user != nil {
		data.Login = user.Login
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexPage.Execute(w, data)
}

// handleLogin starts the authorization flow with a full-page redirect to
// the provider.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := s.session.Connect()
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			writeJSONError(w, http.StatusInternalServerError,
				"GitHub OAuth is not configured; set COVDASH_GITHUB_CLIENT_ID")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to start authorization")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleLogout disconnects and sends the browser home. Disconnect never
// fails from the caller's perspective.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Disconnect()
	s.sessionJWT.clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<title>covdash</title>
<meta http-equiv="refresh" content="{{.Delay}};url=/">
</head>
<body>
<p>{{.Message}}</p>
<p><a href="/">Back to the dashboard</a></p>
</body>
</html>
`))

// handleCallback completes the flow. The view-model owns the retry policy
// and the redirect timing; this handler renders its decision and, on
// success, issues the dashboard session cookie.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	result := s.viewModel.Run(r.Context(), r.URL.Query())

	if result.Status == callback.StatusSuccess {
		login := ""
		if user := s.store.GetUser(); user != nil {
			login = user.Login
		}
		if login == "" {
			login = "covdash-user"
		}
		if err := s.sessionJWT.issue(w, login); err != nil {
			log.Error("failed to issue session cookie", "error", err)
		}
	}

	status := http.StatusOK
	if result.Status == callback.StatusFailed {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, struct {
		Delay   string
		Message string
	}{
		Delay:   fmt.Sprintf("%g", result.RedirectDelay.Seconds()),
		Message: result.Message,
	})
}

// handleSession reports the authentication state for the UI.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	_, hasCookie := s.sessionJWT.validate(r)
	authenticated := hasCookie && s.store.IsAuthenticated()

	resp := map[string]any{"authenticated": authenticated}
	if authenticated {
		if user := s.store.GetUser(); user != nil {
			resp["user"] = user
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCoverage fetches a repository tree and returns the pairing report.
func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	repo := r.URL.Query().Get("repo")
	branch := r.URL.Query().Get("branch")
	if owner == "" || repo == "" {
		writeJSONError(w, http.StatusBadRequest, "owner and repo parameters are required")
		return
	}
	if branch == "" {
		branch = "main"
	}

	tree, err := s.github.FetchTree(r.Context(), s.store.GetToken(), owner, repo, branch)
	if err != nil {
		s.writeGitHubError(w, err)
		return
	}

	paths := make([]string, 0, len(tree))
	for _, entry := range tree {
		if entry.Type == "blob" {
			paths = append(paths, entry.Path)
		}
	}
	report := coverage.Analyze(paths)

	if _, err := s.runs.Record(owner, repo, branch, report); err != nil {
		log.Warn("failed to record analysis run", "error", err)
	}

	writeJSON(w, http.StatusOK, report)
}

// handleHistory returns past analysis runs for a repository.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	repo := r.URL.Query().Get("repo")
	if owner == "" || repo == "" {
		writeJSONError(w, http.StatusBadRequest, "owner and repo parameters are required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := s.runs.History(owner, repo, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if runs == nil {
		runs = []coverage.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleFile proxies raw file content for the editor panel.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSONError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	content, err := s.github.FetchFileContent(r.Context(), s.store.GetToken(), url)
	if err != nil {
		s.writeGitHubError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

// handleSuggest drafts a test file for the submitted prompt.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	suggestion, err := s.suggester.GenerateTestSuggestions(r.Context(), req.Prompt)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "suggestion service failed")
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// handleLogs returns the tail of the in-memory log buffer.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 {
		n = 100
	}
	lines := log.BufferedLines(n)
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *Server) writeGitHubError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, githubapi.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "GitHub rejected the stored token; sign in again")
	case errors.Is(err, githubapi.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "repository or branch not found")
	case errors.Is(err, githubapi.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, "GitHub rate limit exceeded")
	default:
		writeJSONError(w, http.StatusBadGateway, "GitHub request failed")
	}
}
