package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/oauth"
)

// Status is the terminal outcome of a callback page visit.
type Status int

const (
	StatusProcessing Status = iota
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "processing"
	}
}

// Redirect delays after the flow settles. Failures linger a little longer
// so the message can be read.
const (
	successRedirectDelay = 1500 * time.Millisecond
	cancelRedirectDelay  = 2 * time.Second
	failureRedirectDelay = 3 * time.Second

	maxRetries = 3
)

// Result describes what the callback page should show and when to send the
// browser back to the application root.
type Result struct {
	Status        Status
	Message       string
	Token         string
	RedirectDelay time.Duration
	Attempts      int
}

// Runner is the callback completion the view-model drives; satisfied by
// *Handler.
type Runner interface {
	HandleCallback(ctx context.Context, code, state string) (string, error)
}

// ViewModel runs the callback with a bounded retry loop. Only transport
// failures are retried: a response that reached the provider consumed the
// single-use authorization code, so retrying it cannot succeed.
type ViewModel struct {
	runner Runner
	sleep  func(time.Duration)
}

// NewViewModel creates a view-model around the given runner.
func NewViewModel(runner Runner) *ViewModel {
	return &ViewModel{runner: runner, sleep: time.Sleep}
}

// SetSleep replaces the backoff sleep, used by tests.
func (vm *ViewModel) SetSleep(sleep func(time.Duration)) {
	vm.sleep = sleep
}

// Run processes the callback query parameters to a terminal Result. Every
// path ends in a redirect decision; the page is never left processing.
func (vm *ViewModel) Run(ctx context.Context, query url.Values) Result {
	if query.Get("error") == "access_denied" {
		return Result{
			Status:        StatusFailed,
			Message:       "Authorization was cancelled.",
			RedirectDelay: cancelRedirectDelay,
		}
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		return Result{
			Status:        StatusFailed,
			Message:       "Invalid response from the authorization server.",
			RedirectDelay: cancelRedirectDelay,
		}
	}

	retries := 0
	for {
		attempt := retries + 1
		token, err := vm.runner.HandleCallback(ctx, code, state)
		if err == nil {
			return Result{
				Status:        StatusSuccess,
				Message:       "Authorization complete.",
				Token:         token,
				RedirectDelay: successRedirectDelay,
				Attempts:      attempt,
			}
		}

		if isRetryable(err) && retries < maxRetries {
			backoff := time.Duration(1<<retries) * time.Second
			retries++
			log.Warn("callback attempt failed, retrying",
				"attempt", attempt, "backoff", backoff, "error", err)
			vm.sleep(backoff)
			continue
		}

		message := err.Error()
		if isRetryable(err) {
			message = fmt.Sprintf("Authorization failed after %d attempts.", attempt)
		}
		return Result{
			Status:        StatusFailed,
			Message:       message,
			RedirectDelay: failureRedirectDelay,
			Attempts:      attempt,
		}
	}
}

// isRetryable reports whether the error signals a transient network
// failure rather than a definitive rejection.
func isRetryable(err error) bool {
	if errors.Is(err, oauth.ErrProxyUnreachable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}
