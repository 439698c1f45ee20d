package callback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covdash/covdash/internal/oauth"
)

type stubRunner struct {
	calls int
	run   func(calls int) (string, error)
}

func (s *stubRunner) HandleCallback(ctx context.Context, code, state string) (string, error) {
	s.calls++
	return s.run(s.calls)
}

func newTestViewModel(runner Runner) (*ViewModel, *[]time.Duration) {
	vm := NewViewModel(runner)
	var slept []time.Duration
	vm.SetSleep(func(d time.Duration) { slept = append(slept, d) })
	return vm, &slept
}

func query(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func TestRunAccessDeniedShortCircuits(t *testing.T) {
	runner := &stubRunner{run: func(int) (string, error) { return "", errors.New("unreachable") }}
	vm, _ := newTestViewModel(runner)

	result := vm.Run(context.Background(), query("error", "access_denied"))

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, cancelRedirectDelay, result.RedirectDelay)
	assert.Contains(t, result.Message, "cancelled")
	assert.Equal(t, 0, runner.calls, "handler must not run on a denial")
}

func TestRunMissingParameters(t *testing.T) {
	runner := &stubRunner{run: func(int) (string, error) { return "", nil }}
	vm, _ := newTestViewModel(runner)

	for _, q := range []url.Values{
		query("code", "abc"),
		query("state", "xyz"),
		query(),
	} {
		result := vm.Run(context.Background(), q)
		assert.Equal(t, StatusFailed, result.Status)
		assert.Equal(t, cancelRedirectDelay, result.RedirectDelay)
	}
	assert.Equal(t, 0, runner.calls)
}

func TestRunSuccess(t *testing.T) {
	runner := &stubRunner{run: func(int) (string, error) { return "tok123", nil }}
	vm, slept := newTestViewModel(runner)

	result := vm.Run(context.Background(), query("code", "abc", "state", "xyz"))

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "tok123", result.Token)
	assert.Equal(t, successRedirectDelay, result.RedirectDelay)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, *slept)
}

func TestRunRetryBudgetExhausted(t *testing.T) {
	runner := &stubRunner{run: func(int) (string, error) {
		return "", fmt.Errorf("%w: dial tcp: connection refused", oauth.ErrProxyUnreachable)
	}}
	vm, slept := newTestViewModel(runner)

	result := vm.Run(context.Background(), query("code", "abc", "state", "xyz"))

	// 1 initial attempt plus 3 retries.
	assert.Equal(t, 4, runner.calls)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, failureRedirectDelay, result.RedirectDelay)
	assert.Contains(t, result.Message, "after 4 attempts")

	require.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, *slept)
}

func TestRunRetryThenSuccess(t *testing.T) {
	runner := &stubRunner{run: func(calls int) (string, error) {
		if calls < 3 {
			return "", oauth.ErrProxyUnreachable
		}
		return "tok123", nil
	}}
	vm, slept := newTestViewModel(runner)

	result := vm.Run(context.Background(), query("code", "abc", "state", "xyz"))

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestRunNonRetryableFailsImmediately(t *testing.T) {
	runner := &stubRunner{run: func(int) (string, error) {
		return "", oauth.ErrInvalidState
	}}
	vm, slept := newTestViewModel(runner)

	result := vm.Run(context.Background(), query("code", "abc", "state", "xyz"))

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, failureRedirectDelay, result.RedirectDelay)
	assert.Empty(t, *slept)
}

func TestIsRetryableClassification(t *testing.T) {
	assert.True(t, isRetryable(oauth.ErrProxyUnreachable))
	assert.True(t, isRetryable(errors.New("dial tcp 127.0.0.1:80: connection refused")))
	assert.True(t, isRetryable(errors.New("request timeout exceeded")))
	assert.False(t, isRetryable(oauth.ErrInvalidState))
	assert.False(t, isRetryable(oauth.ErrExchangeFailed))
	assert.False(t, isRetryable(oauth.ErrProviderDenied))
}
