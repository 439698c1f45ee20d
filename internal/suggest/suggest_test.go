package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTestSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "write a test for Foo", req["prompt"])
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Suggestion{Code: "void main() {}", Explanation: "covers Foo"})
	}))
	defer srv.Close()

	s := NewHTTPSuggester(srv.URL, "key-1")
	got, err := s.GenerateTestSuggestions(context.Background(), "write a test for Foo")
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", got.Code)
	assert.Equal(t, "covers Foo", got.Explanation)
}

func TestGenerateWithoutEndpoint(t *testing.T) {
	s := NewHTTPSuggester("", "")
	_, err := s.GenerateTestSuggestions(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPSuggester(srv.URL, "")
	_, err := s.GenerateTestSuggestions(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
