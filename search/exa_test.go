package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exaServer(t *testing.T, handler func(t *testing.T, path string, body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		status, reply := handler(t, r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExaSearch(t *testing.T) {
	srv := exaServer(t, func(t *testing.T, path string, body map[string]any) (int, string) {
		assert.Equal(t, "/search", path)
		assert.Equal(t, "golang", body["query"])
		assert.Equal(t, "auto", body["type"])
		assert.Equal(t, float64(2), body["numResults"])
		contents, _ := body["contents"].(map[string]any)
		assert.Equal(t, true, contents["text"])
		return http.StatusOK, `{"results": [
			{"id": "a", "title": "Go", "url": "https://go.dev", "text": "The Go language"},
			{"id": "b", "url": "https://pkg.go.dev"}
		]}`
	})

	c := NewExaClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "golang", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, Result{ID: "a", Title: "Go", URL: "https://go.dev", Text: "The Go language"}, results[0])
	assert.Equal(t, "b", results[1].ID)
	assert.Empty(t, results[1].Title)
}

func TestExaContents(t *testing.T) {
	srv := exaServer(t, func(t *testing.T, path string, body map[string]any) (int, string) {
		assert.Equal(t, "/contents", path)
		assert.Equal(t, []any{"a", "b"}, body["ids"])
		return http.StatusOK, `{"results": [{"id": "a", "title": "Go", "text": "body"}]}`
	})

	c := NewExaClient("test-key", WithBaseURL(srv.URL))
	pages, err := c.Contents(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Equal(t, "Go", pages[0].Title)
	assert.Equal(t, "body", pages[0].Text)
}

func TestExaErrorStatus(t *testing.T) {
	srv := exaServer(t, func(*testing.T, string, map[string]any) (int, string) {
		return http.StatusUnauthorized, `{"error": "invalid api key"}`
	})

	c := NewExaClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestUnconfiguredNeverCallsOut(t *testing.T) {
	var p Provider = Unconfigured{}

	_, err := p.Search(context.Background(), "q", 5)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = p.Contents(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestNewSelectsVariant(t *testing.T) {
	assert.IsType(t, Unconfigured{}, New(""))
	assert.IsType(t, &ExaClient{}, New("key"))

	t.Setenv(EnvAPIKey, "")
	assert.IsType(t, Unconfigured{}, FromEnv())
}
