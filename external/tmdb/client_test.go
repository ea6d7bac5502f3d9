package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelclub/movie-club/internal/platform/logging"
)

func TestClient_GetMovieByID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/movie/603") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","poster_path":"/matrix.jpg","release_date":"1999-03-31"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Logger:  logging.NewNop(),
	})

	meta, err := client.GetMovieByID(context.Background(), 603)
	require.NoError(t, err)
	require.Equal(t, int64(603), meta.MovieID)
	require.Equal(t, "The Matrix", meta.Title)
	require.Equal(t, "/matrix.jpg", meta.PosterPath)
	require.Equal(t, 1999, meta.ReleaseYear)
}

func TestClient_GetMovieByID_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club","release_date":"1999-10-15"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxRetries: 2,
		Logger:     logging.NewNop(),
	})

	meta, err := client.GetMovieByID(context.Background(), 550)
	require.NoError(t, err)
	require.Equal(t, "Fight Club", meta.Title)
	require.EqualValues(t, 2, calls.Load(), "transient status should be retried exactly once")
}

func TestClient_GetMovieByID_DoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxRetries: 3,
		Logger:     logging.NewNop(),
	})

	_, err := client.GetMovieByID(context.Background(), 999)
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load(), "permanent failures must not retry")
}

func TestParseReleaseYear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"1999-03-31", 1999},
		{"2026", 2026},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parseReleaseYear(tc.in), "parseReleaseYear(%q)", tc.in)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api.example/movie/1?api_key=secret-key": timeout`, "secret-key")
	require.NotContains(t, got, "secret-key")
}
