package umls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"healthaudit/pkg/core"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		switch r.URL.Query().Get("string") {
		case "metformin":
			_, _ = w.Write([]byte(`{"result":{"results":[{"ui":"C0025598","name":"Metformin"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"result":{"results":[{"ui":"NONE","name":"NO RESULTS"}]}}`))
		}
	}))
	defer srv.Close()

	c, err := NewClient("test-key")
	require.NoError(t, err)
	c.BaseURL = srv.URL

	ok, err := c.Exists(context.Background(), "metformin")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Exists(context.Background(), "unobtainium")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExistsSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient("test-key")
	require.NoError(t, err)
	c.BaseURL = srv.URL

	_, err = c.Exists(context.Background(), "metformin")
	require.Error(t, err)
	require.True(t, core.IsRateLimit(err))
}
