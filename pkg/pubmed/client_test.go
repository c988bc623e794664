package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePMIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pubmed", r.URL.Query().Get("db"))
		_, _ = w.Write([]byte(`{"result":{
			"uids":["12345678","99999999"],
			"12345678":{"uid":"12345678","title":"A real paper"},
			"99999999":{"uid":"99999999","error":"cannot get document summary"}
		}}`))
	}))
	defer srv.Close()

	c := NewClient("")
	c.BaseURL = srv.URL

	valid, err := c.ValidatePMIDs(context.Background(), []string{"12345678", "99999999", "12345678"})
	require.NoError(t, err)
	require.Len(t, valid, 2)
	require.True(t, valid["12345678"])
	require.False(t, valid["99999999"])
}

func TestValidatePMIDsChunksRequests(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		require.LessOrEqual(t, len(ids), chunkSize)
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient("")
	c.BaseURL = srv.URL

	pmids := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		pmids = append(pmids, fmt.Sprintf("%07d", 1000000+i))
	}
	valid, err := c.ValidatePMIDs(context.Background(), pmids)
	require.NoError(t, err)
	require.Equal(t, 2, requests)
	for _, ok := range valid {
		require.False(t, ok)
	}
}

func TestValidatePMIDsEmptyInput(t *testing.T) {
	c := NewClient("")
	valid, err := c.ValidatePMIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, valid)
}
