package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/marksync/internal/config"
	appErr "github.com/xxxsen/marksync/internal/pkg/errors"
)

func TestFetchPage(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		query := r.URL.Query()
		require.Equal(t, "25", query.Get("limit"))
		require.Equal(t, "createdAt", query.Get("sort"))
		require.Equal(t, "asc", query.Get("order"))
		if query.Get("cursor") == "" {
			fmt.Fprint(w, `{"bookmarks":[{"id":"b1","createdAt":"2024-01-01T00:00:00Z","content":{"type":"link","url":"https://example.com"}}],"total":2,"nextCursor":"tok-2"}`)
			return
		}
		require.Equal(t, "tok-2", query.Get("cursor"))
		fmt.Fprint(w, `{"bookmarks":[{"id":"b2","createdAt":"2024-01-02T00:00:00Z","content":{"type":"text","text":"hi"}}],"total":2}`)
	}))
	defer server.Close()

	client := New(config.SourceConfig{Endpoint: server.URL, APIKey: "secret", PageSize: 25}, server.Client())

	page, err := client.FetchPage(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, page.Bookmarks, 1)
	require.Equal(t, "b1", page.Bookmarks[0].ID)
	require.NotNil(t, page.NextCursor)

	page, err = client.FetchPage(context.Background(), *page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, "b2", page.Bookmarks[0].ID)
	require.Nil(t, page.NextCursor)
}

func TestFetchPage_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer server.Close()

	client := New(config.SourceConfig{Endpoint: server.URL, APIKey: "secret", PageSize: 10}, server.Client())
	_, err := client.FetchPage(context.Background(), "")
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrSourceUnavailable)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	require.Equal(t, http.StatusBadGateway, srcErr.Status)
	require.Contains(t, srcErr.Body, "upstream exploded")
}

func TestFetchPage_TransportFailure(t *testing.T) {
	client := New(config.SourceConfig{Endpoint: "http://127.0.0.1:1", APIKey: "k", PageSize: 10}, &http.Client{})
	_, err := client.FetchPage(context.Background(), "")
	require.ErrorIs(t, err, appErr.ErrSourceUnavailable)
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://src.example.com/api/v1", "https://src.example.com"},
		{"http://localhost:3000/api", "http://localhost:3000"},
		{"not-a-url", ""},
		{"::::", ""},
	}
	for _, tt := range tests {
		if got := Origin(tt.raw); got != tt.want {
			t.Fatalf("Origin(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRecordURL(t *testing.T) {
	if got := RecordURL("https://src.example.com/api/v1", "bm-1"); got != "https://src.example.com/bookmarks/bm-1" {
		t.Fatalf("got %q", got)
	}
	if got := RecordURL("::::", "bm-1"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
