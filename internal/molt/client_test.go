package molt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeUUID = "123e4567-e89b-12d3-a456-426614174000"

func newTestClient(t *testing.T, handler http.Handler, workspaceID string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		WorkspaceID: workspaceID,
	})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresBaseURLAndKey(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	require.Error(t, err)

	_, err = New(Config{BaseURL: "https://molt-md.com/api/v1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestDo_JSONResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Molt-Key"))
		assert.Empty(t, r.Header.Get("X-Molt-Workspace"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}), "")

	res, err := client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok"}, res.Data)
}

func TestDo_JSONContentTypeWithCharset(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"ok"}`))
	}), "")

	res, err := client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok"}, res.Data)
}

func TestDo_WorkspaceScopeHeader(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fakeUUID, r.Header.Get("X-Molt-Workspace"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}), fakeUUID)

	_, err := client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
	require.NoError(t, err)
}

func TestDo_NoContentSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "")

	res, err := client.Do(context.Background(), http.MethodDelete, "/docs/"+fakeUUID, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"success": true}, res.Data)
}

func TestDo_TextResponseWithMetadataHeaders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Etag", `"v3"`)
		w.Header().Set("X-Molt-Truncated", "true")
		w.Header().Set("X-Molt-Total-Lines", "50")
		w.Write([]byte("# Hello"))
	}), "")

	res, err := client.Do(context.Background(), http.MethodGet, "/docs/"+fakeUUID, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "# Hello", res.Data)
	assert.Equal(t, `"v3"`, res.ETag())
	assert.True(t, res.Truncated())
	assert.Equal(t, 50, res.TotalLines())
}

func TestDo_QueryAndHeadersForwarded(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("lines"))
		assert.Equal(t, "text/markdown", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Line 1"))
	}), "")

	headers := http.Header{}
	headers.Set("Accept", "text/markdown")
	query := url.Values{}
	query.Set("lines", "5")

	_, err := client.Do(context.Background(), http.MethodGet, "/docs/"+fakeUUID, RequestOptions{
		Headers: headers,
		Query:   query,
	})
	require.NoError(t, err)
}

func TestDo_JSONBodySetsContentType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"` + fakeUUID + `"}`))
	}), "")

	_, err := client.Do(context.Background(), http.MethodPost, "/docs", RequestOptions{
		JSON: map[string]any{"content": "# New"},
	})
	require.NoError(t, err)
}

func TestDo_APIErrorWithMessageExtraction(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not_found","message":"Document not found"}`))
	}), "")

	_, err := client.Do(context.Background(), http.MethodGet, "/docs/"+fakeUUID, RequestOptions{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Document not found", apiErr.Detail)
	assert.Contains(t, strings.ToLower(err.Error()), "not found")
}

func TestDo_403OnWriteMentionsWriteKey(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden","message":"Write key required"}`))
	}), "")

	_, err := client.Do(context.Background(), http.MethodPut, "/docs/"+fakeUUID, RequestOptions{
		Raw: []byte("new content"),
	})
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "write key")
}

func TestDo_MalformedErrorBodyStillClassifies(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("not json"))
	}), "")

	_, err := client.Do(context.Background(), http.MethodPut, "/docs/"+fakeUUID, RequestOptions{Raw: []byte("x")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Detail)
	assert.Contains(t, strings.ToLower(err.Error()), "conflict")
}

func TestDo_TransportErrorAndReconnect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	baseURL := server.URL
	server.Close() // first request hits a dead server

	conns := 0
	client, err := New(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		NewConn: func() *http.Client {
			conns++
			return &http.Client{}
		},
	})
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, strings.ToLower(err.Error()), "request error")
	assert.Equal(t, 1, conns)

	// The stale handle was dropped; the next call rebuilds it.
	_, err = client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
	require.Error(t, err)
	assert.Equal(t, 2, conns)
}

func TestDo_ConnectionReusedAcrossCalls(t *testing.T) {
	conns := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		NewConn: func() *http.Client {
			conns++
			return &http.Client{}
		},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := client.Do(context.Background(), http.MethodGet, "/health", RequestOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, conns)
}
