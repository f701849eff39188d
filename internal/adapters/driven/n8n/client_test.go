package n8n

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

const workflowJSON = `{
  "id": "L6K4bzSKlGC36ABL",
  "name": "quark",
  "active": true,
  "versionId": "7c1e2d55",
  "createdAt": "2025-01-02T10:00:00.000Z",
  "updatedAt": "2025-03-14T09:26:53.589Z",
  "tags": [{"id": "1", "name": "prod"}],
  "pinData": {"Webhook": [{"json": {}}]},
  "staticData": null,
  "meta": {"templateCredsSetupCompleted": true},
  "nodes": [{"name": "Webhook", "type": "n8n-nodes-base.webhook", "position": [250, 300]}],
  "connections": {"Webhook": {"main": [[]]}},
  "settings": {"executionOrder": "v1"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:       server.URL + "/",
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RatePerSecond: 1000,
		Burst:         100,
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient(Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://localhost:5678"})
	assert.Error(t, err)

	client, err := NewClient(Config{BaseURL: "http://localhost:5678", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.http.Timeout)
	assert.Equal(t, "http://localhost:5678/api/v1", client.baseURL)
}

func TestClient_Get(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/workflows/L6K4bzSKlGC36ABL", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get(HeaderAPIKey))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, workflowJSON)
	})

	rw, err := client.Get(context.Background(), "L6K4bzSKlGC36ABL")

	require.NoError(t, err)
	assert.Equal(t, "L6K4bzSKlGC36ABL", rw.ID)
	assert.Equal(t, "quark", rw.Workflow.Name)
	require.Len(t, rw.Workflow.Nodes, 1)
	assert.Equal(t, map[string]any{"executionOrder": "v1"}, rw.Workflow.Settings)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC), rw.UpdatedAt.UTC())

	// Numbers stay json.Number so canonical hashing sees the source text.
	node := rw.Workflow.Nodes[0].(map[string]any)
	assert.Equal(t, []any{json.Number("250"), json.Number("300")}, node["position"])
}

func TestClient_Get_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})

	_, err := client.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Not Found")
}

func TestClient_Get_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Get(context.Background(), "L6K4bzSKlGC36ABL")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_Get_MissingUpdatedAt(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":"x","name":"quark","nodes":[]}`)
	})

	_, err := client.Get(context.Background(), "x")

	assert.ErrorContains(t, err, "updatedAt")
}

func TestClient_Get_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "slow")

	assert.Error(t, err)
}

func TestClient_Update_SendsOnlyEditableFields(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/workflows/L6K4bzSKlGC36ABL", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, workflowJSON)
	})

	wf := domain.Workflow{Name: "quark", Nodes: []any{map[string]any{"name": "Webhook"}}}
	stored, err := client.Update(context.Background(), "L6K4bzSKlGC36ABL", wf)

	require.NoError(t, err)
	assert.Equal(t, "quark", stored.Workflow.Name)

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"name", "nodes", "connections", "settings"}, keys)
	assert.Equal(t, map[string]any{}, body["settings"])
	assert.Equal(t, map[string]any{}, body["connections"])
}

func TestClient_List_FollowsCursor(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		switch calls.Add(1) {
		case 1:
			assert.Empty(t, r.URL.Query().Get("cursor"))
			_, _ = io.WriteString(w, `{"data":[{"id":"a","name":"alpha","active":true,"updatedAt":"2025-03-14T09:00:00.000Z"}],"nextCursor":"page/2"}`)
		default:
			assert.Equal(t, "page/2", r.URL.Query().Get("cursor"))
			_, _ = io.WriteString(w, `{"data":[{"id":"b","name":"beta","updatedAt":"2025-03-15T09:00:00.000Z"}],"nextCursor":null}`)
		}
	})

	summaries, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "a", summaries[0].ID)
	assert.Equal(t, "alpha", summaries[0].Name)
	assert.True(t, summaries[0].Active)
	assert.Equal(t, "b", summaries[1].ID)
	assert.False(t, summaries[1].Active)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set(HeaderRetryAfter, "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// The back-off fails fast without hitting the server.
	_, err = client.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BaseURL:          server.URL,
		APIKey:           "k",
		RatePerSecond:    1000,
		Burst:            100,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "x")
		assert.NotErrorIs(t, err, domain.ErrCircuitOpen)
	}

	_, err = client.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		_, err := client.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}
