package stats_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-checkin/internal/models"
	"ms-checkin/internal/stats"
)

func TestMembershipPresence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/v1/events/evt-1/presence", r.URL.Path)
		json.NewEncoder(w).Encode(models.Presence{
			Count:        42,
			CountsByRole: map[string]int{"staff": 5, "visitor": 37},
		})
	}))
	defer server.Close()

	client := stats.NewHTTPMembershipClient(server.URL, nil)

	presence, err := client.Presence(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 42, presence.Count)
	assert.Equal(t, 5, presence.CountsByRole["staff"])
}

func TestMembershipPresenceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := stats.NewHTTPMembershipClient(server.URL, nil)

	_, err := client.Presence(context.Background(), "evt-1")
	assert.Error(t, err)
}

func TestMembershipPresenceUnreachable(t *testing.T) {
	client := stats.NewHTTPMembershipClient("http://127.0.0.1:1", nil)

	_, err := client.Presence(context.Background(), "evt-1")
	assert.Error(t, err)
}
