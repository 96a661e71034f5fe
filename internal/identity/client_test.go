package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestSearchExactFiltersFuzzyMatches(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Shade", r.URL.Query().Get("q"))
		w.Write([]byte(`{"players":[
			{"Id":"p1","Name":"Shade","GuildName":"Phoenix"},
			{"Id":"p2","Name":"Shadewalker","GuildName":"Phoenix"},
			{"Id":"p3","Name":"SHADE","GuildName":"Other"}
		]}`))
	})

	players, err := client.SearchExact(context.Background(), "Shade")
	require.NoError(t, err)
	require.Len(t, players, 2, "only exact case-insensitive matches survive")
	assert.Equal(t, "p1", players[0].ID)
	assert.Equal(t, "p3", players[1].ID)
}

func TestSearchExactNoMatches(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"players":[{"Id":"p2","Name":"Shadewalker","GuildName":"Phoenix"}]}`))
	})

	players, err := client.SearchExact(context.Background(), "Shade")
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestPlayerDetails(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/p1", r.URL.Path)
		w.Write([]byte(`{"Id":"p1","Name":"Shade","GuildName":"Phoenix"}`))
	})

	p, err := client.PlayerDetails(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Shade", p.Name)
	assert.Equal(t, "Phoenix", p.GuildName)
}

func TestServerErrorSurfaces(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchExact(context.Background(), "Shade")
	assert.ErrorContains(t, err, "status 502")

	_, err = client.PlayerDetails(context.Background(), "p1")
	assert.ErrorContains(t, err, "status 502")
}
