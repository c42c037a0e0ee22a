package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/showapi"
)

func TestClient_DrivesTheServedEngine(t *testing.T) {
	srv, eng := newTestServer(t, true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	ctx := context.Background()

	out, err := c.UsePortal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "characters", out.Destination)

	out, err = c.DiscoverLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, out.XPAwarded)

	_, err = c.WatchEpisode(ctx, 1, 4, "classic", time.Time{})
	require.NoError(t, err)
	_, err = c.AddFavorite(ctx, 2)
	require.NoError(t, err)
	out, err = c.AddCustomCharacter(ctx, "Mr. Nimbus", "Atlantis", "file:///nimbus.jpg", time.Time{})
	require.NoError(t, err)
	require.NotNil(t, out.Custom)
	_, err = c.VisitSection(ctx, "map")
	require.NoError(t, err)
	_, err = c.CompleteQuiz(ctx, 6, 10, time.Time{})
	require.NoError(t, err)
	_, err = c.RecordActivity(ctx, time.Time{})
	require.NoError(t, err)

	out, err = c.AwardXP(ctx, 500)
	require.NoError(t, err)
	assert.True(t, out.Level.LeveledUp)

	snap, err := c.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, eng.Snapshot().Level, snap.Level)
	assert.Equal(t, 1, snap.Counters[domain.CounterPortalUses])
	assert.Equal(t, 2, snap.Counters[domain.CounterFavorites])
	assert.Equal(t, testNow.Format("2006-01-02"), snap.LastLoginDate, "dated events use the daemon clock")
	assert.Equal(t, "classic", snap.WatchedEpisodes[1].Notes)

	_, err = c.RemoveFavorite(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, eng.Snapshot().Favorites)
}

func TestClient_Errors(t *testing.T) {
	srv, eng := newTestServer(t, false)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	c := NewClient(ts.URL)
	ctx := context.Background()

	_, err := c.CompleteQuiz(ctx, 7, 5, time.Time{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Contains(t, apiErr.Message, domain.ErrInvalidQuizResult.Error())

	_, err = c.DiscoverLocation(ctx, 1)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	eng.SetQuotes(showapi.Quotes())
	q, err := c.QuoteOfTheDay(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, showapi.DefaultQuote(), q)

	down := NewClient("http://127.0.0.1:1")
	_, err = down.UsePortal(ctx)
	assert.ErrorContains(t, err, "call citadel daemon")
}
