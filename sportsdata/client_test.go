package sportsdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/logging"
)

const fixturesPayload = `{
  "response": [
    {
      "fixture": {"id": 42, "date": "2026-09-01T20:00:00+00:00", "status": {"long": "Not Started", "short": "NS"}},
      "league": {"name": "La Liga"},
      "teams": {"home": {"name": "Real Madrid"}, "away": {"name": "Sevilla"}},
      "goals": {"home": null, "away": null}
    },
    {
      "fixture": {"id": 43, "date": "2026-09-01T18:00:00+00:00", "status": {"long": "Match Finished", "short": "FT"}},
      "league": {"name": "Premier League"},
      "teams": {"home": {"name": "Arsenal"}, "away": {"name": "Chelsea"}},
      "goals": {"home": 2, "away": 1}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("test-key", func(o *Options) {
		o.BaseURL = srv.URL
		o.Logger = logging.NoOpLogger{}
	})
}

func TestFetchDate(t *testing.T) {
	t.Run("formats fixtures into fact sentences", func(t *testing.T) {
		var gotKey, gotDate string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("x-apisports-key")
			gotDate = r.URL.Query().Get("date")
			w.Write([]byte(fixturesPayload))
		})

		facts, err := client.FetchDate(context.Background(), "2026-09-01")
		require.NoError(t, err)
		assert.Equal(t, "test-key", gotKey)
		assert.Equal(t, "2026-09-01", gotDate)

		require.Len(t, facts, 2)

		assert.Equal(t, "fixture-42", facts[0].ID)
		assert.Equal(t,
			"On 2026-09-01 at 20:00, in the La Liga, a match between Real Madrid and Sevilla is scheduled. Status: Not Started.",
			facts[0].Text)
		assert.Equal(t, "La Liga", facts[0].Metadata["league"])
		assert.Equal(t, "fixture-42", facts[0].Metadata["fact_key"])

		assert.Contains(t, facts[1].Text, "Final score was 2 - 1.")
	})

	t.Run("rate limit is classified", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.FetchDate(context.Background(), "2026-09-01")

		var rateLimited *core.RateLimitError
		require.ErrorAs(t, err, &rateLimited)
		assert.Equal(t, "api-football", rateLimited.Provider)
	})

	t.Run("server error is transient", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.FetchDate(context.Background(), "2026-09-01")

		var transient *core.TransientNetworkError
		require.ErrorAs(t, err, &transient)
	})
}

func TestFetchRangeSkipsFailedDays(t *testing.T) {
	day := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		day++
		if day == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(fixturesPayload))
	})

	facts, err := client.FetchRange(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Len(t, facts, 2, "failed day skipped, next day still ingested")
}

func TestFormatFixtureDefaults(t *testing.T) {
	var m fixtureEntry
	m.Fixture.ID = 7

	fact := formatFixture(m, "2026-09-01")
	assert.Equal(t,
		"On 2026-09-01, in the N/A, a match between N/A and N/A is scheduled. Status: Scheduled.",
		fact.Text)
}
