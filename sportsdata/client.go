// Package sportsdata fetches football fixtures from the api-football service
// and formats them into the fact sentences the memory store indexes.
package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/logging"
)

const defaultBaseURL = "https://v3.football.api-sports.io"

// Fact is one fixture rendered as an indexable sentence. The ID is stable
// across refreshes so re-ingestion replaces instead of duplicating.
type Fact struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Options configure the fixtures client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client talks to the api-football fixtures endpoint.
type Client struct {
	apiKey string
	opts   Options
}

// NewClient creates a fixtures client authenticated by API key.
func NewClient(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{apiKey: apiKey, opts: opts}
}

// FetchRange fetches fixtures for every date in [today-past, today+future]
// and formats them as facts. A failed day is logged and skipped; the other
// days still contribute, matching the forgiving ingestion the bot needs at
// startup.
func (c *Client) FetchRange(ctx context.Context, past, future int) ([]Fact, error) {
	var facts []Fact
	today := time.Now().UTC()

	for i := -past; i <= future; i++ {
		date := today.AddDate(0, 0, i).Format("2006-01-02")

		dayFacts, err := c.FetchDate(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return facts, ctx.Err()
			}
			c.opts.Logger.Warn("sportsdata.fetch.failed", "date", date, "error", err)
			continue
		}
		facts = append(facts, dayFacts...)
	}

	c.opts.Logger.Info("sportsdata.fetch.done", "facts", len(facts))

	return facts, nil
}

// FetchDate fetches and formats all fixtures for one date (YYYY-MM-DD).
func (c *Client) FetchDate(ctx context.Context, date string) ([]Fact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/fixtures?%s", c.opts.BaseURL, url.Values{"date": {date}}.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("build fixtures request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, &core.TransientNetworkError{Op: "fixtures.fetch", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &core.RateLimitError{Provider: "api-football"}
	case resp.StatusCode >= 500:
		return nil, &core.TransientNetworkError{Op: "fixtures.fetch", Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fixtures fetch: unexpected status %d", resp.StatusCode)
	}

	var payload fixturesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fixtures response: %w", err)
	}

	facts := make([]Fact, 0, len(payload.Response))
	for _, m := range payload.Response {
		facts = append(facts, formatFixture(m, date))
	}
	return facts, nil
}

// Wire types for the subset of the fixtures payload the bot uses.
type fixturesResponse struct {
	Response []fixtureEntry `json:"response"`
}

type fixtureEntry struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Long  string `json:"long"`
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// formatFixture renders one fixture into the sentence shape the retrieval
// prompt and the calendar tool's date parser both rely on:
//
//	On 2026-09-01 at 20:00, in the La Liga, a match between A and B is
//	scheduled. Status: Not Started.
//
// Finished matches get the final score appended.
func formatFixture(m fixtureEntry, fallbackDate string) Fact {
	when := m.Fixture.Date
	if len(when) >= 16 {
		when = when[:16]
	} else if when == "" {
		when = fallbackDate
	}
	when = strings.Replace(when, "T", " at ", 1)

	status := m.Fixture.Status.Long
	if status == "" {
		status = "Scheduled"
	}

	league := m.League.Name
	if league == "" {
		league = "N/A"
	}

	text := fmt.Sprintf("On %s, in the %s, a match between %s and %s is scheduled. Status: %s.",
		when, league, teamName(m.Teams.Home.Name), teamName(m.Teams.Away.Name), status)

	if m.Fixture.Status.Short == "FT" {
		text += fmt.Sprintf(" Final score was %s - %s.", score(m.Goals.Home), score(m.Goals.Away))
	}

	id := fmt.Sprintf("fixture-%d", m.Fixture.ID)

	return Fact{
		ID:   id,
		Text: text,
		Metadata: map[string]string{
			"fixture_id": fmt.Sprintf("%d", m.Fixture.ID),
			"fact_key":   id,
			"league":     league,
			"date":       fallbackDate,
		},
	}
}

func teamName(name string) string {
	if name == "" {
		return "N/A"
	}
	return name
}

func score(goals *int) string {
	if goals == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *goals)
}
