// Package calendar exposes Google Calendar event creation as a tool the
// model can call to set match reminders.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/tool"
)

// ToolName is the name the model uses to invoke event creation.
const ToolName = "create_calendar_event"

const eventDuration = 2 * time.Hour

// matchTimePattern finds a kickoff like "2026-09-01 at 20:00" inside the
// match context text, which is the shape the fixture sentences use.
var matchTimePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}) at (\d{2}:\d{2})`)

type createEventArgs struct {
	Summary      string `json:"summary" description:"The title of the event, e.g. 'Germany W vs Spain W'"`
	MatchContext string `json:"match_context" description:"The full text description of the match, including date and time"`
}

// Options configure the calendar tool.
type Options struct {
	// CalendarID is the target calendar. Defaults to the user's primary.
	CalendarID string
	Timeout    time.Duration
}

// NewTool builds the create_calendar_event tool over an Authenticator.
func NewTool(auth Authenticator, optFns ...func(o *Options)) *tool.FunctionTool {
	opts := Options{
		CalendarID: "primary",
		Timeout:    15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		ToolName,
		"Creates an event in the user's Google Calendar.",
		createEventArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			summary, _ := args["summary"].(string)
			matchContext, _ := args["match_context"].(string)

			start, err := parseMatchTime(matchContext)
			if err != nil {
				return nil, tool.NewToolError(ToolName, err.Error(), "VALIDATION_ERROR")
			}

			ctx, cancel := context.WithTimeout(toolCtx.Context(), opts.Timeout)
			defer cancel()

			ts, err := auth.TokenSource(ctx)
			if err != nil {
				var authErr *core.AuthRequiredError
				if errors.As(err, &authErr) {
					return nil, tool.NewToolError(
						ToolName,
						fmt.Sprintf("authorization required, ask the user to visit: %s", authErr.GrantURL),
						"AUTH_REQUIRED",
					)
				}
				return nil, err
			}

			svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
			if err != nil {
				return nil, fmt.Errorf("calendar service init: %w", err)
			}

			event := buildEvent(summary, matchContext, start)
			created, err := svc.Events.Insert(opts.CalendarID, event).Context(ctx).Do()
			if err != nil {
				return nil, classify(err)
			}

			toolCtx.LogInfo("calendar.event.created", "summary", summary, "event_id", created.Id)

			return map[string]any{
				"message":  fmt.Sprintf("Successfully created a calendar event titled '%s'.", summary),
				"event_id": created.Id,
			}, nil
		},
	)
}

// parseMatchTime extracts the kickoff time from the match context text.
func parseMatchTime(matchContext string) (time.Time, error) {
	m := matchTimePattern.FindStringSubmatch(matchContext)
	if m == nil {
		return time.Time{}, fmt.Errorf("could not find a valid date and time in the match details")
	}

	start, err := time.Parse("2006-01-02 15:04", m[1]+" "+m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("could not find a valid date and time in the match details")
	}

	return start.UTC(), nil
}

// buildEvent shapes the Calendar API event body. The match context goes into
// the description so the reminder carries the full fixture details.
func buildEvent(summary, matchContext string, start time.Time) *gcal.Event {
	return &gcal.Event{
		Summary:     summary,
		Description: matchContext,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: start.Add(eventDuration).Format(time.RFC3339)},
	}
}

// classify maps Calendar API failures onto the shared error taxonomy.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return tool.NewToolError(ToolName, "calendar access was rejected, reauthorization may be needed", "AUTH_REQUIRED")
		case apiErr.Code == 429:
			return &core.RateLimitError{Provider: "google-calendar"}
		case apiErr.Code >= 500:
			return &core.TransientNetworkError{Op: "calendar.insert", Err: err}
		}
	}

	return fmt.Errorf("calendar insert: %w", err)
}
