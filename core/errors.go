package core

import (
	"fmt"
	"time"
)

// TransientNetworkError marks an external call (embedding, completion, tool
// I/O) that timed out or failed with a server-side error. Call sites retry
// once with backoff before surfacing it.
type TransientNetworkError struct {
	Op  string // e.g. "embed", "complete", "calendar.insert"
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransientNetworkError) Unwrap() error { return e.Err }

// RateLimitError indicates a provider rejected the call for quota reasons.
// Surfaced to the user as a "try again shortly" message, never retried in a
// tight loop.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration // Zero when the provider gave no guidance
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

// DimensionMismatchError is a configuration-class error raised when a record's
// vector length does not match the store dimension. Fatal at ingestion time.
type DimensionMismatchError struct {
	RecordID string
	Want     int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("record %q: vector dimension %d does not match store dimension %d", e.RecordID, e.Got, e.Want)
}

// PromptTooLargeError is raised when the fixed prompt sections (instructions,
// tool schemas, current turn) alone exceed the token budget. This is a
// configuration error, not recoverable at runtime.
type PromptTooLargeError struct {
	Budget   int
	Required int
}

func (e *PromptTooLargeError) Error() string {
	return fmt.Sprintf("fixed prompt sections require %d tokens, budget is %d", e.Required, e.Budget)
}

// RetrievalUnavailableError signals that query embedding failed and no context
// could be retrieved. Callers degrade to an ungrounded answer instead of
// failing the turn.
type RetrievalUnavailableError struct {
	Err error
}

func (e *RetrievalUnavailableError) Error() string {
	return fmt.Sprintf("retrieval unavailable: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *RetrievalUnavailableError) Unwrap() error { return e.Err }

// AuthRequiredError signals that a tool needs an interactive credential grant
// before it can execute. The pending call is deferred, not failed outright;
// GrantURL points the user at the consent flow.
type AuthRequiredError struct {
	Provider string
	GrantURL string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("%s authorization required", e.Provider)
}
