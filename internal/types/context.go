package types

import (
	"context"
	"time"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID stores the run correlation ID in the context. Every scheduled
// invocation gets a fresh ID so its log lines and outbound requests can be
// correlated.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext retrieves the run correlation ID, or "" if unset.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// ZoneClock implements Clock pinned to a named location, so "today" and the
// current hour are always computed in the municipality's timezone regardless
// of where the process runs.
type ZoneClock struct {
	Loc *time.Location
}

// Now returns the current time in the configured location.
func (c ZoneClock) Now() time.Time { return time.Now().In(c.Loc) }
