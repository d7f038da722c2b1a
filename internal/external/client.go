// Package external is the anti-corruption layer between duskwatch domain
// logic and third-party HTTP APIs (the AEMET proxy, the Telegram Bot API).
// All outbound calls are routed through the BaseClient, which enforces
// consistent behavior: circuit breaking, run-ID propagation, User-Agent
// injection, and error mapping.
//
// There is deliberately no retry loop. A run is a single short-lived
// invocation; a failed outbound call aborts or degrades that run and the
// next scheduled invocation starts fresh.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"duskwatch/internal/types"
)

// runIDHeader carries the run correlation ID on outbound requests.
const runIDHeader = "X-Run-Id"

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// (AEMET, Telegram) embed BaseClient to inherit this behavior.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient with the given http client, breaker
// name, and user agent string. The http client's Timeout bounds every call;
// a timeout fails the call rather than hanging.
func NewBaseClient(httpClient *http.Client, breakerName string, userAgent string) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &BaseClient{
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Do executes the HTTP request with:
//  1. Run-ID injection (X-Run-Id from context)
//  2. User-Agent header injection
//  3. Circuit breaker wrapping (5xx counts as a breaker failure)
//  4. Error mapping to types.AppError
//
// On success (any status below 500), Do returns the response as-is and the
// caller is responsible for closing the body and handling non-2xx statuses.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if runID := types.RunIDFromContext(req.Context()); runID != "" {
		req.Header.Set(runIDHeader, runID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// Treat 5xx as errors for the circuit breaker.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	if resp != nil {
		resp.Body.Close()
	}
	return nil, c.mapError(resp, err)
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil && resp.StatusCode >= 500 {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode),
			err,
		)
	}

	// Transport-level failure (DNS, connect, timeout).
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"request failed",
		err,
	)
}
