package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"duskwatch/internal/types"
)

func newTestClient(name string) *BaseClient {
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, name, "duskwatch-test")
}

func TestDo_InjectsHeaders(t *testing.T) {
	var gotUA, gotRunID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRunID = r.Header.Get("X-Run-Id")
	}))
	defer server.Close()

	ctx := types.WithRunID(context.Background(), "run-abc")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := newTestClient("headers").Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotUA != "duskwatch-test" {
		t.Errorf("User-Agent = %q, want duskwatch-test", gotUA)
	}
	if gotRunID != "run-abc" {
		t.Errorf("X-Run-Id = %q, want run-abc", gotRunID)
	}
}

func TestDo_NoRunIDHeaderWithoutContextValue(t *testing.T) {
	var hasRunID bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasRunID = r.Header["X-Run-Id"]
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := newTestClient("no-run-id").Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if hasRunID {
		t.Error("X-Run-Id set without a run ID in context")
	}
}

func TestDo_ClientErrorStatusPassesThrough(t *testing.T) {
	// 4xx is the caller's business, not a transport failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := newTestClient("pass-4xx").Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDo_ServerErrorMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := newTestClient("map-5xx").Do(req)
	if resp != nil {
		t.Error("response must be nil on a mapped failure")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Fatalf("error = %v, want AppError with code %s", err, types.ErrCodeUpstreamUnavailable)
	}
}

func TestDo_TransportFailureMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := newTestClient("transport").Do(req)

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Fatalf("error = %v, want AppError with code %s", err, types.ErrCodeUpstreamUnavailable)
	}
}

func TestDo_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient("breaker")
	for i := 0; i < 6; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		if _, err := client.Do(req); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	// The breaker trips after more than five consecutive failures; the next
	// call short-circuits without reaching the server.
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want open-state breaker error", err)
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("error = %v, want AppError with code %s", err, types.ErrCodeUpstreamUnavailable)
	}
}
