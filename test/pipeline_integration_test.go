//go:build integration

// Package test contains integration tests that exercise the full analysis
// pipeline: AEMET fetch, per-hour scoring, alert detection, and Telegram
// delivery, with both upstreams replaced by local httptest servers. These
// tests are skipped during `go test ./...` and run explicitly with the
// integration build tag:
//
//	go test -v -tags integration ./test/
package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"duskwatch/internal/analysis"
	"duskwatch/internal/external"
	"duskwatch/internal/forecasts"
	"duskwatch/internal/notifications/telegram"
	"duskwatch/internal/scheduler"
	"duskwatch/internal/types"
)

var runTime = time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

// newAemetServer serves the two-step AEMET exchange for a single day built
// from the given sky and precipitation period values.
func newAemetServer(t *testing.T, sky, precip []types.PeriodValue) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/aemet/08019", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api_key") == "" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"estado": 200, "datos": %q}`, server.URL+"/datos/day")
	})
	mux.HandleFunc("/datos/day", func(w http.ResponseWriter, r *http.Request) {
		payload := []types.MunicipalForecast{{
			Nombre: "Barcelona",
			Prediccion: types.Prediction{Dia: []types.ForecastDay{{
				Fecha:         runTime.Format("2006-01-02") + "T00:00:00",
				Orto:          "07:12",
				Ocaso:         "20:05",
				EstadoCielo:   sky,
				Precipitacion: precip,
			}}},
		}}
		json.NewEncoder(w).Encode(payload)
	})

	return server
}

// telegramCapture records sendMessage calls.
type telegramCapture struct {
	calls []string
}

func newTelegramServer(t *testing.T, capture *telegramCapture) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		capture.calls = append(capture.calls, req.Text)
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 1}}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func newPipeline(t *testing.T, aemetURL, telegramURL string) *scheduler.Runner {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	httpClient := &http.Client{Timeout: 5 * time.Second}

	return scheduler.NewRunner(scheduler.RunnerConfig{
		Source: forecasts.NewMunicipalSource(forecasts.MunicipalSourceConfig{
			Base:         external.NewBaseClient(httpClient, "aemet-it", "duskwatch-it"),
			BaseURL:      aemetURL + "/aemet",
			Municipality: "08019",
			APIKey:       types.SecretString("it-key"),
			Logger:       logger,
		}),
		Analyzer: analysis.NewAnalyzer(analysis.AnalyzerConfig{
			ScoreThreshold: 0.5,
			Location:       time.UTC,
			Logger:         logger,
		}),
		Notifier: telegram.NewChannel(telegram.ChannelConfig{
			Base:   external.NewBaseClient(httpClient, "telegram-it", "duskwatch-it"),
			APIURL: telegramURL,
			Token:  types.SecretString("it-token"),
			ChatID: "777",
			Logger: logger,
		}),
		Logger: logger,
	})
}

func TestPipeline_AlertingDay(t *testing.T) {
	aemet := newAemetServer(t,
		[]types.PeriodValue{{Periodo: "19", Value: "17"}, {Periodo: "20", Value: "17n"}},
		[]types.PeriodValue{{Periodo: "11", Value: "0.8"}, {Periodo: "12", Value: "1.4"}},
	)
	capture := &telegramCapture{}
	tg := newTelegramServer(t, capture)

	summary, err := newPipeline(t, aemet.URL, tg.URL).RunAt(context.Background(), runTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(capture.calls) != 1 {
		t.Fatalf("telegram calls = %d, want 1", len(capture.calls))
	}
	msg := capture.calls[0]
	if !strings.Contains(msg, "Vivid sky expected around: 19, 20") {
		t.Errorf("message = %q, want the sky alert line", msg)
	}
	if !strings.Contains(msg, "Rain likely around: 11, 12") {
		t.Errorf("message = %q, want the rain alert line", msg)
	}
	if !strings.Contains(summary, "notified=true") {
		t.Errorf("summary = %q, want notified=true", summary)
	}
}

func TestPipeline_QuietDay(t *testing.T) {
	aemet := newAemetServer(t,
		[]types.PeriodValue{{Periodo: "19", Value: "11"}, {Periodo: "20", Value: "11n"}},
		nil,
	)
	capture := &telegramCapture{}
	tg := newTelegramServer(t, capture)

	summary, err := newPipeline(t, aemet.URL, tg.URL).RunAt(context.Background(), runTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(capture.calls) != 0 {
		t.Errorf("telegram calls = %d, want none on a quiet day", len(capture.calls))
	}
	if !strings.Contains(summary, "notified=false") {
		t.Errorf("summary = %q, want notified=false", summary)
	}
}

func TestPipeline_UpstreamDown(t *testing.T) {
	aemet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(aemet.Close)
	capture := &telegramCapture{}
	tg := newTelegramServer(t, capture)

	_, err := newPipeline(t, aemet.URL, tg.URL).RunAt(context.Background(), runTime)
	if err == nil {
		t.Fatal("expected error when the forecast upstream is down")
	}
	if len(capture.calls) != 0 {
		t.Errorf("telegram calls = %d, want none after a fetch failure", len(capture.calls))
	}
}
