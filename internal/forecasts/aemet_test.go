package forecasts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"duskwatch/internal/external"
	"duskwatch/internal/types"
)

const testPayloadJSON = `[{
	"nombre": "Barcelona",
	"provincia": "Barcelona",
	"elaborado": "2026-08-23T06:00:00",
	"prediccion": {
		"dia": [{
			"fecha": "2026-08-23T00:00:00",
			"orto": "07:12",
			"ocaso": "20:05",
			"estadoCielo": [{"periodo": "19", "value": "17"}],
			"precipitacion": [{"periodo": "19", "value": "0"}]
		}]
	}
}]`

func newTestSource(t *testing.T, baseURL string) *MunicipalSource {
	t.Helper()
	return NewMunicipalSource(MunicipalSourceConfig{
		Base:         external.NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "aemet-test", "duskwatch-test"),
		BaseURL:      baseURL,
		Municipality: "08019",
		APIKey:       types.SecretString("test-key"),
		Logger:       slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
}

func TestFetch_TwoStepExchange(t *testing.T) {
	var gotAPIKey string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/api/08019", func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api_key")
		fmt.Fprintf(w, `{"estado": 200, "datos": %q, "descripcion": "exito"}`, server.URL+"/datos/abc")
	})
	mux.HandleFunc("/datos/abc", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api_key") != "" {
			t.Error("payload request must not carry the api key")
		}
		fmt.Fprint(w, testPayloadJSON)
	})

	payload, err := newTestSource(t, server.URL+"/api").Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("api_key header = %q, want unmasked key", gotAPIKey)
	}
	if payload.Nombre != "Barcelona" {
		t.Errorf("nombre = %q, want Barcelona", payload.Nombre)
	}
	if len(payload.Prediccion.Dia) != 1 {
		t.Fatalf("days = %d, want 1", len(payload.Prediccion.Dia))
	}
	day := payload.Prediccion.Dia[0]
	if day.Orto != "07:12" || day.SkyCode("19") != "17" {
		t.Errorf("day fields not decoded: %+v", day)
	}
}

func TestFetch_EnvelopeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestSource(t, server.URL).Fetch(context.Background())
	assertForecastError(t, err)
}

func TestFetch_EnvelopeMissingDataURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"estado": 404, "descripcion": "no hay datos"}`)
	}))
	defer server.Close()

	_, err := newTestSource(t, server.URL).Fetch(context.Background())
	assertForecastError(t, err)
}

func TestFetch_PayloadRequestFails(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/api/08019", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"estado": 200, "datos": %q}`, server.URL+"/datos/gone")
	})
	mux.HandleFunc("/datos/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := newTestSource(t, server.URL+"/api").Fetch(context.Background())
	assertForecastError(t, err)
}

func TestFetch_EmptyPayload(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/api/08019", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"estado": 200, "datos": %q}`, server.URL+"/datos/empty")
	})
	mux.HandleFunc("/datos/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	_, err := newTestSource(t, server.URL+"/api").Fetch(context.Background())
	assertForecastError(t, err)
}

func TestFetch_MalformedPayload(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/api/08019", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"estado": 200, "datos": %q}`, server.URL+"/datos/bad")
	})
	mux.HandleFunc("/datos/bad", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not": "an array"`)
	})

	_, err := newTestSource(t, server.URL+"/api").Fetch(context.Background())
	assertForecastError(t, err)
}

func assertForecastError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamForecast {
		t.Errorf("error = %v, want AppError with code %s", err, types.ErrCodeUpstreamForecast)
	}
}
