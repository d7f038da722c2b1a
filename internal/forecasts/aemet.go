// Package forecasts implements the upstream forecast source. AEMET serves
// the municipal hourly forecast in two steps: an authenticated request
// returns an envelope with the data URL, and an unauthenticated request to
// that URL returns the payload itself.
package forecasts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"duskwatch/internal/external"
	"duskwatch/internal/types"
)

// apiKeyHeader is the header AEMET expects the API key in.
const apiKeyHeader = "api_key"

// maxPayloadBytes caps how much of an upstream body is decoded. The hourly
// municipal payload is a few hundred KB at most.
const maxPayloadBytes = 4 << 20

// MunicipalSource fetches the hourly forecast for a fixed municipality.
// A fetch failure aborts the current run; there are no retries.
type MunicipalSource struct {
	base         *external.BaseClient
	baseURL      string
	municipality string
	apiKey       types.SecretString
	logger       *slog.Logger
}

// MunicipalSourceConfig holds the configuration for creating a MunicipalSource.
type MunicipalSourceConfig struct {
	Base         *external.BaseClient
	BaseURL      string // authenticated endpoint, no trailing slash
	Municipality string // five-digit municipality code
	APIKey       types.SecretString
	Logger       *slog.Logger
}

// NewMunicipalSource creates a MunicipalSource.
func NewMunicipalSource(cfg MunicipalSourceConfig) *MunicipalSource {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MunicipalSource{
		base:         cfg.Base,
		baseURL:      cfg.BaseURL,
		municipality: cfg.Municipality,
		apiKey:       cfg.APIKey,
		logger:       logger,
	}
}

// Fetch retrieves the municipal forecast payload. It performs the two-step
// AEMET exchange and returns the first (only) element of the payload array.
func (s *MunicipalSource) Fetch(ctx context.Context) (*types.MunicipalForecast, error) {
	dataURL, err := s.fetchDataURL(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "resolved forecast data URL", "municipality", s.municipality)

	return s.fetchPayload(ctx, dataURL)
}

// fetchDataURL performs the authenticated request and extracts the data URL
// from the envelope.
func (s *MunicipalSource) fetchDataURL(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, s.municipality)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamForecast, "failed to build envelope request", err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey.Unmask())
	req.Header.Set("Accept", "application/json")

	resp, err := s.base.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamForecast, "envelope request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewAppError(
			types.ErrCodeUpstreamForecast,
			fmt.Sprintf("envelope request returned %d", resp.StatusCode),
			nil,
		)
	}

	var envelope types.DataEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&envelope); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamForecast, "failed to decode envelope", err)
	}
	if envelope.Datos == "" {
		return "", types.NewAppError(types.ErrCodeUpstreamForecast, "envelope contains no data URL", nil)
	}

	return envelope.Datos, nil
}

// fetchPayload performs the unauthenticated request for the forecast payload.
func (s *MunicipalSource) fetchPayload(ctx context.Context, dataURL string) (*types.MunicipalForecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast, "failed to build payload request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.base.Do(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast, "payload request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamForecast,
			fmt.Sprintf("payload request returned %d", resp.StatusCode),
			nil,
		)
	}

	var payload []types.MunicipalForecast
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast, "failed to decode payload", err)
	}
	if len(payload) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast, "payload is empty", nil)
	}

	return &payload[0], nil
}
