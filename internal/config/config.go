// Package config defines the process configuration for duskwatch.
// Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (highest) -> Dotenv file -> AWS SSM Parameter Store (lowest)
//
// A missing required value or invalid format aborts startup before any
// network activity (fail fast).
package config

import (
	"time"

	"duskwatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for credentials to prevent accidental logging.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Aemet         AemetConfig
	Telegram      TelegramConfig
	Analysis      AnalysisConfig
	Observability ObservabilityConfig
}

// AemetConfig holds the forecast source settings. The base URL points at the
// authenticated endpoint; the municipality code selects the fixed location
// the whole system operates on.
type AemetConfig struct {
	APIKey           SecretString  `envconfig:"AEMET_API_KEY" validate:"required"`
	BaseURL          string        `envconfig:"AEMET_BASE_URL" default:"https://proxy-aemet-production.up.railway.app/aemet" validate:"required,url"`
	MunicipalityCode string        `envconfig:"MUNICIPALITY_CODE" default:"08019" validate:"required,len=5,numeric"`
	FetchTimeout     time.Duration `envconfig:"AEMET_FETCH_TIMEOUT" default:"15s"`
}

// TelegramConfig holds the notification delivery settings.
type TelegramConfig struct {
	BotToken    SecretString  `envconfig:"TELEGRAM_BOT_TOKEN" validate:"required"`
	ChatID      string        `envconfig:"TELEGRAM_CHAT_ID" validate:"required"`
	APIURL      string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org" validate:"required,url"`
	SendTimeout time.Duration `envconfig:"TELEGRAM_SEND_TIMEOUT" default:"10s"`
}

// AnalysisConfig holds the scoring and windowing tunables.
type AnalysisConfig struct {
	// ScoreThreshold is the minimum sky score that flags an hour for alerting.
	ScoreThreshold float64 `envconfig:"SCORE_THRESHOLD" default:"0.5" validate:"gte=0,lte=1"`
	// Timezone is the named zone the municipality lives in; "today" and the
	// current hour are computed in this zone.
	Timezone string `envconfig:"FORECAST_TIMEZONE" default:"Europe/Madrid" validate:"required"`
	// DebugChart enables rendering a score chart per run.
	DebugChart bool `envconfig:"DEBUG_CHART" default:"false"`
	// ChartDir is where rendered charts are written when DebugChart is set.
	ChartDir string `envconfig:"CHART_DIR" default:"/tmp"`
}

// ObservabilityConfig holds run metric settings. Metrics are optional and
// disabled by default for local/cron use.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Duskwatch"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure parsing environment variable values.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
