// Package main is the entrypoint for the forecast-runner Lambda function.
//
// The runner executes on a schedule (an EventBridge rule, typically a few
// times per day). Each invocation is one full pipeline pass: fetch the AEMET
// municipal forecast, score the hours of interest, deliver a Telegram alert
// when a score qualifies, and emit the per-hour technical log.
//
// This file handles dependency wiring (cold start) and delegates all
// business logic to the internal/scheduler package.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"duskwatch/internal/analysis"
	"duskwatch/internal/chart"
	"duskwatch/internal/config"
	"duskwatch/internal/external"
	"duskwatch/internal/forecasts"
	"duskwatch/internal/notifications/telegram"
	"duskwatch/internal/observability"
	"duskwatch/internal/scheduler"
	"duskwatch/internal/types"
)

const userAgent = "duskwatch/1.0"

// RunnerInput defines the input for manual Lambda invocation. At overrides
// the analysis time (RFC 3339) for backfill-style manual invokes; scheduled
// invocations leave it empty.
type RunnerInput struct {
	At string `json:"at"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("forecast-runner initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Analysis.Timezone, "error", err.Error())
		os.Exit(1)
	}

	source := forecasts.NewMunicipalSource(forecasts.MunicipalSourceConfig{
		Base: external.NewBaseClient(
			&http.Client{Timeout: cfg.Aemet.FetchTimeout}, "aemet", userAgent),
		BaseURL:      cfg.Aemet.BaseURL,
		Municipality: cfg.Aemet.MunicipalityCode,
		APIKey:       cfg.Aemet.APIKey,
		Logger:       logger,
	})

	notifier := telegram.NewChannel(telegram.ChannelConfig{
		Base: external.NewBaseClient(
			&http.Client{Timeout: cfg.Telegram.SendTimeout}, "telegram", userAgent),
		APIURL: cfg.Telegram.APIURL,
		Token:  cfg.Telegram.BotToken,
		ChatID: cfg.Telegram.ChatID,
		Logger: logger,
	})
	if err := notifier.ValidateConfig(); err != nil {
		logger.Error("invalid notifier configuration", "error", err.Error())
		os.Exit(1)
	}

	var renderer scheduler.ChartRenderer = chart.NoopRenderer{}
	if cfg.Analysis.DebugChart {
		renderer = chart.PNGRenderer{Dir: cfg.Analysis.ChartDir}
	}

	var metrics observability.RunMetrics = observability.NoopMetrics{}
	if cfg.Observability.EnableMetrics {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			logger.Error("failed to load AWS SDK config", "error", err.Error())
			os.Exit(1)
		}
		metrics = observability.NewCloudWatchMetrics(
			cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger)
	}

	runner := scheduler.NewRunner(scheduler.RunnerConfig{
		Source: source,
		Analyzer: analysis.NewAnalyzer(analysis.AnalyzerConfig{
			ScoreThreshold: cfg.Analysis.ScoreThreshold,
			Location:       loc,
			Logger:         logger,
		}),
		Notifier: notifier,
		Renderer: renderer,
		Metrics:  metrics,
		Clock:    types.ZoneClock{Loc: loc},
		Logger:   logger,
	})

	logger.Info("forecast-runner initialized",
		"municipality", cfg.Aemet.MunicipalityCode,
		"timezone", cfg.Analysis.Timezone,
		"score_threshold", cfg.Analysis.ScoreThreshold,
		"debug_chart", cfg.Analysis.DebugChart,
		"metrics_enabled", cfg.Observability.EnableMetrics,
	)

	lambda.Start(newHandler(runner, loc, logger))
}

// newHandler creates the Lambda handler processing RunnerInput events. It
// parses the optional time override and delegates to the Runner.
func newHandler(runner *scheduler.Runner, loc *time.Location, logger *slog.Logger) func(ctx context.Context, input RunnerInput) (string, error) {
	return func(ctx context.Context, input RunnerInput) (string, error) {
		if input.At == "" {
			return runner.Run(ctx)
		}

		at, err := time.Parse(time.RFC3339, input.At)
		if err != nil {
			logger.ErrorContext(ctx, "invalid time override", "at", input.At, "error", err.Error())
			return "", fmt.Errorf("invalid 'at' value %q: %w", input.At, err)
		}
		return runner.RunAt(ctx, at.In(loc))
	}
}
