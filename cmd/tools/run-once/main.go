// Command run-once executes a single analysis run from the local
// environment (cron, a shell, a debugger). It wires the same pipeline as the
// forecast-runner Lambda but logs human-readable text and skips SSM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"duskwatch/internal/analysis"
	"duskwatch/internal/chart"
	"duskwatch/internal/config"
	"duskwatch/internal/external"
	"duskwatch/internal/forecasts"
	"duskwatch/internal/notifications/telegram"
	"duskwatch/internal/scheduler"
	"duskwatch/internal/types"
)

const userAgent = "duskwatch/1.0"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Analysis.Timezone, "error", err.Error())
		os.Exit(1)
	}

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

	runner := scheduler.NewRunner(scheduler.RunnerConfig{
		Source: forecasts.NewMunicipalSource(forecasts.MunicipalSourceConfig{
			Base: external.NewBaseClient(
				&http.Client{Timeout: cfg.Aemet.FetchTimeout}, "aemet", userAgent),
			BaseURL:      cfg.Aemet.BaseURL,
			Municipality: cfg.Aemet.MunicipalityCode,
			APIKey:       cfg.Aemet.APIKey,
			Logger:       logger,
		}),
		Analyzer: analysis.NewAnalyzer(analysis.AnalyzerConfig{
			ScoreThreshold: cfg.Analysis.ScoreThreshold,
			Location:       loc,
			Logger:         logger,
		}),
		Notifier: notifier,
		Renderer: renderer,
		Clock:    types.ZoneClock{Loc: loc},
		Logger:   logger,
	})

	summary, err := runner.Run(context.Background())
	if err != nil {
		os.Exit(1)
	}
	logger.Info("done", "summary", summary)
}
