// Package scheduler implements the per-invocation pipeline: fetch the
// forecast, analyze the day, deliver the alert message when warranted, emit
// the technical log and run metrics, and optionally render a chart.
//
// One invocation is one sequential run. There is no shared state across
// runs; a run is idempotent given the same payload and the same "now".
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"duskwatch/internal/analysis"
	"duskwatch/internal/notifications/telegram"
	"duskwatch/internal/observability"
	"duskwatch/internal/types"
)

// ForecastSource abstracts the upstream forecast retrieval.
type ForecastSource interface {
	Fetch(ctx context.Context) (*types.MunicipalForecast, error)
}

// Notifier abstracts the alert delivery channel.
type Notifier interface {
	Format(text string) ([]byte, error)
	Deliver(ctx context.Context, payload []byte) (*telegram.DeliveryResult, error)
}

// ChartRenderer abstracts the optional chart side-effect.
type ChartRenderer interface {
	Render(report *analysis.Report) (string, error)
}

// Runner executes one analysis run.
type Runner struct {
	source   ForecastSource
	analyzer *analysis.Analyzer
	notifier Notifier
	renderer ChartRenderer
	metrics  observability.RunMetrics
	clock    types.Clock
	logger   *slog.Logger
}

// RunnerConfig holds the configuration for creating a Runner.
type RunnerConfig struct {
	Source   ForecastSource
	Analyzer *analysis.Analyzer
	Notifier Notifier
	// Renderer may be nil; chart rendering is then skipped entirely.
	Renderer ChartRenderer
	// Metrics may be nil; a no-op implementation is substituted.
	Metrics observability.RunMetrics
	// Clock may be nil; the real system clock is substituted.
	Clock  types.Clock
	Logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Runner{
		source:   cfg.Source,
		analyzer: cfg.Analyzer,
		notifier: cfg.Notifier,
		renderer: cfg.Renderer,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// Run executes one full pipeline pass at the clock's current time.
func (r *Runner) Run(ctx context.Context) (string, error) {
	return r.RunAt(ctx, r.clock.Now())
}

// RunAt executes one full pipeline pass as of the given time and returns a
// short human-readable summary. A fetch failure aborts the run; a delivery
// failure is logged and the technical log still emits. Panics anywhere in
// the pipeline are recovered, logged with context, and surfaced as an
// internal error: the process itself never crashes.
//
// The explicit time parameter exists for manual backfill-style invocations
// and for tests; scheduled invocations go through Run.
func (r *Runner) RunAt(ctx context.Context, now time.Time) (summary string, err error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)
	logger := r.logger.With("run_id", runID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("run panicked", "panic", fmt.Sprint(rec))
			r.metrics.RecordRun(ctx, observability.OutcomePanic)
			summary = ""
			err = types.NewAppError(types.ErrCodeInternalUnexpected,
				fmt.Sprintf("run panicked: %v", rec), nil)
		}
	}()

	logger.Info("run starting", "now", now.Format(time.RFC3339))

	payload, err := r.source.Fetch(ctx)
	if err != nil {
		logger.Error("forecast fetch failed", "error", err.Error())
		r.metrics.RecordRun(ctx, observability.OutcomeFetchError)
		return "", err
	}

	report := r.analyzer.Analyze(payload, now)

	if report.DayMissing {
		logger.Info("no forecast record for target date", "date", report.Date)
		r.metrics.RecordRun(ctx, observability.OutcomeDayMissing)
		return fmt.Sprintf("no forecast record for %s", report.Date), nil
	}

	r.metrics.RecordAlerts(ctx, observability.KindSky, len(report.Alerts.SkyHours))
	r.metrics.RecordAlerts(ctx, observability.KindRain, len(report.Alerts.RainHours))

	notified := false
	if !report.Alerts.Empty() {
		notified = r.deliver(ctx, logger, report)
	}

	r.logTechReport(logger, report)
	r.renderChart(logger, report)

	r.metrics.RecordRun(ctx, observability.OutcomeSuccess)

	summary = fmt.Sprintf("analysis complete: %d hours, %d sky alerts, %d rain alerts, notified=%t",
		len(report.Results), len(report.Alerts.SkyHours), len(report.Alerts.RainHours), notified)
	logger.Info(summary)
	return summary, nil
}

// deliver formats and sends the alert message. Failures are logged but do
// not abort the run.
func (r *Runner) deliver(ctx context.Context, logger *slog.Logger, report *analysis.Report) bool {
	payload, err := r.notifier.Format(report.Message)
	if err != nil {
		logger.Error("failed to format notification", "error", err.Error())
		r.metrics.RecordDelivery(ctx, observability.ResultFailure)
		return false
	}

	result, err := r.notifier.Deliver(ctx, payload)
	if err != nil {
		logger.Error("notification delivery failed", "error", err.Error())
		r.metrics.RecordDelivery(ctx, observability.ResultFailure)
		return false
	}

	logger.Info("notification delivered",
		"chat_id", result.ChatID,
		"message_id", result.MessageID,
		"sky_alert_hours", report.Alerts.SkyHours,
		"rain_alert_hours", report.Alerts.RainHours,
	)
	r.metrics.RecordDelivery(ctx, observability.ResultSuccess)
	return true
}

// logTechReport emits one technical log line per analyzed hour, ascending,
// with both scores and all four detail fields. This always happens,
// regardless of alert status or delivery outcome.
func (r *Runner) logTechReport(logger *slog.Logger, report *analysis.Report) {
	for _, h := range report.SortedHours() {
		s := report.Results[h]
		logger.Info("hour analysis",
			"date", report.Date,
			"hour", h,
			"sky_score", s.Sky,
			"rain_score", s.Rain,
			"cloud_high", s.Cover.High,
			"cloud_mid", s.Cover.Mid,
			"cloud_low", s.Cover.Low,
			"precip_mm", s.PrecipMM,
		)
	}
}

// renderChart runs the optional chart side-effect. Failures are logged only.
func (r *Runner) renderChart(logger *slog.Logger, report *analysis.Report) {
	if r.renderer == nil {
		return
	}
	path, err := r.renderer.Render(report)
	if err != nil {
		logger.Error("chart rendering failed", "error", err.Error())
		return
	}
	if path != "" {
		logger.Info("chart rendered", "path", path)
	}
}
