package analysis

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"duskwatch/internal/types"
)

// Default sunrise/sunset hours applied when the day record's orto/ocaso
// fields are absent or malformed.
const (
	defaultSunriseHour = 7
	defaultSunsetHour  = 17
)

// Report is the outcome of analyzing one day's forecast. A report with
// DayMissing set carries no results: the payload had no record for the
// target date, which is an informational outcome, not an error.
type Report struct {
	Date       string // ISO date the analysis targeted
	DayMissing bool

	Sunrise types.HourMark
	Sunset  types.HourMark

	// Results holds one score per analyzed hour, keyed by hour of day.
	Results map[int]types.HourScore
	Alerts  types.AlertSet

	// Message is the human-readable notification body; empty when no hour
	// qualified on either score.
	Message string

	// TechLines is the per-hour technical report, one line per analyzed hour
	// in ascending order, emitted regardless of alert status.
	TechLines []string
}

// SortedHours returns the analyzed hours in ascending order.
func (r *Report) SortedHours() []int {
	hours := make([]int, 0, len(r.Results))
	for h := range r.Results {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

// Analyzer runs the day-forecast analysis: window selection, per-hour
// scoring, alert detection, and report assembly.
type Analyzer struct {
	threshold float64
	loc       *time.Location
	logger    *slog.Logger
}

// AnalyzerConfig holds the configuration for creating an Analyzer.
type AnalyzerConfig struct {
	// ScoreThreshold is the minimum sky score that flags an hour.
	ScoreThreshold float64
	// Location is the municipality's timezone; the target date and current
	// hour are computed in it.
	Location *time.Location
	Logger   *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Analyzer{
		threshold: cfg.ScoreThreshold,
		loc:       loc,
		logger:    logger,
	}
}

// Analyze evaluates the forecast payload against the current time and
// returns the assembled report. It never fails on data-shape problems:
// a missing day yields a DayMissing report, malformed sunrise/sunset and
// precipitation values fall back to their defaults, and unknown sky codes
// contribute zero cloud cover.
func (a *Analyzer) Analyze(payload *types.MunicipalForecast, now time.Time) *Report {
	now = now.In(a.loc)
	localDate := now.Format("2006-01-02")

	day := findDay(payload, localDate)
	if day == nil {
		return &Report{Date: localDate, DayMissing: true}
	}

	sunrise := types.ParseHourMark(day.Orto, defaultSunriseHour)
	sunset := types.ParseHourMark(day.Ocaso, defaultSunsetHour)
	if sunrise.Defaulted || sunset.Defaulted {
		a.logger.Warn("sunrise/sunset missing or malformed, defaults applied",
			"date", localDate,
			"sunrise_defaulted", sunrise.Defaulted,
			"sunset_defaulted", sunset.Defaulted,
		)
	}

	skyHours, rainHours := SelectWindows(now.Hour(), sunrise.Hour, sunset.Hour)

	results := make(map[int]types.HourScore)
	for _, h := range unionHours(skyHours, rainHours) {
		results[h] = ScoreHour(buildSample(day, h))
	}

	report := &Report{
		Date:    localDate,
		Sunrise: sunrise,
		Sunset:  sunset,
		Results: results,
		Alerts: types.AlertSet{
			SkyHours:  detectSkyAlerts(skyHours, results, a.threshold),
			RainHours: detectRainAlerts(rainHours, results),
		},
	}
	report.Message = formatMessage(report.Alerts)
	report.TechLines = formatTechLines(report)

	return report
}

// findDay locates the day record matching the ISO date, comparing only the
// date portion of fecha (AEMET appends a time suffix on some feeds).
func findDay(payload *types.MunicipalForecast, isoDate string) *types.ForecastDay {
	for i := range payload.Prediccion.Dia {
		d := &payload.Prediccion.Dia[i]
		if len(d.Fecha) >= len(isoDate) && d.Fecha[:len(isoDate)] == isoDate {
			return d
		}
	}
	return nil
}

// buildSample assembles the scoring input for one hour from the day record.
// A missing precipitation entry defaults to zero; a missing sky-state entry
// leaves the code empty, which resolves to zero cloud cover.
func buildSample(day *types.ForecastDay, hour int) types.HourSample {
	period := fmt.Sprintf("%02d", hour)

	sample := types.HourSample{
		Hour:      hour,
		CloudCode: day.SkyCode(period),
	}
	if raw, ok := day.PrecipValue(period); ok {
		sample.Precip = types.ParsePrecipitation(raw)
	} else {
		sample.Precip = types.Precipitation{Defaulted: true}
	}
	return sample
}

// unionHours merges two ascending hour slices into one ascending deduplicated
// slice.
func unionHours(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	var out []int
	for _, h := range a {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, h := range b {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}

// detectSkyAlerts collects every sky-window hour whose sky score meets the
// threshold. No minimum run length is required.
func detectSkyAlerts(skyHours []int, results map[int]types.HourScore, threshold float64) []int {
	var alerts []int
	for _, h := range skyHours {
		if results[h].Sky >= threshold {
			alerts = append(alerts, h)
		}
	}
	return alerts
}

// detectRainAlerts scans the rain window in ascending order keeping a
// consecutive-rain counter. Each time the counter reaches two or more at
// hour h, hours h-1 and h are marked; longer runs accumulate overlapping
// pairs, so every hour of a contiguous run ends up covered. A single wet
// hour never alerts.
func detectRainAlerts(rainHours []int, results map[int]types.HourScore) []int {
	marked := make(map[int]bool)
	consecutive := 0
	for _, h := range rainHours {
		if results[h].Rain > 0 {
			consecutive++
			if consecutive >= 2 {
				marked[h-1] = true
				marked[h] = true
			}
		} else {
			consecutive = 0
		}
	}

	if len(marked) == 0 {
		return nil
	}
	alerts := make([]int, 0, len(marked))
	for h := range marked {
		alerts = append(alerts, h)
	}
	sort.Ints(alerts)
	return alerts
}

// formatMessage composes the notification body: one line per non-empty alert
// set, hours ascending and comma-separated. Returns "" when both sets are
// empty, meaning nothing is delivered.
func formatMessage(alerts types.AlertSet) string {
	if alerts.Empty() {
		return ""
	}

	var lines []string
	if len(alerts.SkyHours) > 0 {
		lines = append(lines, fmt.Sprintf("🌅 Vivid sky expected around: %s", joinHours(alerts.SkyHours)))
	}
	if len(alerts.RainHours) > 0 {
		lines = append(lines, fmt.Sprintf("🌧 Rain likely around: %s", joinHours(alerts.RainHours)))
	}
	return strings.Join(lines, "\n")
}

// formatTechLines renders the per-hour technical report in ascending hour
// order, covering every analyzed hour with both scores and all four detail
// fields.
func formatTechLines(r *Report) []string {
	lines := make([]string, 0, len(r.Results))
	for _, h := range r.SortedHours() {
		s := r.Results[h]
		lines = append(lines, fmt.Sprintf(
			"%02d: sky %.2f, rain %.0f, high %.2f, mid %.2f, low %.2f, precip %.1f mm",
			h, s.Sky, s.Rain, s.Cover.High, s.Cover.Mid, s.Cover.Low, s.PrecipMM,
		))
	}
	return lines
}

// joinHours renders hours as a comma-separated ascending list.
func joinHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%d", h)
	}
	return strings.Join(parts, ", ")
}
