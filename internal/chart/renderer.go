// Package chart renders the per-run score chart. Rendering is a pluggable
// debug side-effect: it never influences alerting or logging, and failures
// are reported to the caller for logging only.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"duskwatch/internal/analysis"
)

// NoopRenderer is the production default: charting is a debug facility and
// is disabled unless explicitly enabled.
type NoopRenderer struct{}

// Render does nothing and reports no output path.
func (NoopRenderer) Render(*analysis.Report) (string, error) {
	return "", nil
}

// PNGRenderer writes a PNG chart of the analyzed hours: the sky score as a
// line and the rain score as a filled series underneath it.
type PNGRenderer struct {
	// Dir is the directory rendered charts are written to.
	Dir string
}

// Render writes the chart for the report and returns the output path.
// Reports with fewer than two analyzed hours are skipped: there is no curve
// to draw.
func (r PNGRenderer) Render(report *analysis.Report) (string, error) {
	hours := report.SortedHours()
	if len(hours) < 2 {
		return "", nil
	}

	xs := make([]float64, len(hours))
	sky := make([]float64, len(hours))
	rain := make([]float64, len(hours))
	for i, h := range hours {
		s := report.Results[h]
		xs[i] = float64(h)
		sky[i] = s.Sky
		rain[i] = s.Rain
	}

	graph := gochart.Chart{
		Title: fmt.Sprintf("Sky/rain scores %s", report.Date),
		XAxis: gochart.XAxis{Name: "hour"},
		YAxis: gochart.YAxis{
			Name:  "score",
			Range: &gochart.ContinuousRange{Min: 0, Max: 1.2},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "rain",
				XValues: xs,
				YValues: rain,
				Style: gochart.Style{
					StrokeColor: drawing.ColorFromHex("87ceeb"),
					FillColor:   drawing.ColorFromHex("87ceeb").WithAlpha(128),
				},
			},
			gochart.ContinuousSeries{
				Name:    "sky",
				XValues: xs,
				YValues: sky,
				Style: gochart.Style{
					StrokeColor: drawing.ColorFromHex("ff8c00"),
					StrokeWidth: 2.0,
				},
			},
		},
	}

	path := filepath.Join(r.Dir, fmt.Sprintf("duskwatch-%s.png", report.Date))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("chart: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(gochart.PNG, f); err != nil {
		return "", fmt.Errorf("chart: rendering %s: %w", path, err)
	}
	return path, nil
}
