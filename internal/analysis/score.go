package analysis

import "duskwatch/internal/types"

// Sky score weights. High and mid clouds at sunrise/sunset scatter light
// into vivid colors; low cloud cover occludes the sky and is weighted
// strongly negative.
const (
	weightHigh = 0.6
	weightMid  = 0.3
	weightLow  = 0.8
)

// ScoreHour computes the sky and rain scores for one hour sample.
//
// The sky score is clamp(0.6*high + 0.3*mid - 0.8*low, 0, 1). The rain score
// is a binary indicator: 1 when any measurable precipitation is forecast,
// 0 otherwise. The returned result echoes the resolved cloud cover and
// precipitation amount for the technical log, including defaulted zeros.
func ScoreHour(sample types.HourSample) types.HourScore {
	cover := LookupCloudCover(sample.CloudCode)
	sky := skyScore(cover)

	var rain float64
	if sample.Precip.MM > 0 {
		rain = 1
	}

	return types.HourScore{
		Hour:     sample.Hour,
		Sky:      sky,
		Rain:     rain,
		Cover:    cover,
		PrecipMM: sample.Precip.MM,
	}
}

// skyScore computes the weighted sky score for a cloud cover, clamped to
// [0, 1].
func skyScore(cover types.CloudCover) float64 {
	s := weightHigh*cover.High + weightMid*cover.Mid - weightLow*cover.Low
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
