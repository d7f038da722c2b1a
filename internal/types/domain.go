// Package types defines the shared domain model for the duskwatch analyzer:
// cloud-layer fractions, per-hour samples and scores, alert sets, and the
// raw AEMET forecast payload shapes.
package types

import (
	"strconv"
	"strings"
)

// CloudCover holds the fraction of sky covered by each cloud layer.
// All fields are in [0, 1].
type CloudCover struct {
	High float64
	Mid  float64
	Low  float64
}

// Precipitation is the parsed hourly precipitation amount. Defaulted is true
// when the raw value was absent or unparsable and the zero fallback was
// applied, so callers can tell "genuinely dry" apart from "no data".
type Precipitation struct {
	MM        float64
	Defaulted bool
}

// ParsePrecipitation parses an AEMET precipitation value string ("0", "0.2",
// "Ip", ...). It never fails: anything that does not parse as a non-negative
// number yields a defaulted zero.
func ParsePrecipitation(raw string) Precipitation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Precipitation{Defaulted: true}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return Precipitation{Defaulted: true}
	}
	return Precipitation{MM: v}
}

// HourMark is an hour-of-day derived from a "HH:MM" string such as the AEMET
// orto/ocaso fields. Defaulted is true when the raw value was malformed and
// the provided fallback hour was used instead.
type HourMark struct {
	Hour      int
	Defaulted bool
}

// ParseHourMark extracts the hour from a "HH:MM" string. Malformed input
// (including out-of-range hours) falls back to the given default hour.
func ParseHourMark(raw string, fallback int) HourMark {
	head, _, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return HourMark{Hour: fallback, Defaulted: true}
	}
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return HourMark{Hour: fallback, Defaulted: true}
	}
	return HourMark{Hour: h}
}

// HourSample is the per-hour scoring input assembled from the day record.
// CloudCode is empty when the day record has no sky-state entry for the hour.
type HourSample struct {
	Hour      int
	CloudCode string
	Precip    Precipitation
}

// HourScore is the scoring result for one analyzed hour. Sky is in [0, 1];
// Rain is a binary indicator (0 or 1). Cover and PrecipMM echo the resolved
// inputs so the technical log can report them even when defaulted.
type HourScore struct {
	Hour     int
	Sky      float64
	Rain     float64
	Cover    CloudCover
	PrecipMM float64
}

// AlertSet holds the hours that qualified for notification, ascending and
// deduplicated. It is transient: it only exists for the duration of one run.
type AlertSet struct {
	SkyHours  []int
	RainHours []int
}

// Empty reports whether no hour qualified on either score.
func (a AlertSet) Empty() bool {
	return len(a.SkyHours) == 0 && len(a.RainHours) == 0
}
