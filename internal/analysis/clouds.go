// Package analysis implements the scoring and alerting core: the cloud-code
// table, the per-hour scorer, the evaluation window selection, and the day
// analyzer that ties them together.
package analysis

import "duskwatch/internal/types"

// cloudTable maps AEMET sky-state codes to cloud-layer fractions. Day and
// night ("n"-suffixed) variants are listed explicitly; there is no suffix
// stripping. The table is the sole source of truth for translating the
// provider's categorical vocabulary into the fractions the scorer consumes,
// so new codes are added here without touching scoring logic.
var cloudTable = map[string]types.CloudCover{
	"11":  {},                 // clear
	"11n": {},                 // clear, night
	"12":  {Mid: 0.2},         // slightly cloudy
	"12n": {Mid: 0.2},         // slightly cloudy, night
	"17":  {High: 1},          // high clouds
	"17n": {High: 1},          // high clouds, night
	"18":  {Mid: 1},           // mid-level clouds
	"18n": {Mid: 1},           // mid-level clouds, night
	"19":  {Low: 1},           // low clouds
	"19n": {Low: 1},           // low clouds, night
}

// LookupCloudCover resolves a sky-state code to its layer fractions. It is a
// total function: unknown or empty codes return zero cover rather than an
// error, so a code AEMET adds tomorrow degrades to "no cloud contribution"
// instead of failing the run.
func LookupCloudCover(code string) types.CloudCover {
	return cloudTable[code]
}
