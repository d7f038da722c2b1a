package types

// AEMET serves the municipal hourly forecast in two steps: an authenticated
// request returns a small envelope pointing at the actual data URL, and an
// unauthenticated request to that URL returns the payload itself. The payload
// is a top-level JSON array whose first element carries prediccion.dia, one
// record per forecast day.

// DataEnvelope is the redirect-style document returned by the authenticated
// endpoint. Datos points at the real forecast payload.
type DataEnvelope struct {
	Estado      int    `json:"estado"`
	Datos       string `json:"datos"`
	Descripcion string `json:"descripcion"`
}

// PeriodValue is one entry of a per-period array (estadoCielo, precipitacion).
// Periodo is a two-digit hour-of-day string ("00".."23"). Value is the sky
// state code or the precipitation amount depending on the array it sits in.
type PeriodValue struct {
	Periodo string `json:"periodo"`
	Value   string `json:"value"`
}

// ForecastDay is one day record of the municipal forecast.
type ForecastDay struct {
	Fecha         string        `json:"fecha"` // ISO date, possibly with a time suffix
	Orto          string        `json:"orto"`  // sunrise "HH:MM"
	Ocaso         string        `json:"ocaso"` // sunset "HH:MM"
	EstadoCielo   []PeriodValue `json:"estadoCielo"`
	Precipitacion []PeriodValue `json:"precipitacion"`
}

// SkyCode returns the sky-state code for the given two-digit period, or ""
// when the day record has no entry for that hour.
func (d *ForecastDay) SkyCode(period string) string {
	for _, e := range d.EstadoCielo {
		if e.Periodo == period {
			return e.Value
		}
	}
	return ""
}

// PrecipValue returns the raw precipitation value string for the given
// two-digit period and whether an entry was present.
func (d *ForecastDay) PrecipValue(period string) (string, bool) {
	for _, e := range d.Precipitacion {
		if e.Periodo == period {
			return e.Value, true
		}
	}
	return "", false
}

// Prediction wraps the per-day records.
type Prediction struct {
	Dia []ForecastDay `json:"dia"`
}

// MunicipalForecast is one element of the top-level payload array.
type MunicipalForecast struct {
	Nombre     string     `json:"nombre"`
	Provincia  string     `json:"provincia"`
	Elaborado  string     `json:"elaborado"`
	Prediccion Prediction `json:"prediccion"`
}
