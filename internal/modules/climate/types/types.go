package types

import "time"

// DateLayout is the on-disk and on-the-wire form of a measurement date.
const DateLayout = time.DateOnly

// PrecipitationRow is one (date, prcp) pair; Prcp is nil when the column is NULL.
type PrecipitationRow struct {
	Date string
	Prcp *float64
}

// TemperatureStats is the payload of the start and start/end routes. All
// fields are nil when no measurement matched.
type TemperatureStats struct {
	TMIN *float64 `json:"TMIN"`
	TMAX *float64 `json:"TMAX"`
	TAVG *float64 `json:"TAVG"`
}

// Bounds holds the oldest and latest measurement dates. It is computed once
// at startup and never changes for the life of the process.
type Bounds struct {
	Oldest time.Time
	Latest time.Time
}

// Contains reports whether d falls within [Oldest, Latest].
func (b Bounds) Contains(d time.Time) bool {
	return !d.Before(b.Oldest) && !d.After(b.Latest)
}

// TrailingYear returns the window [Latest minus one calendar year, Latest].
// Feb 29 maps to Feb 28 of the previous year.
func (b Bounds) TrailingYear() (start, end time.Time) {
	return YearBefore(b.Latest), b.Latest
}

// YearBefore returns the same calendar day one year earlier, clamping Feb 29
// to Feb 28.
func YearBefore(d time.Time) time.Time {
	y, m, day := d.Date()
	if m == time.February && day == 29 {
		day = 28
	}
	return time.Date(y-1, m, day, 0, 0, 0, 0, d.Location())
}

// FormatDate renders d in DateLayout.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DatasetSummary describes the loaded dataset. It is served by the summary
// route and published by the MQTT announcer.
type DatasetSummary struct {
	OldestDate        string    `json:"oldest_date"`
	LatestDate        string    `json:"latest_date"`
	TrailingYearStart string    `json:"trailing_year_start"`
	StationCount      int       `json:"station_count"`
	MeasurementCount  int       `json:"measurement_count"`
	MostActiveStation string    `json:"most_active_station"`
	PublishedAt       time.Time `json:"published_at,omitzero"`
}
