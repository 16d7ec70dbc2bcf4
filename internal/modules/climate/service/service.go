package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/observability"
)

// Client-facing validation errors. Their messages are returned verbatim to
// API callers.
var (
	ErrMalformedDate    = errors.New("ERROR: invalid date")
	ErrStartOutOfBounds = errors.New("ERROR: start date out of dataset date bounds")
	ErrEndOutOfBounds   = errors.New("ERROR: end date out of dataset date bounds")
	ErrEndBeforeStart   = errors.New("ERROR: end date before start")
)

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrStartOutOfBounds) ||
		errors.Is(err, ErrEndOutOfBounds) ||
		errors.Is(err, ErrEndBeforeStart)
}

type Service struct {
	repository repository.ClimateRepository
	bounds     types.Bounds
	metrics    *observability.Metrics
}

// NewService binds the repository to the dataset bounds computed at startup.
// metrics may be nil.
func NewService(repository repository.ClimateRepository, bounds types.Bounds, metrics *observability.Metrics) *Service {
	return &Service{repository: repository, bounds: bounds, metrics: metrics}
}

// LoadBounds reads the oldest and latest measurement dates. It fails with
// repository.ErrEmptyDataset when there is nothing to serve.
func LoadBounds(ctx context.Context, repo repository.ClimateRepository) (types.Bounds, error) {
	oldestStr, latestStr, err := repo.DateBounds(ctx)
	if err != nil {
		return types.Bounds{}, err
	}
	oldest, err := time.Parse(types.DateLayout, oldestStr)
	if err != nil {
		return types.Bounds{}, fmt.Errorf("oldest date %q: %w", oldestStr, err)
	}
	latest, err := time.Parse(types.DateLayout, latestStr)
	if err != nil {
		return types.Bounds{}, fmt.Errorf("latest date %q: %w", latestStr, err)
	}
	return types.Bounds{Oldest: oldest, Latest: latest}, nil
}

func (s *Service) Bounds() types.Bounds {
	return s.bounds
}

// ParseDate accepts exactly YYYY-MM-DD.
func ParseDate(v string) (time.Time, error) {
	if len(v) != len(types.DateLayout) {
		return time.Time{}, fmt.Errorf("%w %q (expected YYYY-MM-DD)", ErrMalformedDate, v)
	}
	d, err := time.Parse(types.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q (expected YYYY-MM-DD)", ErrMalformedDate, v)
	}
	return d, nil
}

// YearlyPrecipitation maps each date of the trailing year to its
// precipitation. When several stations report the same date the last row
// in date order wins.
func (s *Service) YearlyPrecipitation(ctx context.Context) (map[string]*float64, error) {
	start, end := s.bounds.TrailingYear()
	rows, err := s.repository.PrecipitationInRange(ctx, types.FormatDate(start), types.FormatDate(end))
	if err != nil {
		s.metrics.QueryFailed("precipitation")
		return nil, err
	}
	out := make(map[string]*float64, len(rows))
	for _, row := range rows {
		out[row.Date] = row.Prcp
	}
	return out, nil
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	codes, err := s.repository.DistinctStationCodes(ctx)
	if err != nil {
		s.metrics.QueryFailed("stations")
		return nil, err
	}
	return codes, nil
}

// MostActiveYearTemperatures returns the trailing-year temperatures of the
// station with the most measurements, in date order.
func (s *Service) MostActiveYearTemperatures(ctx context.Context) ([]float64, error) {
	station, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		s.metrics.QueryFailed("most_active_station")
		return nil, err
	}
	start, end := s.bounds.TrailingYear()
	temps, err := s.repository.TemperaturesForStationInRange(ctx, station, types.FormatDate(start), types.FormatDate(end))
	if err != nil {
		s.metrics.QueryFailed("tobs")
		return nil, err
	}
	return temps, nil
}

// StatsFrom summarises every temperature on or after start.
func (s *Service) StatsFrom(ctx context.Context, start string) (types.TemperatureStats, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	if !s.bounds.Contains(startDate) {
		return types.TemperatureStats{}, ErrStartOutOfBounds
	}

	temps, err := s.repository.TemperaturesSince(ctx, types.FormatDate(startDate))
	if err != nil {
		s.metrics.QueryFailed("stats_from")
		return types.TemperatureStats{}, err
	}
	return computeStats(temps), nil
}

// StatsBetween summarises temperatures in [start, end]. An inverted range is
// reported before either bound is checked, and start is checked before end.
func (s *Service) StatsBetween(ctx context.Context, start, end string) (types.TemperatureStats, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return types.TemperatureStats{}, err
	}

	if endDate.Before(startDate) {
		return types.TemperatureStats{}, ErrEndBeforeStart
	}
	if !s.bounds.Contains(startDate) {
		return types.TemperatureStats{}, ErrStartOutOfBounds
	}
	if !s.bounds.Contains(endDate) {
		return types.TemperatureStats{}, ErrEndOutOfBounds
	}

	temps, err := s.repository.TemperaturesInRange(ctx, types.FormatDate(startDate), types.FormatDate(endDate))
	if err != nil {
		s.metrics.QueryFailed("stats_between")
		return types.TemperatureStats{}, err
	}
	return computeStats(temps), nil
}

// Summary describes the dataset: bounds, trailing-year start, row counts and
// the most active station.
func (s *Service) Summary(ctx context.Context) (types.DatasetSummary, error) {
	stations, err := s.repository.StationCount(ctx)
	if err != nil {
		s.metrics.QueryFailed("summary")
		return types.DatasetSummary{}, err
	}
	measurements, err := s.repository.MeasurementCount(ctx)
	if err != nil {
		s.metrics.QueryFailed("summary")
		return types.DatasetSummary{}, err
	}
	mostActive, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		s.metrics.QueryFailed("summary")
		return types.DatasetSummary{}, err
	}

	yearStart, _ := s.bounds.TrailingYear()
	return types.DatasetSummary{
		OldestDate:        types.FormatDate(s.bounds.Oldest),
		LatestDate:        types.FormatDate(s.bounds.Latest),
		TrailingYearStart: types.FormatDate(yearStart),
		StationCount:      stations,
		MeasurementCount:  measurements,
		MostActiveStation: mostActive,
	}, nil
}

func computeStats(temps []float64) types.TemperatureStats {
	if len(temps) == 0 {
		return types.TemperatureStats{}
	}
	tmin := floats.Min(temps)
	tmax := floats.Max(temps)
	// Rounding in the sum can push the mean just past an extreme.
	tavg := math.Min(math.Max(stat.Mean(temps, nil), tmin), tmax)
	return types.TemperatureStats{TMIN: &tmin, TMAX: &tmax, TAVG: &tavg}
}
