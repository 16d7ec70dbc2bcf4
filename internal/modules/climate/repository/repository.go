package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"surfsup-server/internal/modules/climate/types"
)

//go:embed sql/date-bounds.sql
var dateBoundsSQL string

//go:embed sql/precipitation-in-range.sql
var precipitationInRangeSQL string

//go:embed sql/distinct-station-codes.sql
var distinctStationCodesSQL string

//go:embed sql/most-active-station.sql
var mostActiveStationSQL string

//go:embed sql/temperatures-for-station-in-range.sql
var temperaturesForStationInRangeSQL string

//go:embed sql/temperatures-in-range.sql
var temperaturesInRangeSQL string

//go:embed sql/temperatures-since.sql
var temperaturesSinceSQL string

//go:embed sql/station-count.sql
var stationCountSQL string

//go:embed sql/measurement-count.sql
var measurementCountSQL string

// ErrEmptyDataset is returned when the measurement relation has no rows.
var ErrEmptyDataset = errors.New("dataset has no measurements")

// ClimateRepository is a read-only view over the station and measurement
// relations. Date arguments are YYYY-MM-DD strings and all ranges are
// inclusive; string comparison matches chronological order for that layout.
type ClimateRepository interface {
	DateBounds(ctx context.Context) (oldest string, latest string, err error)
	PrecipitationInRange(ctx context.Context, start, end string) ([]types.PrecipitationRow, error)
	DistinctStationCodes(ctx context.Context) ([]string, error)
	MostActiveStation(ctx context.Context) (string, error)
	TemperaturesForStationInRange(ctx context.Context, station, start, end string) ([]float64, error)
	TemperaturesInRange(ctx context.Context, start, end string) ([]float64, error)
	TemperaturesSince(ctx context.Context, start string) ([]float64, error)
	StationCount(ctx context.Context) (int, error)
	MeasurementCount(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) DateBounds(ctx context.Context) (string, string, error) {
	var oldest, latest sql.NullString
	if err := r.db.QueryRowContext(ctx, dateBoundsSQL).Scan(&oldest, &latest); err != nil {
		return "", "", fmt.Errorf("date bounds: %w", err)
	}
	if !oldest.Valid || !latest.Valid {
		return "", "", ErrEmptyDataset
	}
	return oldest.String, latest.String, nil
}

func (r *repositoryImpl) PrecipitationInRange(ctx context.Context, start, end string) ([]types.PrecipitationRow, error) {
	rows, err := r.db.QueryContext(ctx, precipitationInRangeSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("precipitation in range: %w", err)
	}
	defer closeRows(rows, "precipitation")

	var out []types.PrecipitationRow
	for rows.Next() {
		var (
			rec  types.PrecipitationRow
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, err
		}
		if prcp.Valid {
			v := prcp.Float64
			rec.Prcp = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) DistinctStationCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, distinctStationCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("distinct station codes: %w", err)
	}
	defer closeRows(rows, "stations")

	out := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, error) {
	var (
		code string
		n    int
	)
	err := r.db.QueryRowContext(ctx, mostActiveStationSQL).Scan(&code, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmptyDataset
	}
	if err != nil {
		return "", fmt.Errorf("most active station: %w", err)
	}
	return code, nil
}

func (r *repositoryImpl) TemperaturesForStationInRange(ctx context.Context, station, start, end string) ([]float64, error) {
	return r.queryTemperatures(ctx, "temperatures for station", temperaturesForStationInRangeSQL, station, start, end)
}

func (r *repositoryImpl) TemperaturesInRange(ctx context.Context, start, end string) ([]float64, error) {
	return r.queryTemperatures(ctx, "temperatures in range", temperaturesInRangeSQL, start, end)
}

func (r *repositoryImpl) TemperaturesSince(ctx context.Context, start string) ([]float64, error) {
	return r.queryTemperatures(ctx, "temperatures since", temperaturesSinceSQL, start)
}

func (r *repositoryImpl) StationCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, stationCountSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("station count: %w", err)
	}
	return n, nil
}

func (r *repositoryImpl) MeasurementCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, measurementCountSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("measurement count: %w", err)
	}
	return n, nil
}

func (r *repositoryImpl) queryTemperatures(ctx context.Context, op, query string, args ...any) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer closeRows(rows, op)

	out := []float64{}
	for rows.Next() {
		var tobs float64
		if err := rows.Scan(&tobs); err != nil {
			return nil, err
		}
		out = append(out, tobs)
	}
	return out, rows.Err()
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
