package controller

import (
	"context"
	"net/http"

	"surfsup-server/internal/modules/climate/types"
)

// ClimateService is the read side the handlers depend on.
type ClimateService interface {
	YearlyPrecipitation(ctx context.Context) (map[string]*float64, error)
	Stations(ctx context.Context) ([]string, error)
	MostActiveYearTemperatures(ctx context.Context) ([]float64, error)
	StatsFrom(ctx context.Context, start string) (types.TemperatureStats, error)
	StatsBetween(ctx context.Context, start, end string) (types.TemperatureStats, error)
	Summary(ctx context.Context) (types.DatasetSummary, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

// RegisterRoutes mounts the API. Literal segments win over {start}, so
// precipitation, stations, tobs and summary are never parsed as dates.
func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleRoutes)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/summary", c.handleSummary)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleStatsBetween)
}
