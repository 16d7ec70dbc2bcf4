package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/modules/climate/views"
	"surfsup-server/internal/utils"
)

func (c *climateControllerImpl) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderRoutes(&buf, views.DefaultRoutes()); err != nil {
		slog.Error("routes template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("routes: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.YearlyPrecipitation(r.Context())
	if err != nil {
		slog.Error("precipitation query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		slog.Error("stations query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	temps, err := c.service.MostActiveYearTemperatures(r.Context())
	if err != nil {
		slog.Error("tobs query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperatures")
		return
	}
	utils.WriteJSON(w, http.StatusOK, temps)
}

func (c *climateControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.Summary(r.Context())
	if err != nil {
		slog.Error("summary query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	stats, err := c.service.StatsFrom(r.Context(), start)
	if err != nil {
		c.writeStatsError(w, err, "start", start)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsBetween(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	stats, err := c.service.StatsBetween(r.Context(), start, end)
	if err != nil {
		c.writeStatsError(w, err, "start", start, "end", end)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// writeStatsError sends caller mistakes back as a bare JSON string and hides
// everything else behind a 500.
func (c *climateControllerImpl) writeStatsError(w http.ResponseWriter, err error, attrs ...any) {
	if service.IsClientError(err) {
		utils.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("temperature stats query failed", append(attrs, "error", err)...)
	utils.WriteError(w, http.StatusInternalServerError, "failed to compute temperature stats")
}
