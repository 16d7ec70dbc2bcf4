package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"surfsup-server/internal/config"
	db "surfsup-server/internal/db"
	httpapi "surfsup-server/internal/httpapi"
	climate "surfsup-server/internal/modules/climate"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
	climateviews "surfsup-server/internal/modules/climate/views"
	"surfsup-server/internal/mqtt"
	"surfsup-server/internal/observability"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbDSNSet", cfg.DSN != "",
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogSQL", cfg.LogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database connection successful")

	climateRepository := repository.NewRepository(dbConn)
	bounds, err := service.LoadBounds(ctx, climateRepository)
	if err != nil {
		return fmt.Errorf("load dataset bounds: %w", err)
	}
	slog.Info("dataset bounds loaded",
		"oldest", bounds.Oldest.Format(time.DateOnly),
		"latest", bounds.Latest.Format(time.DateOnly),
	)

	metrics := observability.NewMetrics()
	metrics.SetDatasetBounds(bounds.Oldest.Unix(), bounds.Latest.Unix())
	climateService := service.NewService(climateRepository, bounds, metrics)

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn, prometheus.DefaultGatherer)
	climate.RegisterFeature(mux, climateService)

	var announcer *mqtt.Announcer
	if cfg.MQTTBroker != "" {
		announcer = mqtt.NewAnnouncer(cfg, slog.Default())
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = announcer.Connect(connectCtx)
		if err == nil {
			err = climate.AnnounceDataset(connectCtx, announcer, climateService, clockwork.NewRealClock(), slog.Default())
		}
		connectCancel()
		if err != nil {
			slog.Warn("dataset announcement failed (continuing without mqtt)", "error", err)
		}
	} else {
		slog.Info("mqtt broker not configured, dataset announcer disabled")
	}

	srv := httpapi.NewServer(cfg, mux, metrics)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if announcer != nil {
		slog.Info("mqtt disconnecting")
		announcer.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
