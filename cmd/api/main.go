package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medidispense/internal/adapters/alerts/webhook"
	"medidispense/internal/adapters/roster"
	"medidispense/internal/adapters/storage/file"
	mem "medidispense/internal/adapters/storage/memory"
	pg "medidispense/internal/adapters/storage/postgres"
	"medidispense/internal/domain/alerts"
	"medidispense/internal/domain/doses"
	"medidispense/internal/domain/history"
	"medidispense/internal/domain/patients"
	"medidispense/internal/platform/clock"
	"medidispense/internal/platform/config"
	"medidispense/internal/platform/httpclient"
	"medidispense/internal/platform/logger"
	"medidispense/internal/router"
)

// @title MediDispense API
// @version 1.0
// @description Seguimiento de dosis programadas por paciente.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	if err := run(cfg, log); err != nil {
		log.Error("fatal", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		return err
	}

	r, err := roster.Load(cfg.RosterFile)
	if err != nil {
		return err
	}
	patientsSvc := patients.NewService(mem.NewRosterRepo(r))

	store, closeStore, err := openHistoryStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	hist := history.NewLog(store, log)
	names, err := patientsSvc.Names(ctx)
	if err != nil {
		return err
	}
	// Sin historial previo se arranca vacío; no es fatal.
	if err := hist.LoadAll(ctx, names); err != nil {
		log.Error("history load failed, starting empty", map[string]any{"error": err})
	}

	seeds, err := patientsSvc.Seeds(ctx)
	if err != nil {
		return err
	}
	eng, err := doses.NewEngine(seeds, hist, doses.Options{
		LockMinutes: cfg.LockMinutes,
		Clock:       clk,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	hub := alerts.NewHub(log)
	if cfg.AlertWebhookURL != "" {
		hub.AddSink(webhook.New(cfg.AlertWebhookURL, httpclient.New(5*time.Second)))
		log.Info("alert webhook enabled", map[string]any{"url": cfg.AlertWebhookURL})
	}

	monitor := alerts.NewMonitor(eng, hub, alerts.MonitorOptions{
		Interval: cfg.AlertInterval,
		Logger:   log,
	})
	if err := monitor.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.NewRouter(router.Options{
			Engine:         eng,
			History:        hist,
			Patients:       patientsSvc,
			Alerts:         hub,
			Logger:         log,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		// Los streams SSE se cortan con la señal; si no, Shutdown espera el timeout.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":         srv.Addr,
			"timezone":     cfg.Timezone,
			"lock_minutes": eng.LockWindow().Minutes(),
			"patients":     len(seeds),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", map[string]any{"error": err})
	}
	monitor.Stop(shutdownCtx)

	if err := hist.Flush(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// openHistoryStore: DB_DSN > HISTORY_FILE > memoria.
func openHistoryStore(ctx context.Context, cfg config.Config, log logger.Logger) (history.Store, func(), error) {
	if cfg.DBDSN != "" {
		db, err := pg.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		s := pg.NewHistoryStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("history store: postgres", nil)
		return s, func() { _ = db.Close() }, nil
	}

	if cfg.HistoryFile != "" {
		log.Info("history store: file", map[string]any{"path": cfg.HistoryFile})
		return file.NewHistoryStore(cfg.HistoryFile), func() {}, nil
	}

	log.Warn("history store: memory (not persisted)", nil)
	return mem.NewHistoryStore(), func() {}, nil
}
