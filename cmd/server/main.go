package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overlay-studio/internal/platform/config"
	"overlay-studio/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	cfg := loadSettings()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 5*time.Second)
	app, err := newApp(startCtx, cfg, log)
	cancelStart()
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"rtsp_url", cfg.RTSPURL,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
