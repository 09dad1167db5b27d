package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolution API and consume the ingestion topic",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, syncLogs, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogs()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing(), logger)
	if err != nil {
		return err
	}

	a := newApp(cfg, logger, appOptions{withConsumer: true})
	if err := a.startup.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start dependencies")
		return err
	}

	e := server.New(a.serverOptions(), logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	a.checker.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-serveErr:
		logger.WithError(err).Error("Server stopped unexpectedly")
	}
	a.checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if serr := e.Shutdown(shutdownCtx); serr != nil {
		logger.WithError(serr).Error("Failed to shutdown server")
	}
	if serr := a.startup.Stop(shutdownCtx); serr != nil {
		logger.WithError(serr).Error("Failed to stop dependencies")
	}
	if serr := shutdownTracing(shutdownCtx); serr != nil {
		logger.WithError(serr).Warn("Failed to flush traces")
	}
	return err
}
