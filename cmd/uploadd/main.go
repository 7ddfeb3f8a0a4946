package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/chunkstage/internal/app/uploadhttp"
	"github.com/sir_venger/chunkstage/internal/artifact"
	"github.com/sir_venger/chunkstage/internal/config"
	"github.com/sir_venger/chunkstage/internal/logging"
	"github.com/sir_venger/chunkstage/internal/metrics"
	"github.com/sir_venger/chunkstage/internal/staging"
	"github.com/sir_venger/chunkstage/internal/usecase/uploadsvc"
	"github.com/sirupsen/logrus"
)

// main инициализирует HTTP-сервис загрузки частями и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.WithError(err).Fatal("upload service stopped")
	}
}

// run владеет staging-хранилищем: оно закрывается при любом выходе, в том числе при ошибке сборки.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	store, err := staging.Open(staging.Options{
		Backend:   cfg.StagingBackend,
		Dir:       cfg.StagingDir,
		BadgerDir: cfg.BadgerDir,
	})
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("close staging store")
		}
	}()

	handler, err := buildHandler(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr":      cfg.ListenAddr,
		"backend":   cfg.StagingBackend,
		"final_dir": cfg.FinalDir,
	}).Info("upload service listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("final shutdown")
	}

	return nil
}

func buildHandler(cfg *config.Config, store staging.Store, logger *logrus.Logger) (http.Handler, error) {
	finals, err := artifact.NewDir(cfg.FinalDir)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	uploads, err := uploadsvc.New(uploadsvc.Deps{
		Staging:      store,
		Artifacts:    finals,
		Log:          logger,
		Metrics:      m,
		VerifyDigest: cfg.VerifyDigest,
	})
	if err != nil {
		return nil, err
	}

	return uploadhttp.New(uploadhttp.Deps{
		Uploads:   uploads,
		Log:       logger,
		Metrics:   m,
		MaxMemory: cfg.MaxMemoryBytes,
		PublicDir: cfg.PublicDir,
	}), nil
}
