package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studentperf/internal/auth"
	"studentperf/internal/config"
	"studentperf/internal/database"
	"studentperf/internal/handler"
	"studentperf/internal/logger"
	"studentperf/internal/repository"
	"studentperf/internal/router"
	"studentperf/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: config.yaml in ./config or .)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize roster store
	repo, err := newStudentRepository(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("init student store", zap.Error(err))
	}

	// Initialize services
	studentService := service.NewStudentService(repo, zapLogger)
	exportService := service.NewExportService(studentService, zapLogger)
	uploadService := service.NewUploadService(studentService, zapLogger)

	if cfg.Store.Seed {
		if err := studentService.SeedSample(context.Background()); err != nil {
			zapLogger.Fatal("seed sample roster", zap.Error(err))
		}
	}

	gate, err := auth.NewGate(&cfg.Auth, auth.NewSessionStore())
	if err != nil {
		zapLogger.Fatal("init session gate", zap.Error(err))
	}

	// Initialize handlers
	authHandler, err := handler.NewAuthHandler(gate, zapLogger)
	if err != nil {
		zapLogger.Fatal("parse page templates", zap.Error(err))
	}

	r := router.Setup(&cfg.Server, router.Handlers{
		Students: handler.NewStudentHandler(studentService, zapLogger),
		Exports:  handler.NewExportHandler(exportService, zapLogger),
		Uploads:  handler.NewUploadHandler(uploadService, zapLogger),
		Progress: handler.NewProgressHandler(uploadService),
		Auth:     authHandler,
		Gate:     gate,
	}, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

func newStudentRepository(cfg *config.Config, logger *zap.Logger) (repository.StudentRepository, error) {
	if cfg.Store.Driver == config.StoreSQLite {
		db, err := database.InitDB(logger, cfg.Log.Level == "debug")
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewGormStudentRepository(db)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return repository.NewMemoryStudentRepository(), nil
}
