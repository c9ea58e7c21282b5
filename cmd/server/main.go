package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/repositories"
	"github.com/anonto42/socialgraph/backend/internal/router"
	"github.com/anonto42/socialgraph/backend/pkg/config"
	"github.com/anonto42/socialgraph/backend/pkg/firebase"
	"github.com/anonto42/socialgraph/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_ = logger.Init("development")
		logger.Get().Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repositories.EnsureIndexes(ctx, db.Mongo.Database(cfg.MongoDatabase)); err != nil {
		cancel()
		log.Fatal("Failed to create MongoDB indexes", zap.Error(err))
	}

	// Initialize Firebase when credentials are configured
	var firebaseApp *firebase.App
	if cfg.FirebaseEnabled() {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket, log)
		if err != nil {
			cancel()
			log.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
	} else {
		log.Warn("Firebase not configured; firebase login and image uploads are disabled")
	}
	cancel()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup global middleware
	config.SetupMiddleware(e, log)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, cfg, db, firebaseApp, log); err != nil {
		log.Fatal("Failed to set up routes", zap.Error(err))
	}

	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
