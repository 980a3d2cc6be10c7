package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/config"
	"github.com/flyeazy/flyeazy-client/internal/logger"
	"github.com/flyeazy/flyeazy-client/internal/stubapi"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.App.LogPath, "stubapi", cfg.App.Debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store := stubapi.NewStore()
	if err := stubapi.Seed(store); err != nil {
		log.Fatal("Failed to seed stub data", zap.Error(err))
	}

	h := stubapi.NewHandler(store, cfg.Stub.JWTSecret, log)
	r := stubapi.NewRouter(h, "/api")

	srv := &http.Server{
		Addr:         ":" + cfg.Stub.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Stub API starting",
			zap.String("port", cfg.Stub.Port),
			zap.String("admin", stubapi.SeedAdminEmail),
			zap.String("user", stubapi.SeedUserEmail))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
