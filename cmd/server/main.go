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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"docdesk/internal/app"
	"docdesk/internal/config"
	"docdesk/internal/handler"
	"docdesk/internal/middleware"
	"docdesk/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Log.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The dashboard resolves the environment per request; see middleware.ClientContext.
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var healthH *handler.HealthHandler
	if a.DB != nil {
		healthH = handler.NewHealthHandler(a.DB)
	} else {
		healthH = handler.NewHealthHandler(nil)
	}

	jobH := handler.NewJobHandler(a.Jobs)
	batchH := handler.NewBatchHandler(a.Batches)
	handlers := router.Handlers{
		Session: handler.NewSessionHandler(a.Jobs, a.Batches, a.SessionID, nil),
		Jobs:    jobH,
		Batches: batchH,
		Exports: handler.NewExportHandler(a.Exports),
		Insight: handler.NewInsightHandler(a.Insight),
		Keys:    handler.NewKeyHandler(a.Keys),
		Health:  healthH,
	}

	r := router.Setup(a.Client, handlers, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Environment: middleware.EnvironmentOptions{
			ConfiguredBase: cfg.API.BaseURL,
			Development:    cfg.App.IsDevelopment(),
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
