package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhive-backend-go/internal/config"
	"studyhive-backend-go/internal/db"
	httpapi "studyhive-backend-go/internal/http"
	"studyhive-backend-go/internal/migrations"
	"studyhive-backend-go/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	if err := migrations.Apply(database, "migrations"); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	var mail services.Mailer
	if cfg.MailAPIKey != "" && cfg.MailAPIURL != "" {
		mail = services.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFromAddress, cfg.MailFromName, log)
	} else {
		mail = services.NoopMailer{Log: log}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := services.NewMetricsHub()
	server := httpapi.NewServer(database, cfg, log, mail, hub)

	addr := ":8080"
	if value := os.Getenv("PORT"); value != "" {
		addr = ":" + value
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	group.Go(func() error {
		return metricsLoop(ctx, server, log)
	})
	group.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func metricsLoop(ctx context.Context, server *httpapi.Server, log *zap.Logger) error {
	interval := time.Duration(server.Config.MetricsSampleSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := services.CaptureMetrics(server.DB, server.Config.MetricsDiskPath)
			if err != nil {
				log.Warn("metrics capture failed", zap.Error(err))
				continue
			}
			server.MetricsHub.Broadcast(sample)
		case <-ctx.Done():
			return nil
		}
	}
}
