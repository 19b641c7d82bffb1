package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"payflow/internal/config"
	"payflow/internal/database"
	"payflow/internal/infrastructure/payment"
	"payflow/internal/logger"
	"payflow/internal/repo"
	"payflow/internal/server"
	"payflow/internal/service"
	"payflow/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres()
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	paymentRepo := repo.NewPaymentRepo(db)

	var gateway payment.PaymentGateway
	if cfg.MPAccessToken != "" {
		gateway, err = payment.NewMercadoPagoGateway(&payment.MercadoPagoConfig{
			AccessToken: cfg.MPAccessToken,
			WebhookURL:  cfg.MPWebhookURL,
			BaseURL:     cfg.MPBaseURL,
		}, log)
		if err != nil {
			log.Fatal("failed to build gateway client", zap.Error(err))
		}
	} else {
		log.Warn("MP_ACCESS_TOKEN not set, using in-memory gateway")
		gateway = payment.NewMockGateway()
	}

	paymentService := service.NewPaymentService(paymentRepo, gateway, log)
	webhookService := service.NewWebhookService(paymentRepo, gateway, log)

	sweeper := worker.NewReconciliationWorker(
		paymentRepo, gateway,
		cfg.ReconcileInterval, cfg.ReconcileStuckAfter,
		log,
	)
	go sweeper.Run(ctx)

	handler := server.NewHandler(paymentService, webhookService, database.New(db), log)
	router := server.NewRouter(handler, cfg.MPWebhookSecret, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
