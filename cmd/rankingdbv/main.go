// Package main запускает HTTP-сервер сервиса RankingDBV.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rankingdbv/ranking-system/internal/billing"
	"github.com/rankingdbv/ranking-system/internal/config"
	"github.com/rankingdbv/ranking-system/internal/handler"
	"github.com/rankingdbv/ranking-system/internal/middleware"
	"github.com/rankingdbv/ranking-system/internal/notifier"
	"github.com/rankingdbv/ranking-system/internal/payments"
	"github.com/rankingdbv/ranking-system/internal/repository"
	"github.com/rankingdbv/ranking-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var paymentClient *payments.Client
	if cfg.PaymentBaseURL != "" {
		paymentClient = payments.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIToken)
	}

	gate := billing.NewGate(repo)
	notify := notifier.New(repo, logger)

	svc := service.NewService(repo, gate, notify, paymentClient)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновых напоминаний об оплате подписки
	g.Go(func() error {
		svc.StartBillingReminders(ctx, 1*time.Hour)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting rankingdbv server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
