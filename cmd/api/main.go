package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"nosweat-backend/internal/catalog"
	"nosweat-backend/internal/client"
	"nosweat-backend/internal/config"
	"nosweat-backend/internal/metrics"
	"nosweat-backend/internal/repository"
	"nosweat-backend/internal/server"
	"nosweat-backend/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(&cfg.Log)
	metrics.Register()

	prices := catalog.Default()
	if cfg.CatalogPrices != "" {
		var err error
		prices, err = catalog.FromJSON(cfg.CatalogPrices)
		if err != nil {
			slog.Error("invalid CATALOG_PRICES", "error", err)
			os.Exit(1)
		}
	}

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		slog.Error("init database", "error", err)
		os.Exit(1)
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	emailSender, err := client.NewSESEmailSender(context.Background(), &cfg.SES)
	if err != nil {
		slog.Error("init ses client", "error", err)
		os.Exit(1)
	}

	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)

	checkoutService := service.NewCheckoutService(
		db,
		stripeClient,
		emailSender,
		prices,
		orderRepo,
		webhookEventRepo,
	)
	inquiryService := service.NewInquiryService(inquiryRepo, emailSender, cfg.SES.Receiver)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutService, inquiryService)

	slog.Info("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	slog.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(logCfg *config.Log) {
	var level slog.Level
	switch strings.ToLower(logCfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if logCfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
