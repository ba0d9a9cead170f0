package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/controllers"
	"stock-repair-service/metrics"
	"stock-repair-service/middleware"
	"stock-repair-service/routes"
	"stock-repair-service/services"
)

func main() {
	_ = godotenv.Load() // loads .env if present

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}
	if !cfg.Presence()["SHOPIFY_ADMIN_TOKEN"] {
		logger.Warn("Shopify credentials incomplete; API-backed endpoints will answer misconfigured (see /env-check)")
	}

	metrics.Register()

	// --- Service wiring ---
	client := clients.NewShopifyClient(cfg.ShopifyShop, cfg.ShopifyToken, cfg.ShopifyAPIVersion, cfg.HTTPTimeout, logger)

	verifier := services.NewSignatureVerifier(cfg.WebhookSecret, logger)
	dedupe := services.NewDedupeCache(cfg.DedupeTTL)
	corrector := services.NewBatchCorrector(client, cfg.BatchSize, cfg.BatchPause, logger)
	scanner := services.NewScanner(client, cfg.ScanConcurrency, logger)
	exports := services.NewExportService(client, cfg.ExportDir, logger)
	webhookSvc := services.NewWebhookService(client, dedupe, cfg.AllowRaiseToCommitted, cfg.CorrectionReason, logger)

	healthCtrl := controllers.NewHealthController(cfg.Presence())
	webhookCtrl := controllers.NewWebhookController(verifier, webhookSvc, logger)
	scanCtrl := controllers.NewScanController(scanner, corrector, client, cfg.PageSize, cfg.AllowRaiseToCommitted, cfg.CorrectionReason, logger)
	exportCtrl := controllers.NewExportController(exports, corrector, client, cfg.AllowRaiseToCommitted, cfg.CorrectionReason, logger)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())

	routes.RegisterRoutes(r, healthCtrl, webhookCtrl, scanCtrl, exportCtrl, cfg.AdminAPIKey)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		logger.Info("Stock repair service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down stock repair service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Stock repair service stopped gracefully")
}
