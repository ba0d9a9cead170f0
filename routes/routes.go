package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-repair-service/controllers"
	"stock-repair-service/middleware"
)

// RegisterRoutes registers all service routes. Operator endpoints sit behind
// the admin-key guard; the webhook and probes do not (the webhook has its own
// signature check and Shopify cannot send custom headers).
func RegisterRoutes(
	r *gin.Engine,
	health *controllers.HealthController,
	webhook *controllers.WebhookController,
	scan *controllers.ScanController,
	export *controllers.ExportController,
	adminKey string,
) {
	r.GET("/health", health.Health)
	r.GET("/env-check", health.EnvCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/webhooks/inventory-levels", webhook.InventoryLevelsUpdate)

	admin := r.Group("/", middleware.AdminKey(adminKey))
	{
		admin.GET("/scan/variant", scan.ScanVariant)
		admin.POST("/scan/catalog", scan.ScanCatalog)
		admin.POST("/fix/variant", scan.FixVariant)
		admin.POST("/fix/catalog", scan.FixCatalog)

		admin.POST("/export", export.Start)
		admin.GET("/export/status", export.Status)
		admin.POST("/export/cancel", export.Cancel)
		admin.POST("/export/scan", export.ScanFile)
	}
}
