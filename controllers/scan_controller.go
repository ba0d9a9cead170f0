package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/models"
	"stock-repair-service/services"
)

// ScanController exposes the operator-invoked scan and fix endpoints. Unlike
// the webhook path these may answer non-200 on failure, since the caller is a
// human, not a retrying platform.
type ScanController struct {
	scanner           *services.Scanner
	corrector         *services.BatchCorrector
	client            clients.InventoryClient
	defaultPageSize   int
	defaultAllowRaise bool
	reason            string
	logger            *zap.Logger
}

func NewScanController(
	scanner *services.Scanner,
	corrector *services.BatchCorrector,
	client clients.InventoryClient,
	defaultPageSize int,
	defaultAllowRaise bool,
	reason string,
	logger *zap.Logger,
) *ScanController {
	return &ScanController{
		scanner:           scanner,
		corrector:         corrector,
		client:            client,
		defaultPageSize:   defaultPageSize,
		defaultAllowRaise: defaultAllowRaise,
		reason:            reason,
		logger:            logger,
	}
}

// VariantRequest identifies one (item, location) pair for fix-variant.
type VariantRequest struct {
	InventoryItemID       models.FlexID `json:"inventory_item_id" binding:"required"`
	LocationID            models.FlexID `json:"location_id" binding:"required"`
	AllowRaiseToCommitted *bool         `json:"allow_raise_to_committed"`
}

// CatalogRequest bounds a catalog scan. All fields are optional.
type CatalogRequest struct {
	PageSize              int    `json:"page_size"`
	MaxPages              int    `json:"max_pages"`
	ExcludeLocation       string `json:"exclude_location"`
	AllowRaiseToCommitted *bool  `json:"allow_raise_to_committed"`
}

func (sc *ScanController) misconfigured(c *gin.Context) bool {
	if sc.client.Configured() {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"message": "misconfigured: SHOPIFY_SHOP, SHOPIFY_ADMIN_TOKEN and SHOPIFY_API_VERSION are required",
	})
	return true
}

func (sc *ScanController) allowRaise(override *bool) bool {
	if override != nil {
		return *override
	}
	return sc.defaultAllowRaise
}

// ScanVariant handles GET /scan/variant — dry run for one item/location.
func (sc *ScanController) ScanVariant(c *gin.Context) {
	itemID := c.Query("inventory_item_id")
	locationID := c.Query("location_id")
	if itemID == "" || locationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "inventory_item_id and location_id query params are required"})
		return
	}
	if sc.misconfigured(c) {
		return
	}

	snapshot, candidates, err := sc.scanner.ScanVariant(c.Request.Context(), itemID, locationID, sc.defaultAllowRaise)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "snapshot fetch failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"dryRun":     true,
		"snapshot":   snapshot,
		"candidates": candidates,
	})
}

// FixVariant handles POST /fix/variant — corrects one item/location.
func (sc *ScanController) FixVariant(c *gin.Context) {
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "details": err.Error()})
		return
	}
	if sc.misconfigured(c) {
		return
	}

	snapshot, candidates, err := sc.scanner.ScanVariant(c.Request.Context(), req.InventoryItemID.String(), req.LocationID.String(), sc.allowRaise(req.AllowRaiseToCommitted))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "snapshot fetch failed: " + err.Error()})
		return
	}

	if len(candidates) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "fixed": false, "snapshot": snapshot})
		return
	}

	results := sc.corrector.Apply(c.Request.Context(), candidates, sc.reason)
	c.JSON(http.StatusOK, gin.H{
		"success":  allApplied(results),
		"fixed":    allApplied(results),
		"snapshot": snapshot,
		"target":   candidates[0].TargetOnHand,
		"results":  results,
	})
}

// ScanCatalog handles POST /scan/catalog — dry run over the whole catalog.
func (sc *ScanController) ScanCatalog(c *gin.Context) {
	req, ok := sc.bindCatalogRequest(c)
	if !ok {
		return
	}
	if sc.misconfigured(c) {
		return
	}

	report, err := sc.scanner.ScanCatalog(c.Request.Context(), sc.scanOptions(req))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "catalog scan failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "dryRun": true, "report": report})
}

// FixCatalog handles POST /fix/catalog — scans and applies corrections.
func (sc *ScanController) FixCatalog(c *gin.Context) {
	req, ok := sc.bindCatalogRequest(c)
	if !ok {
		return
	}
	if sc.misconfigured(c) {
		return
	}

	report, err := sc.scanner.ScanCatalog(c.Request.Context(), sc.scanOptions(req))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "catalog scan failed: " + err.Error()})
		return
	}

	results := sc.corrector.Apply(c.Request.Context(), report.Candidates, sc.reason)
	c.JSON(http.StatusOK, gin.H{
		"success": allApplied(results),
		"report":  report,
		"results": results,
	})
}

// bindCatalogRequest tolerates an empty body; every field has a default.
func (sc *ScanController) bindCatalogRequest(c *gin.Context) (CatalogRequest, bool) {
	var req CatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "details": err.Error()})
		return req, false
	}
	return req, true
}

func (sc *ScanController) scanOptions(req CatalogRequest) services.ScanOptions {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = sc.defaultPageSize
	}
	return services.ScanOptions{
		PageSize:              pageSize,
		MaxPages:              req.MaxPages,
		ExcludeLocation:       req.ExcludeLocation,
		AllowRaiseToCommitted: sc.allowRaise(req.AllowRaiseToCommitted),
	}
}

func allApplied(results []models.BatchResult) bool {
	for _, r := range results {
		if !r.Applied || len(r.UserErrors) > 0 {
			return false
		}
	}
	return true
}
