package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/services"
)

// ExportController drives the bulk-export lifecycle and the export-file scan.
type ExportController struct {
	exports           *services.ExportService
	corrector         *services.BatchCorrector
	client            clients.InventoryClient
	defaultAllowRaise bool
	reason            string
	logger            *zap.Logger
}

func NewExportController(
	exports *services.ExportService,
	corrector *services.BatchCorrector,
	client clients.InventoryClient,
	defaultAllowRaise bool,
	reason string,
	logger *zap.Logger,
) *ExportController {
	return &ExportController{
		exports:           exports,
		corrector:         corrector,
		client:            client,
		defaultAllowRaise: defaultAllowRaise,
		reason:            reason,
		logger:            logger,
	}
}

// ExportScanRequest configures an export-file scan. Path defaults to the most
// recently downloaded export.
type ExportScanRequest struct {
	Path                  string `json:"path"`
	Apply                 bool   `json:"apply"`
	ExcludeLocation       string `json:"exclude_location"`
	AllowRaiseToCommitted *bool  `json:"allow_raise_to_committed"`
}

func (ec *ExportController) misconfigured(c *gin.Context) bool {
	if ec.client.Configured() {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"message": "misconfigured: SHOPIFY_SHOP, SHOPIFY_ADMIN_TOKEN and SHOPIFY_API_VERSION are required",
	})
	return true
}

// Start handles POST /export.
func (ec *ExportController) Start(c *gin.Context) {
	if ec.misconfigured(c) {
		return
	}

	job, err := ec.exports.Start(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "export start failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// Status handles GET /export/status. A completed job's file is downloaded on
// first poll and its local path reported.
func (ec *ExportController) Status(c *gin.Context) {
	if ec.misconfigured(c) {
		return
	}

	job, path, err := ec.exports.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "export status failed: " + err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "job": nil, "message": "no bulk operation has run"})
		return
	}

	resp := gin.H{"success": true, "job": job}
	if path != "" {
		resp["file"] = path
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /export/cancel. Canceling when nothing is running is a
// no-op, not an error.
func (ec *ExportController) Cancel(c *gin.Context) {
	if ec.misconfigured(c) {
		return
	}

	canceled, err := ec.exports.Cancel(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "export cancel failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "canceled": canceled})
}

// ScanFile handles POST /export/scan — applies the decision engine over a
// downloaded NDJSON export, optionally pushing the corrections.
func (ec *ExportController) ScanFile(c *gin.Context) {
	var req ExportScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "details": err.Error()})
		return
	}

	path := req.Path
	if path == "" {
		path = ec.exports.LastFile()
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no export file available; run POST /export and poll GET /export/status first"})
		return
	}

	allowRaise := ec.defaultAllowRaise
	if req.AllowRaiseToCommitted != nil {
		allowRaise = *req.AllowRaiseToCommitted
	}

	report, err := ec.exports.ScanFile(path, services.ScanOptions{
		ExcludeLocation:       req.ExcludeLocation,
		AllowRaiseToCommitted: allowRaise,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": "export scan failed: " + err.Error()})
		return
	}

	if !req.Apply {
		c.JSON(http.StatusOK, gin.H{"success": true, "dryRun": true, "report": report})
		return
	}

	if ec.misconfigured(c) {
		return
	}
	results := ec.corrector.Apply(c.Request.Context(), report.Candidates, ec.reason)
	c.JSON(http.StatusOK, gin.H{"success": allApplied(results), "report": report, "results": results})
}
