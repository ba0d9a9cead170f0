package clients

import (
	"context"

	"stock-repair-service/models"
)

// Adjustment is one set-on-hand instruction sent to the platform.
type Adjustment struct {
	InventoryItemID string `json:"inventoryItemId"`
	LocationID      string `json:"locationId"`
	Quantity        int    `json:"quantity"`
}

// Bulk operation states as reported by Shopify.
const (
	ExportStatusCreated   = "CREATED"
	ExportStatusRunning   = "RUNNING"
	ExportStatusCompleted = "COMPLETED"
	ExportStatusCanceled  = "CANCELED"
	ExportStatusFailed    = "FAILED"
)

// ExportJob is the state of the shop's current bulk operation.
type ExportJob struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ErrorCode   string `json:"errorCode,omitempty"`
	ObjectCount string `json:"objectCount,omitempty"`
	URL         string `json:"url,omitempty"`
}

// InventoryClient is the outbound contract against the commerce platform's
// Admin API. All calls are bounded by the client's HTTP timeout and by ctx.
type InventoryClient interface {
	// Configured reports whether credentials are present. Callers fail fast
	// with a misconfigured result instead of attempting a doomed call.
	Configured() bool

	// GetSnapshot fetches the current quantities for one item at one location.
	GetSnapshot(ctx context.Context, inventoryItemID, locationID string) (*models.InventorySnapshot, error)

	// ListInventoryItemIDs returns one page of inventory item GIDs.
	ListInventoryItemIDs(ctx context.Context, cursor string, pageSize int) (ids []string, nextCursor string, hasNext bool, err error)

	// GetItemLevels fetches quantities for one item across all its locations.
	GetItemLevels(ctx context.Context, inventoryItemID string) ([]models.InventorySnapshot, error)

	// SetOnHandQuantities applies absolute on-hand values. Field-level errors
	// reported by the platform come back as user errors, not as err.
	SetOnHandQuantities(ctx context.Context, reason string, adjustments []Adjustment) ([]models.UserError, error)

	// StartExport launches a bulk export of the whole catalog's inventory.
	StartExport(ctx context.Context) (*ExportJob, error)

	// CurrentExport polls the shop's current bulk operation. Returns nil when
	// no operation has ever run.
	CurrentExport(ctx context.Context) (*ExportJob, error)

	// CancelExport cancels a running bulk operation by id.
	CancelExport(ctx context.Context, id string) error

	// Download streams a completed export file to destPath.
	Download(ctx context.Context, url, destPath string) error

	// GetLocationName resolves a location GID to its display name.
	GetLocationName(ctx context.Context, locationID string) (string, error)
}
