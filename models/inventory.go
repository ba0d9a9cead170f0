package models

// InventorySnapshot is the set of quantities Shopify reports for one
// (inventory item, location) pair. It is fetched fresh per scan and never
// persisted; corrections are always computed from the server-reported values.
type InventorySnapshot struct {
	InventoryItemID string `json:"inventoryItemId"`
	LocationID      string `json:"locationId"`
	LocationName    string `json:"locationName,omitempty"`
	SKU             string `json:"sku,omitempty"`
	OnHand          int    `json:"onHand"`
	Available       int    `json:"available"`
	Committed       int    `json:"committed"`
	Incoming        int    `json:"incoming"`
}

// CorrectionCandidate is one pending set-on-hand instruction produced by the
// decision engine and consumed by the batch corrector.
type CorrectionCandidate struct {
	InventoryItemID string            `json:"inventoryItemId"`
	LocationID      string            `json:"locationId"`
	TargetOnHand    int               `json:"targetOnHand"`
	SnapshotBefore  InventorySnapshot `json:"snapshotBefore"`
}

// UserError is a field-level error returned by a Shopify mutation.
type UserError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BatchResult reports the outcome of one corrector chunk. Chunks already
// applied are never rolled back when a later chunk fails.
type BatchResult struct {
	Chunk      int         `json:"chunk"`
	Size       int         `json:"size"`
	Applied    bool        `json:"applied"`
	UserErrors []UserError `json:"userErrors,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// InventoryLevelEvent is the payload of an inventory_levels/update webhook.
// Shopify sends bare numeric identifiers here; they are normalized to GIDs
// before any outbound call.
type InventoryLevelEvent struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       *int  `json:"available"`
}

// AvailableOrZero treats an absent available field as 0.
func (e InventoryLevelEvent) AvailableOrZero() int {
	if e.Available == nil {
		return 0
	}
	return *e.Available
}
