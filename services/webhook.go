package services

import (
	"context"

	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/models"
)

// Webhook outcome statuses. These feed the response body and the outcome
// counter; the HTTP status is 200 for all of them, because a non-200 would
// make the sender retry an event we have already decided about.
const (
	OutcomeIgnored = "ignored"
	OutcomeDeduped = "deduped"
	OutcomeClean   = "clean"
	OutcomeFixed   = "fixed"
	OutcomeError   = "error"
)

// WebhookOutcome is the structured result of processing one inventory event.
type WebhookOutcome struct {
	Status     string
	Available  int
	Negative   bool
	Target     int
	Message    string
	UserErrors []models.UserError
}

// WebhookService runs the correction pipeline for one inventory_levels/update
// event: dedupe, fetch the authoritative snapshot, decide, and if warranted
// issue a single set-on-hand mutation.
type WebhookService struct {
	client     clients.InventoryClient
	dedupe     *DedupeCache
	allowRaise bool
	reason     string
	logger     *zap.Logger
}

func NewWebhookService(client clients.InventoryClient, dedupe *DedupeCache, allowRaise bool, reason string, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		client:     client,
		dedupe:     dedupe,
		allowRaise: allowRaise,
		reason:     reason,
		logger:     logger,
	}
}

// Process handles one verified event. The caller has already checked the
// signature; everything here resolves to an outcome, never a panic or an
// unanswered request.
func (s *WebhookService) Process(ctx context.Context, event models.InventoryLevelEvent) WebhookOutcome {
	if event.InventoryItemID == 0 || event.LocationID == 0 {
		return WebhookOutcome{Status: OutcomeIgnored, Message: "missing identifiers"}
	}

	itemID := models.InventoryItemGIDFromInt(event.InventoryItemID)
	locationID := models.LocationGIDFromInt(event.LocationID)
	available := event.AvailableOrZero()

	if s.dedupe.IsDuplicate(itemID, locationID, available) {
		s.logger.Debug("duplicate webhook event collapsed",
			zap.Int64("inventory_item_id", event.InventoryItemID),
			zap.Int64("location_id", event.LocationID),
			zap.Int("available", available))
		return WebhookOutcome{Status: OutcomeDeduped, Available: available}
	}
	s.dedupe.MarkSeen(itemID, locationID, available)

	if !s.client.Configured() {
		return WebhookOutcome{Status: OutcomeError, Available: available, Message: "remote API not configured"}
	}

	// Decide from the current server-reported snapshot, not from the webhook
	// payload: the payload's available value may already be stale.
	snapshot, err := s.client.GetSnapshot(ctx, itemID, locationID)
	if err != nil {
		s.logger.Error("snapshot fetch failed",
			zap.Int64("inventory_item_id", event.InventoryItemID),
			zap.Error(err))
		return WebhookOutcome{Status: OutcomeError, Available: available, Message: "snapshot fetch failed: " + err.Error()}
	}

	target, needsFix := Decide(*snapshot, s.allowRaise)
	if !needsFix {
		return WebhookOutcome{Status: OutcomeClean, Available: snapshot.Available}
	}

	userErrs, err := s.client.SetOnHandQuantities(ctx, s.reason, []clients.Adjustment{{
		InventoryItemID: itemID,
		LocationID:      locationID,
		Quantity:        target,
	}})
	if err != nil {
		s.logger.Error("correction mutation failed",
			zap.Int64("inventory_item_id", event.InventoryItemID),
			zap.Error(err))
		return WebhookOutcome{Status: OutcomeError, Available: snapshot.Available, Negative: true, Message: "correction failed: " + err.Error()}
	}
	if len(userErrs) > 0 {
		return WebhookOutcome{Status: OutcomeError, Available: snapshot.Available, Negative: true, UserErrors: userErrs, Message: "correction rejected by platform"}
	}

	s.logger.Info("negative inventory corrected",
		zap.Int64("inventory_item_id", event.InventoryItemID),
		zap.Int64("location_id", event.LocationID),
		zap.Int("on_hand_before", snapshot.OnHand),
		zap.Int("available_before", snapshot.Available),
		zap.Int("target", target))
	return WebhookOutcome{Status: OutcomeFixed, Available: snapshot.Available, Negative: true, Target: target}
}
