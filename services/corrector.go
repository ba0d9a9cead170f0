package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stock-repair-service/clients"
	"stock-repair-service/metrics"
	"stock-repair-service/models"
)

// BatchCorrector applies correction candidates through the platform mutation
// in chunks. Chunks go out strictly in order, one at a time, paced by a rate
// limiter so a large scan cannot trip the Admin API throttle. A failed chunk
// is reported and skipped, never retried; chunks already applied stand.
type BatchCorrector struct {
	client    clients.InventoryClient
	batchSize int
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewBatchCorrector builds a corrector. batchSize must stay at or below the
// platform's mutation list cap (250 for inventorySetOnHandQuantities); pause
// is the minimum gap between consecutive chunks.
func NewBatchCorrector(client clients.InventoryClient, batchSize int, pause time.Duration, logger *zap.Logger) *BatchCorrector {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchCorrector{
		client:    client,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
		logger:    logger,
	}
}

// Apply sends every candidate exactly once, in list order, in ceil(N/B)
// chunks. Delivery is at-least-once and non-transactional: partial success is
// surfaced per chunk in the returned results.
func (b *BatchCorrector) Apply(ctx context.Context, candidates []models.CorrectionCandidate, reason string) []models.BatchResult {
	results := make([]models.BatchResult, 0, (len(candidates)+b.batchSize-1)/b.batchSize)

	for chunkIdx, offset := 0, 0; offset < len(candidates); chunkIdx, offset = chunkIdx+1, offset+b.batchSize {
		end := offset + b.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[offset:end]

		// Pacing gate: chunk N+1 never leaves before chunk N's delay elapses.
		if err := b.limiter.Wait(ctx); err != nil {
			results = append(results, models.BatchResult{Chunk: chunkIdx, Size: len(chunk), Error: err.Error()})
			continue
		}

		adjustments := make([]clients.Adjustment, 0, len(chunk))
		for _, c := range chunk {
			adjustments = append(adjustments, clients.Adjustment{
				InventoryItemID: c.InventoryItemID,
				LocationID:      c.LocationID,
				Quantity:        c.TargetOnHand,
			})
		}

		userErrs, err := b.client.SetOnHandQuantities(ctx, reason, adjustments)
		result := models.BatchResult{Chunk: chunkIdx, Size: len(chunk), UserErrors: userErrs}
		switch {
		case err != nil:
			result.Error = err.Error()
			b.logger.Error("correction chunk failed",
				zap.Int("chunk", chunkIdx),
				zap.Int("size", len(chunk)),
				zap.Error(err))
		case len(userErrs) > 0:
			b.logger.Warn("correction chunk returned user errors",
				zap.Int("chunk", chunkIdx),
				zap.Int("errors", len(userErrs)))
			result.Applied = true
			metrics.CorrectionsAppliedTotal.Add(float64(len(chunk)))
		default:
			result.Applied = true
			metrics.CorrectionsAppliedTotal.Add(float64(len(chunk)))
			b.logger.Info("correction chunk applied",
				zap.Int("chunk", chunkIdx),
				zap.Int("size", len(chunk)))
		}
		results = append(results, result)
	}

	return results
}
