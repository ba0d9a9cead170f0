package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-repair-service/models"
	"stock-repair-service/services"
)

func candidates(n int) []models.CorrectionCandidate {
	out := make([]models.CorrectionCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.CorrectionCandidate{
			InventoryItemID: models.InventoryItemGIDFromInt(int64(100 + i)),
			LocationID:      models.LocationGIDFromInt(1),
			TargetOnHand:    0,
		})
	}
	return out
}

func TestApply_ChunksCoverEveryCandidateExactlyOnce(t *testing.T) {
	client := newMockClient()
	corrector := services.NewBatchCorrector(client, 3, 0, zap.NewNop())

	results := corrector.Apply(context.Background(), candidates(7), "correction")

	require.Len(t, results, 3)
	require.Equal(t, 3, client.setCallCount())
	assert.Len(t, client.setCalls[0], 3)
	assert.Len(t, client.setCalls[1], 3)
	assert.Len(t, client.setCalls[2], 1)

	seen := make(map[string]int)
	for _, call := range client.setCalls {
		for _, adj := range call {
			seen[adj.InventoryItemID]++
		}
	}
	require.Len(t, seen, 7)
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s sent %d times", id, count)
	}

	for i, r := range results {
		assert.Equal(t, i, r.Chunk)
		assert.True(t, r.Applied)
		assert.Empty(t, r.Error)
	}
}

func TestApply_ReasonForwardedToEveryChunk(t *testing.T) {
	client := newMockClient()
	corrector := services.NewBatchCorrector(client, 2, 0, zap.NewNop())

	corrector.Apply(context.Background(), candidates(4), "shrinkage")

	require.Len(t, client.setReasons, 2)
	for _, reason := range client.setReasons {
		assert.Equal(t, "shrinkage", reason)
	}
}

func TestApply_ChunkErrorDoesNotHaltLaterChunks(t *testing.T) {
	client := newMockClient()
	client.setErrs[1] = errors.New("throttled: exceeded cost limit")
	corrector := services.NewBatchCorrector(client, 2, 0, zap.NewNop())

	results := corrector.Apply(context.Background(), candidates(6), "correction")

	require.Len(t, results, 3)
	require.Equal(t, 3, client.setCallCount())

	assert.True(t, results[0].Applied)
	assert.False(t, results[1].Applied)
	assert.Contains(t, results[1].Error, "throttled")
	assert.True(t, results[2].Applied)
}

func TestApply_UserErrorsCollectedPerChunk(t *testing.T) {
	client := newMockClient()
	client.setUserErrs[0] = []models.UserError{
		{Field: "setQuantities.0.locationId", Message: "Location not found"},
	}
	corrector := services.NewBatchCorrector(client, 5, 0, zap.NewNop())

	results := corrector.Apply(context.Background(), candidates(5), "correction")

	require.Len(t, results, 1)
	require.Len(t, results[0].UserErrors, 1)
	assert.Equal(t, "Location not found", results[0].UserErrors[0].Message)
	assert.Empty(t, results[0].Error)
}

func TestApply_EmptyCandidateListIsNoop(t *testing.T) {
	client := newMockClient()
	corrector := services.NewBatchCorrector(client, 3, 0, zap.NewNop())

	results := corrector.Apply(context.Background(), nil, "correction")

	assert.Empty(t, results)
	assert.Equal(t, 0, client.setCallCount())
}

func TestApply_PacesConsecutiveChunks(t *testing.T) {
	client := newMockClient()
	pause := 30 * time.Millisecond
	corrector := services.NewBatchCorrector(client, 1, pause, zap.NewNop())

	start := time.Now()
	corrector.Apply(context.Background(), candidates(3), "correction")
	elapsed := time.Since(start)

	// First chunk goes immediately; the next two each wait one pause.
	assert.GreaterOrEqual(t, elapsed, 2*pause)
	assert.Equal(t, 3, client.setCallCount())
}

func TestApply_CanceledContextReportsRemainingChunks(t *testing.T) {
	client := newMockClient()
	corrector := services.NewBatchCorrector(client, 2, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := corrector.Apply(ctx, candidates(4), "correction")

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Applied)
		assert.NotEmpty(t, r.Error)
	}
	assert.Equal(t, 0, client.setCallCount())
}
