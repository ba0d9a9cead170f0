package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/models"
)

// ScanOptions bound a catalog scan.
type ScanOptions struct {
	PageSize              int
	MaxPages              int    // 0 means no limit
	ExcludeLocation       string // location display name to skip
	AllowRaiseToCommitted bool
}

// ScanReport is the outcome of one scan run.
type ScanReport struct {
	ScanID       string                       `json:"scanId"`
	Pages        int                          `json:"pages"`
	ItemsScanned int                          `json:"itemsScanned"`
	Levels       int                          `json:"levels"`
	Skipped      int                          `json:"skipped"`
	Candidates   []models.CorrectionCandidate `json:"candidates"`
}

// locationNameCache memoizes location GID -> display name lookups so the
// exclusion filter costs one API call per location, not one per level.
type locationNameCache struct {
	mu    sync.Mutex
	names map[string]string
}

func (c *locationNameCache) get(ctx context.Context, client clients.InventoryClient, locationID string) (string, error) {
	c.mu.Lock()
	if name, ok := c.names[locationID]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	name, err := client.GetLocationName(ctx, locationID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.names[locationID] = name
	c.mu.Unlock()
	return name, nil
}

// Scanner enumerates correction candidates, either for a single variant's
// inventory item or across the whole catalog.
type Scanner struct {
	client      clients.InventoryClient
	concurrency int
	locations   *locationNameCache
	logger      *zap.Logger
}

func NewScanner(client clients.InventoryClient, concurrency int, logger *zap.Logger) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scanner{
		client:      client,
		concurrency: concurrency,
		locations:   &locationNameCache{names: make(map[string]string)},
		logger:      logger,
	}
}

// ScanVariant fetches one (item, location) snapshot and decides on it.
// Returns zero or one candidates plus the snapshot for diagnostics.
func (s *Scanner) ScanVariant(ctx context.Context, inventoryItemID, locationID string, allowRaise bool) (*models.InventorySnapshot, []models.CorrectionCandidate, error) {
	snapshot, err := s.client.GetSnapshot(ctx, inventoryItemID, locationID)
	if err != nil {
		return nil, nil, err
	}

	if cand, ok := DecideCandidate(*snapshot, allowRaise); ok {
		return snapshot, []models.CorrectionCandidate{cand}, nil
	}
	return snapshot, nil, nil
}

// ScanCatalog walks the catalog page by page. Level fetches for the items of
// each page run through a fixed-size in-flight window; results are appended
// under a mutex. Items whose fetch fails are counted as skipped, never fatal.
func (s *Scanner) ScanCatalog(ctx context.Context, opts ScanOptions) (*ScanReport, error) {
	report := &ScanReport{
		ScanID:     uuid.NewString(),
		Candidates: []models.CorrectionCandidate{},
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	cursor := ""
	for {
		ids, next, hasNext, err := s.client.ListInventoryItemIDs(ctx, cursor, opts.PageSize)
		if err != nil {
			wg.Wait()
			return nil, err
		}
		report.Pages++
		report.ItemsScanned += len(ids)

		for _, itemID := range ids {
			wg.Add(1)
			sem <- struct{}{}
			go func(itemID string) {
				defer wg.Done()
				defer func() { <-sem }()

				levels, err := s.client.GetItemLevels(ctx, itemID)
				if err != nil {
					s.logger.Warn("level fetch failed, skipping item",
						zap.String("inventory_item_id", itemID),
						zap.Error(err))
					mu.Lock()
					report.Skipped++
					mu.Unlock()
					return
				}

				for _, snapshot := range levels {
					if s.excluded(ctx, snapshot, opts.ExcludeLocation) {
						continue
					}
					mu.Lock()
					report.Levels++
					if cand, ok := DecideCandidate(snapshot, opts.AllowRaiseToCommitted); ok {
						report.Candidates = append(report.Candidates, cand)
					}
					mu.Unlock()
				}
			}(itemID)
		}

		if !hasNext || (opts.MaxPages > 0 && report.Pages >= opts.MaxPages) {
			break
		}
		cursor = next
	}
	wg.Wait()

	s.logger.Info("catalog scan complete",
		zap.String("scan_id", report.ScanID),
		zap.Int("pages", report.Pages),
		zap.Int("items", report.ItemsScanned),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// excluded applies the location-name exclusion filter. Snapshots that carry
// the name inline avoid the lookup; otherwise the cached resolver is used.
// Resolution failure keeps the level in scope rather than silently dropping it.
func (s *Scanner) excluded(ctx context.Context, snapshot models.InventorySnapshot, excludeLocation string) bool {
	if excludeLocation == "" {
		return false
	}
	name := snapshot.LocationName
	if name == "" {
		resolved, err := s.locations.get(ctx, s.client, snapshot.LocationID)
		if err != nil {
			return false
		}
		name = resolved
	}
	return name == excludeLocation
}
