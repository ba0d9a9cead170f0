package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"stock-repair-service/clients"
	"stock-repair-service/models"
)

// ExportService drives the platform-side bulk export job and scans the
// downloaded NDJSON snapshot. The file is derived cache data written to a
// scratch directory; it is safely deletable and re-creatable at any time.
type ExportService struct {
	client clients.InventoryClient
	dir    string
	logger *zap.Logger

	mu       sync.Mutex
	lastJob  *clients.ExportJob
	lastFile string
}

func NewExportService(client clients.InventoryClient, dir string, logger *zap.Logger) *ExportService {
	if dir == "" {
		dir = os.TempDir()
	}
	return &ExportService{client: client, dir: dir, logger: logger}
}

// Start launches a bulk export of the catalog's inventory levels.
func (e *ExportService) Start(ctx context.Context) (*clients.ExportJob, error) {
	job, err := e.client.StartExport(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.lastJob = job
	e.mu.Unlock()

	e.logger.Info("bulk export started", zap.String("id", job.ID), zap.String("status", job.Status))
	return job, nil
}

// Status polls the current bulk operation. When the job has completed and a
// download URL is available, the file is fetched once into the scratch
// directory; the local path is reported alongside the job state.
func (e *ExportService) Status(ctx context.Context) (*clients.ExportJob, string, error) {
	job, err := e.client.CurrentExport(ctx)
	if err != nil {
		return nil, "", err
	}
	if job == nil {
		return nil, "", nil
	}

	e.mu.Lock()
	e.lastJob = job
	alreadyDownloaded := e.lastFile != "" && strings.Contains(e.lastFile, models.NumericID(job.ID))
	e.mu.Unlock()

	if job.Status == clients.ExportStatusCompleted && job.URL != "" && !alreadyDownloaded {
		dest := filepath.Join(e.dir, fmt.Sprintf("inventory-export-%s.ndjson", models.NumericID(job.ID)))
		if err := e.client.Download(ctx, job.URL, dest); err != nil {
			return job, "", err
		}
		e.mu.Lock()
		e.lastFile = dest
		e.mu.Unlock()
		e.logger.Info("bulk export downloaded", zap.String("id", job.ID), zap.String("path", dest))
	}

	e.mu.Lock()
	path := e.lastFile
	e.mu.Unlock()
	return job, path, nil
}

// Cancel stops a running export. When no job is running this is a no-op, not
// an error; a file already downloaded from a prior completed job is untouched.
func (e *ExportService) Cancel(ctx context.Context) (bool, error) {
	job, err := e.client.CurrentExport(ctx)
	if err != nil {
		return false, err
	}
	if job == nil || (job.Status != clients.ExportStatusCreated && job.Status != clients.ExportStatusRunning) {
		return false, nil
	}

	if err := e.client.CancelExport(ctx, job.ID); err != nil {
		return false, err
	}
	e.logger.Info("bulk export canceled", zap.String("id", job.ID))
	return true, nil
}

// LastFile returns the path of the most recently downloaded export, if any.
func (e *ExportService) LastFile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFile
}

// exportLine is one NDJSON line. Parent lines are inventory items (id, sku);
// child lines are inventory levels carrying __parentId. Line order across
// parents and children is not guaranteed by the export format.
type exportLine struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	ParentID string `json:"__parentId"`
	Location *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"location"`
	Quantities []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"quantities"`
}

// ScanFile applies the decision engine to a downloaded export without any
// further API calls. Two passes: first index the parent items, then resolve
// level lines against them. Malformed lines and orphaned children are counted
// and skipped, never fatal to the scan.
func (e *ExportService) ScanFile(path string, opts ScanOptions) (*ScanReport, error) {
	report := &ScanReport{Candidates: []models.CorrectionCandidate{}}

	// Pass 1: parent index (item GID -> sku).
	parents := make(map[string]string)
	err := e.forEachLine(path, func(line exportLine) {
		if line.ParentID == "" && strings.Contains(line.ID, "/InventoryItem/") {
			parents[line.ID] = line.SKU
			report.ItemsScanned++
		}
	}, &report.Skipped)
	if err != nil {
		return nil, err
	}

	// Pass 2: levels. Malformed lines were already counted in pass 1.
	var discard int
	err = e.forEachLine(path, func(line exportLine) {
		if line.ParentID == "" || line.Location == nil {
			return
		}
		sku, ok := parents[line.ParentID]
		if !ok {
			report.Skipped++
			return
		}

		snapshot := models.InventorySnapshot{
			InventoryItemID: line.ParentID,
			LocationID:      line.Location.ID,
			LocationName:    line.Location.Name,
			SKU:             sku,
		}
		for _, q := range line.Quantities {
			switch q.Name {
			case "on_hand":
				snapshot.OnHand = q.Quantity
			case "available":
				snapshot.Available = q.Quantity
			case "committed":
				snapshot.Committed = q.Quantity
			case "incoming":
				snapshot.Incoming = q.Quantity
			}
		}

		if opts.ExcludeLocation != "" && snapshot.LocationName == opts.ExcludeLocation {
			return
		}
		report.Levels++
		if cand, ok := DecideCandidate(snapshot, opts.AllowRaiseToCommitted); ok {
			report.Candidates = append(report.Candidates, cand)
		}
	}, &discard)
	if err != nil {
		return nil, err
	}

	e.logger.Info("export file scan complete",
		zap.String("path", path),
		zap.Int("items", report.ItemsScanned),
		zap.Int("levels", report.Levels),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// forEachLine streams the file line by line, counting unparseable lines into
// skipped instead of aborting.
func (e *ExportService) forEachLine(path string, fn func(exportLine), skipped *int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line exportLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			*skipped++
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
