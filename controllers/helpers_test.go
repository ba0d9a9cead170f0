package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"stock-repair-service/clients"
	"stock-repair-service/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockInventoryClient implements clients.InventoryClient in memory.
type mockInventoryClient struct {
	mu sync.Mutex

	notConfigured bool

	snapshots   map[string]models.InventorySnapshot // "item|location"
	snapshotErr error

	pages    [][]string
	pagesErr error
	levels   map[string][]models.InventorySnapshot

	setCalls    [][]clients.Adjustment
	setUserErrs map[int][]models.UserError
	setErrs     map[int]error

	startJob   *clients.ExportJob
	startErr   error
	currentJob *clients.ExportJob
	currentErr error
	canceled   []string

	downloadBody string
}

func newMockClient() *mockInventoryClient {
	return &mockInventoryClient{
		snapshots:   make(map[string]models.InventorySnapshot),
		levels:      make(map[string][]models.InventorySnapshot),
		setUserErrs: make(map[int][]models.UserError),
		setErrs:     make(map[int]error),
	}
}

func snapKey(itemID, locationID string) string { return itemID + "|" + locationID }

func (m *mockInventoryClient) Configured() bool { return !m.notConfigured }

func (m *mockInventoryClient) GetSnapshot(_ context.Context, itemID, locationID string) (*models.InventorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	s, ok := m.snapshots[snapKey(models.InventoryItemGID(itemID), models.LocationGID(locationID))]
	if !ok {
		return nil, fmt.Errorf("no snapshot for %s at %s", itemID, locationID)
	}
	return &s, nil
}

func (m *mockInventoryClient) ListInventoryItemIDs(_ context.Context, cursor string, _ int) ([]string, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pagesErr != nil {
		return nil, "", false, m.pagesErr
	}
	page := 0
	if cursor != "" {
		page, _ = strconv.Atoi(cursor)
	}
	if page >= len(m.pages) {
		return nil, "", false, nil
	}
	return m.pages[page], strconv.Itoa(page + 1), page < len(m.pages)-1, nil
}

func (m *mockInventoryClient) GetItemLevels(_ context.Context, itemID string) ([]models.InventorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[itemID], nil
}

func (m *mockInventoryClient) SetOnHandQuantities(_ context.Context, _ string, adjustments []clients.Adjustment) ([]models.UserError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.setCalls)
	m.setCalls = append(m.setCalls, adjustments)
	if err, ok := m.setErrs[idx]; ok {
		return nil, err
	}
	return m.setUserErrs[idx], nil
}

func (m *mockInventoryClient) setCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.setCalls)
}

func (m *mockInventoryClient) StartExport(_ context.Context) (*clients.ExportJob, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.startJob, nil
}

func (m *mockInventoryClient) CurrentExport(_ context.Context) (*clients.ExportJob, error) {
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	return m.currentJob, nil
}

func (m *mockInventoryClient) CancelExport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = append(m.canceled, id)
	return nil
}

func (m *mockInventoryClient) Download(_ context.Context, _ string, destPath string) error {
	return os.WriteFile(destPath, []byte(m.downloadBody), 0o644)
}

func (m *mockInventoryClient) GetLocationName(_ context.Context, locationID string) (string, error) {
	return "", fmt.Errorf("location %s not found", locationID)
}

func perform(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
