package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"stock-repair-service/metrics"
	"stock-repair-service/models"
)

const quantityNames = `["on_hand","available","committed","incoming"]`

// exportQuery is the inventory-item-centric bulk query. Levels come back as
// child NDJSON lines linked to their item via __parentId.
const exportQuery = `{
  inventoryItems {
    edges {
      node {
        id
        sku
        inventoryLevels {
          edges {
            node {
              id
              location { id name }
              quantities(names: ` + quantityNames + `) { name quantity }
            }
          }
        }
      }
    }
  }
}`

// ShopifyClient implements InventoryClient against the Admin GraphQL API.
type ShopifyClient struct {
	shop       string
	token      string
	apiVersion string
	endpoint   string // overrides the derived URL; test use only
	httpClient *http.Client
	logger     *zap.Logger
}

// NewShopifyClient creates a client for one shop. Timeout bounds every
// outbound call in addition to the caller's ctx.
func NewShopifyClient(shop, token, apiVersion string, timeout time.Duration, logger *zap.Logger) *ShopifyClient {
	return &ShopifyClient{
		shop:       shop,
		token:      token,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *ShopifyClient) Configured() bool {
	return c.shop != "" && c.token != "" && c.apiVersion != ""
}

// ---- GraphQL plumbing ----

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// graphql posts one query and decodes the data object into out.
func (c *ShopifyClient) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shop, c.apiVersion)
	}

	b, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteAPIErrors.Inc()
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RemoteAPIErrors.Inc()
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RemoteAPIErrors.Inc()
		return fmt.Errorf("shopify API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		metrics.RemoteAPIErrors.Inc()
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("shopify graphql errors: %s", strings.Join(msgs, "; "))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// ---- response shapes ----

type quantityNode struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type locationNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type levelNode struct {
	Location   locationNode   `json:"location"`
	Quantities []quantityNode `json:"quantities"`
}

func snapshotFromLevel(itemID, sku string, lvl levelNode) models.InventorySnapshot {
	s := models.InventorySnapshot{
		InventoryItemID: itemID,
		LocationID:      lvl.Location.ID,
		LocationName:    lvl.Location.Name,
		SKU:             sku,
	}
	for _, q := range lvl.Quantities {
		switch q.Name {
		case "on_hand":
			s.OnHand = q.Quantity
		case "available":
			s.Available = q.Quantity
		case "committed":
			s.Committed = q.Quantity
		case "incoming":
			s.Incoming = q.Quantity
		}
	}
	return s
}

// ---- queries ----

func (c *ShopifyClient) GetSnapshot(ctx context.Context, inventoryItemID, locationID string) (*models.InventorySnapshot, error) {
	itemGID := models.InventoryItemGID(inventoryItemID)
	locGID := models.LocationGID(locationID)

	query := `query($itemId: ID!, $locationId: ID!) {
	  inventoryItem(id: $itemId) {
	    id
	    sku
	    inventoryLevel(locationId: $locationId) {
	      location { id name }
	      quantities(names: ` + quantityNames + `) { name quantity }
	    }
	  }
	}`

	var data struct {
		InventoryItem *struct {
			ID             string     `json:"id"`
			SKU            string     `json:"sku"`
			InventoryLevel *levelNode `json:"inventoryLevel"`
		} `json:"inventoryItem"`
	}
	err := c.graphql(ctx, query, map[string]any{"itemId": itemGID, "locationId": locGID}, &data)
	if err != nil {
		return nil, err
	}
	if data.InventoryItem == nil {
		return nil, fmt.Errorf("inventory item %s not found", itemGID)
	}
	if data.InventoryItem.InventoryLevel == nil {
		return nil, fmt.Errorf("no inventory level for item %s at location %s", itemGID, locGID)
	}

	s := snapshotFromLevel(data.InventoryItem.ID, data.InventoryItem.SKU, *data.InventoryItem.InventoryLevel)
	return &s, nil
}

func (c *ShopifyClient) ListInventoryItemIDs(ctx context.Context, cursor string, pageSize int) ([]string, string, bool, error) {
	query := `query($pageSize: Int!, $cursor: String) {
	  inventoryItems(first: $pageSize, after: $cursor) {
	    pageInfo { hasNextPage endCursor }
	    nodes { id }
	  }
	}`

	vars := map[string]any{"pageSize": pageSize}
	if cursor != "" {
		vars["cursor"] = cursor
	}

	var data struct {
		InventoryItems struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"inventoryItems"`
	}
	if err := c.graphql(ctx, query, vars, &data); err != nil {
		return nil, "", false, err
	}

	ids := make([]string, 0, len(data.InventoryItems.Nodes))
	for _, n := range data.InventoryItems.Nodes {
		if n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	return ids, data.InventoryItems.PageInfo.EndCursor, data.InventoryItems.PageInfo.HasNextPage, nil
}

func (c *ShopifyClient) GetItemLevels(ctx context.Context, inventoryItemID string) ([]models.InventorySnapshot, error) {
	itemGID := models.InventoryItemGID(inventoryItemID)

	query := `query($itemId: ID!) {
	  inventoryItem(id: $itemId) {
	    id
	    sku
	    inventoryLevels(first: 50) {
	      nodes {
	        location { id name }
	        quantities(names: ` + quantityNames + `) { name quantity }
	      }
	    }
	  }
	}`

	var data struct {
		InventoryItem *struct {
			ID              string `json:"id"`
			SKU             string `json:"sku"`
			InventoryLevels struct {
				Nodes []levelNode `json:"nodes"`
			} `json:"inventoryLevels"`
		} `json:"inventoryItem"`
	}
	if err := c.graphql(ctx, query, map[string]any{"itemId": itemGID}, &data); err != nil {
		return nil, err
	}
	if data.InventoryItem == nil {
		return nil, fmt.Errorf("inventory item %s not found", itemGID)
	}

	snapshots := make([]models.InventorySnapshot, 0, len(data.InventoryItem.InventoryLevels.Nodes))
	for _, lvl := range data.InventoryItem.InventoryLevels.Nodes {
		snapshots = append(snapshots, snapshotFromLevel(data.InventoryItem.ID, data.InventoryItem.SKU, lvl))
	}
	return snapshots, nil
}

// ---- mutations ----

// rawUserError matches Shopify's userErrors shape (field is a path array).
type rawUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func toUserErrors(raw []rawUserError) []models.UserError {
	if len(raw) == 0 {
		return nil
	}
	out := make([]models.UserError, 0, len(raw))
	for _, e := range raw {
		out = append(out, models.UserError{Field: strings.Join(e.Field, "."), Message: e.Message})
	}
	return out
}

func (c *ShopifyClient) SetOnHandQuantities(ctx context.Context, reason string, adjustments []Adjustment) ([]models.UserError, error) {
	query := `mutation($input: InventorySetOnHandQuantitiesInput!) {
	  inventorySetOnHandQuantities(input: $input) {
	    userErrors { field message }
	  }
	}`

	setQuantities := make([]map[string]any, 0, len(adjustments))
	for _, a := range adjustments {
		setQuantities = append(setQuantities, map[string]any{
			"inventoryItemId": models.InventoryItemGID(a.InventoryItemID),
			"locationId":      models.LocationGID(a.LocationID),
			"quantity":        a.Quantity,
		})
	}
	vars := map[string]any{
		"input": map[string]any{
			"reason":        reason,
			"setQuantities": setQuantities,
		},
	}

	var data struct {
		InventorySetOnHandQuantities struct {
			UserErrors []rawUserError `json:"userErrors"`
		} `json:"inventorySetOnHandQuantities"`
	}
	if err := c.graphql(ctx, query, vars, &data); err != nil {
		return nil, err
	}
	return toUserErrors(data.InventorySetOnHandQuantities.UserErrors), nil
}

// ---- bulk export lifecycle ----

func (c *ShopifyClient) StartExport(ctx context.Context) (*ExportJob, error) {
	query := `mutation($query: String!) {
	  bulkOperationRunQuery(query: $query) {
	    bulkOperation { id status }
	    userErrors { field message }
	  }
	}`

	var data struct {
		BulkOperationRunQuery struct {
			BulkOperation *ExportJob     `json:"bulkOperation"`
			UserErrors    []rawUserError `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := c.graphql(ctx, query, map[string]any{"query": exportQuery}, &data); err != nil {
		return nil, err
	}
	if errs := toUserErrors(data.BulkOperationRunQuery.UserErrors); len(errs) > 0 {
		return nil, fmt.Errorf("bulkOperationRunQuery: %s", errs[0].Message)
	}
	if data.BulkOperationRunQuery.BulkOperation == nil {
		return nil, fmt.Errorf("bulkOperationRunQuery returned no operation")
	}
	return data.BulkOperationRunQuery.BulkOperation, nil
}

func (c *ShopifyClient) CurrentExport(ctx context.Context) (*ExportJob, error) {
	query := `{
	  currentBulkOperation {
	    id
	    status
	    errorCode
	    objectCount
	    url
	  }
	}`

	var data struct {
		CurrentBulkOperation *ExportJob `json:"currentBulkOperation"`
	}
	if err := c.graphql(ctx, query, nil, &data); err != nil {
		return nil, err
	}
	return data.CurrentBulkOperation, nil
}

func (c *ShopifyClient) CancelExport(ctx context.Context, id string) error {
	query := `mutation($id: ID!) {
	  bulkOperationCancel(id: $id) {
	    bulkOperation { id status }
	    userErrors { field message }
	  }
	}`

	var data struct {
		BulkOperationCancel struct {
			UserErrors []rawUserError `json:"userErrors"`
		} `json:"bulkOperationCancel"`
	}
	if err := c.graphql(ctx, query, map[string]any{"id": id}, &data); err != nil {
		return err
	}
	if errs := toUserErrors(data.BulkOperationCancel.UserErrors); len(errs) > 0 {
		return fmt.Errorf("bulkOperationCancel: %s", errs[0].Message)
	}
	return nil
}

// Download streams the completed export to destPath. The URL is a
// pre-authenticated link, so no access token header is sent.
func (c *ShopifyClient) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteAPIErrors.Inc()
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RemoteAPIErrors.Inc()
		return fmt.Errorf("export download error (status %d)", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (c *ShopifyClient) GetLocationName(ctx context.Context, locationID string) (string, error) {
	locGID := models.LocationGID(locationID)

	query := `query($id: ID!) {
	  location(id: $id) { id name }
	}`

	var data struct {
		Location *locationNode `json:"location"`
	}
	if err := c.graphql(ctx, query, map[string]any{"id": locGID}, &data); err != nil {
		return "", err
	}
	if data.Location == nil {
		return "", fmt.Errorf("location %s not found", locGID)
	}
	return data.Location.Name, nil
}
