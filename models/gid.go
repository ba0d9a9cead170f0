package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	inventoryItemGIDPrefix = "gid://shopify/InventoryItem/"
	locationGIDPrefix      = "gid://shopify/Location/"
)

// InventoryItemGID normalizes a bare numeric id to a fully-qualified
// InventoryItem GID. Already-qualified ids pass through unchanged.
func InventoryItemGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return inventoryItemGIDPrefix + id
}

// LocationGID normalizes a bare numeric id to a Location GID.
func LocationGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return locationGIDPrefix + id
}

// InventoryItemGIDFromInt converts a numeric webhook id to a GID.
func InventoryItemGIDFromInt(id int64) string {
	return inventoryItemGIDPrefix + strconv.FormatInt(id, 10)
}

// LocationGIDFromInt converts a numeric webhook id to a GID.
func LocationGIDFromInt(id int64) string {
	return locationGIDPrefix + strconv.FormatInt(id, 10)
}

// NumericID extracts the trailing numeric id from a GID. Bare ids pass
// through unchanged.
func NumericID(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// FlexID accepts either a JSON number or a string, so operator requests can
// pass bare numeric ids or fully-qualified GIDs interchangeably.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }
