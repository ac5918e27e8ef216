package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AllStoresKey is the sentinel used by clients to request the aggregated view.
const AllStoresKey = "ALL_STORES"

// Scope is the store-selection context of a triage or burn-down request.
// A zero StoreID means all stores.
type Scope struct {
	StoreID int64 `json:"store_id"`
}

func AllStores() Scope {
	return Scope{}
}

func StoreScope(storeID int64) Scope {
	return Scope{StoreID: storeID}
}

// IsAll reports whether the scope aggregates every store.
func (s Scope) IsAll() bool {
	return s.StoreID <= 0
}

// Key returns a stable cache key for the scope.
func (s Scope) Key() string {
	if s.IsAll() {
		return "all"
	}
	return "store:" + strconv.FormatInt(s.StoreID, 10)
}

func (s Scope) String() string {
	if s.IsAll() {
		return AllStoresKey
	}
	return strconv.FormatInt(s.StoreID, 10)
}

// ParseScope accepts "", "all", "ALL_STORES" or a positive store id.
func ParseScope(raw string) (Scope, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") || strings.EqualFold(raw, AllStoresKey) {
		return AllStores(), nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Scope{}, fmt.Errorf("invalid store scope %q", raw)
	}
	return StoreScope(id), nil
}
