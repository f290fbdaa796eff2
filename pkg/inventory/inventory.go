package inventory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/windora/fanstore/pkg/types"
)

// MaxQuantity bounds the stock level a warehouse may hold per product.
const MaxQuantity = 50

var noStockUpdates = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fanstore_inventory_updates_total",
	Help: "The total number of inventory mutations",
})

var ErrReasonRequired = errors.New("inventory update requires a reason")

// Key addresses one stock level: a store plus a product.
type Key struct {
	StoreId   string
	ProductId types.ProductId
}

// ChangeHandler receives every applied mutation, the rabbit transport
// publishes these to reader nodes.
type ChangeHandler interface {
	StockChanged(change types.StockChange)
}

// Inventory holds warehouse quantities. All mutations clamp into [0,
// MaxQuantity] and demand a reason string before anything is written.
type Inventory struct {
	mu            sync.RWMutex
	levels        map[Key]uint16
	ChangeHandler ChangeHandler
}

func NewInventory() *Inventory {
	return &Inventory{levels: map[Key]uint16{}}
}

// Clamp validates a requested quantity before any mutation is attempted. The
// returned flag is true when the input was out of bounds, callers surface the
// warning to the operator.
func Clamp(quantity int) (uint16, bool) {
	if quantity < 0 {
		return 0, true
	}
	if quantity > MaxQuantity {
		return MaxQuantity, true
	}
	return uint16(quantity), false
}

func (inv *Inventory) Get(key Key) uint16 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.levels[key]
}

// Set applies a clamped quantity. The empty reason is rejected before any
// state changes.
func (inv *Inventory) Set(key Key, quantity int, reason string) (uint16, bool, error) {
	if reason == "" {
		return 0, false, ErrReasonRequired
	}
	if key.StoreId == "" || key.ProductId == 0 {
		return 0, false, fmt.Errorf("invalid inventory key %v", key)
	}
	applied, clamped := Clamp(quantity)

	inv.mu.Lock()
	inv.levels[key] = applied
	inv.mu.Unlock()
	noStockUpdates.Inc()

	if inv.ChangeHandler != nil {
		inv.ChangeHandler.StockChanged(types.StockChange{
			StoreId:   key.StoreId,
			ProductId: key.ProductId,
			Quantity:  applied,
			Reason:    reason,
		})
	}
	return applied, clamped, nil
}

// Apply replays a change coming from the sync transport, bypassing the
// reason check since the originating node already enforced it.
func (inv *Inventory) Apply(change types.StockChange) {
	inv.mu.Lock()
	inv.levels[Key{StoreId: change.StoreId, ProductId: change.ProductId}] = change.Quantity
	inv.mu.Unlock()
}

// ByStore returns a snapshot of every level in one store.
func (inv *Inventory) ByStore(storeId string) map[types.ProductId]uint16 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := map[types.ProductId]uint16{}
	for key, qty := range inv.levels {
		if key.StoreId == storeId {
			out[key.ProductId] = qty
		}
	}
	return out
}

// Snapshot copies the full level table for persistence.
func (inv *Inventory) Snapshot() []types.StockChange {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]types.StockChange, 0, len(inv.levels))
	for key, qty := range inv.levels {
		out = append(out, types.StockChange{
			StoreId:   key.StoreId,
			ProductId: key.ProductId,
			Quantity:  qty,
			Reason:    "snapshot",
		})
	}
	return out
}

// Restore loads a persisted snapshot.
func (inv *Inventory) Restore(levels []types.StockChange) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, lvl := range levels {
		inv.levels[Key{StoreId: lvl.StoreId, ProductId: lvl.ProductId}] = lvl.Quantity
	}
}
