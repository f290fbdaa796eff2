package inventory

import (
	"errors"
	"testing"

	"github.com/windora/fanstore/pkg/types"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in      int
		want    uint16
		clamped bool
	}{
		{0, 0, false},
		{25, 25, false},
		{50, 50, false},
		{51, 50, true},
		{75, 50, true},
		{-1, 0, true},
		{-100, 0, true},
	}
	for _, tc := range tests {
		got, clamped := Clamp(tc.in)
		if got != tc.want || clamped != tc.clamped {
			t.Errorf("Clamp(%d) = %d,%v want %d,%v", tc.in, got, clamped, tc.want, tc.clamped)
		}
	}
}

func TestSetRequiresReason(t *testing.T) {
	inv := NewInventory()
	key := Key{StoreId: "sthlm", ProductId: 100}

	_, _, err := inv.Set(key, 10, "")
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if inv.Get(key) != 0 {
		t.Error("a rejected update must not change state")
	}
}

func TestSetClampsAndWarns(t *testing.T) {
	inv := NewInventory()
	key := Key{StoreId: "sthlm", ProductId: 100}

	stored, clamped, err := inv.Set(key, 75, "recount")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != MaxQuantity || !clamped {
		t.Errorf("expected clamp to %d with warning, got %d,%v", MaxQuantity, stored, clamped)
	}
	if inv.Get(key) != MaxQuantity {
		t.Errorf("expected stored level %d, got %d", MaxQuantity, inv.Get(key))
	}
}

func TestSetRejectsInvalidKey(t *testing.T) {
	inv := NewInventory()
	if _, _, err := inv.Set(Key{StoreId: "", ProductId: 1}, 1, "recount"); err == nil {
		t.Error("expected error for missing store id")
	}
	if _, _, err := inv.Set(Key{StoreId: "sthlm", ProductId: 0}, 1, "recount"); err == nil {
		t.Error("expected error for missing product id")
	}
}

type recordingHandler struct {
	changes []types.StockChange
}

func (h *recordingHandler) StockChanged(change types.StockChange) {
	h.changes = append(h.changes, change)
}

func TestSetEmitsChange(t *testing.T) {
	inv := NewInventory()
	handler := &recordingHandler{}
	inv.ChangeHandler = handler

	if _, _, err := inv.Set(Key{StoreId: "sthlm", ProductId: 100}, 60, "delivery"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(handler.changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(handler.changes))
	}
	change := handler.changes[0]
	if change.Quantity != MaxQuantity {
		t.Errorf("the emitted change must carry the clamped value, got %d", change.Quantity)
	}
	if change.Reason != "delivery" {
		t.Errorf("expected reason preserved, got %q", change.Reason)
	}
}

func TestApplyBypassesReason(t *testing.T) {
	inv := NewInventory()
	inv.Apply(types.StockChange{StoreId: "gbg", ProductId: 5, Quantity: 12})
	if inv.Get(Key{StoreId: "gbg", ProductId: 5}) != 12 {
		t.Error("expected replayed change applied")
	}
}

func TestByStore(t *testing.T) {
	inv := NewInventory()
	inv.Apply(types.StockChange{StoreId: "sthlm", ProductId: 1, Quantity: 3})
	inv.Apply(types.StockChange{StoreId: "sthlm", ProductId: 2, Quantity: 7})
	inv.Apply(types.StockChange{StoreId: "gbg", ProductId: 1, Quantity: 9})

	levels := inv.ByStore("sthlm")
	if len(levels) != 2 || levels[1] != 3 || levels[2] != 7 {
		t.Errorf("unexpected store levels: %v", levels)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	inv := NewInventory()
	inv.Apply(types.StockChange{StoreId: "sthlm", ProductId: 1, Quantity: 3})
	inv.Apply(types.StockChange{StoreId: "gbg", ProductId: 2, Quantity: 8})

	restored := NewInventory()
	restored.Restore(inv.Snapshot())
	if restored.Get(Key{StoreId: "sthlm", ProductId: 1}) != 3 {
		t.Error("expected level restored")
	}
	if restored.Get(Key{StoreId: "gbg", ProductId: 2}) != 8 {
		t.Error("expected level restored")
	}
}
