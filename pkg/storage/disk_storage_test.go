package storage

import (
	"os"
	"path"
	"testing"

	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/stores"
	"github.com/windora/fanstore/pkg/types"
)

func TestSaveJsonRoundTrip(t *testing.T) {
	d := NewDiskStorage(t.TempDir())

	saved := map[string]int{"a": 1, "b": 2}
	if err := d.SaveJson(saved, "test.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := map[string]int{}
	if err := d.LoadJson(&loaded, "test.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded["a"] != 1 || loaded["b"] != 2 {
		t.Errorf("unexpected content: %v", loaded)
	}

	// no temp file may linger after a save
	_, tmp := d.GetFileName("test.json")
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestLoadMissingFile(t *testing.T) {
	d := NewDiskStorage(t.TempDir())
	var out map[string]int
	if err := d.LoadJson(&out, "missing.json"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestGzippedRoundTrip(t *testing.T) {
	d := NewDiskStorage(t.TempDir())

	saved := []string{"one", "two", "three"}
	if err := d.SaveGzippedJson(saved, "test.jz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var loaded []string
	if err := d.LoadGzippedJson(&loaded, "test.jz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 3 || loaded[2] != "three" {
		t.Errorf("unexpected content: %v", loaded)
	}
}

func TestProductSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := NewDiskStorage(dir)

	idx := catalog.NewIndex(category.NewForest())
	idx.Upsert(
		&types.Product{Id: 1, Sku: "CF-1", Name: "Breeze"},
		&types.Product{Id: 2, Sku: "CF-2", Name: "Gale"},
	)
	if err := d.SaveProducts(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := catalog.NewIndex(category.NewForest())
	if err := NewDiskStorage(dir).LoadProducts(restored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", restored.Len())
	}
	if p, ok := restored.GetBySku("CF-2"); !ok || p.Name != "Gale" {
		t.Error("expected product restored by sku")
	}
}

func TestLoadProductsMissingFileIsFine(t *testing.T) {
	d := NewDiskStorage(t.TempDir())
	idx := catalog.NewIndex(category.NewForest())
	if err := d.LoadProducts(idx); err != nil {
		t.Errorf("a missing snapshot is a fresh start, got %v", err)
	}
}

func TestCategorySnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := NewDiskStorage(dir)

	snapshot := CategorySnapshot{
		types.CategoryFanType: {
			{Id: 1, Name: "Ceiling Fans", Type: types.CategoryFanType, DisplayOrder: 1},
		},
	}
	if err := d.SaveCategories(snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forest := category.NewForest()
	loaded, err := NewDiskStorage(dir).LoadCategories(forest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded[types.CategoryFanType]) != 1 {
		t.Error("expected flat list restored")
	}
	if _, ok := forest.Get(1); !ok {
		t.Error("expected tree rebuilt on load")
	}
}

func TestInventorySnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := NewDiskStorage(dir)

	inv := inventory.NewInventory()
	inv.Apply(types.StockChange{StoreId: "sthlm", ProductId: 1, Quantity: 5})
	if err := d.SaveInventory(inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := inventory.NewInventory()
	if err := NewDiskStorage(dir).LoadInventory(restored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.Get(inventory.Key{StoreId: "sthlm", ProductId: 1}) != 5 {
		t.Error("expected level restored")
	}
}

func TestStoresSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := NewDiskStorage(dir)

	registry := stores.NewRegistry()
	registry.Upsert(&stores.Store{Id: "sthlm", DisplayName: "Stockholm City"})
	if err := d.SaveStores(registry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := stores.NewRegistry()
	if err := NewDiskStorage(dir).LoadStores(restored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := restored.Get("sthlm"); !ok {
		t.Error("expected store restored")
	}
}

func TestSaveJsonOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	d := NewDiskStorage(dir)

	if err := d.SaveJson([]int{1, 2, 3}, "doc.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.SaveJson([]int{4}, "doc.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out []int
	if err := d.LoadJson(&out, "doc.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != 4 {
		t.Errorf("expected latest snapshot, got %v", out)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if path.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}
