package storage

import (
	"log"
	"os"

	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/stores"
	"github.com/windora/fanstore/pkg/types"
)

// CategorySnapshot stores every type's flat list; trees rebuild on load.
type CategorySnapshot map[types.CategoryType][]types.Category

func (d *DiskStorage) SaveProducts(idx *catalog.Index) error {
	return d.SaveGzippedJson(idx.All(), productsFile)
}

func (d *DiskStorage) LoadProducts(idx *catalog.Index) error {
	var products []*types.Product
	if err := d.LoadGzippedJson(&products, productsFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	idx.Upsert(products...)
	log.Printf("Loaded %d products", len(products))
	return nil
}

func (d *DiskStorage) SaveCategories(snapshot CategorySnapshot) error {
	return d.SaveJson(snapshot, categoriesFile)
}

func (d *DiskStorage) LoadCategories(forest *category.Forest) (CategorySnapshot, error) {
	snapshot := CategorySnapshot{}
	if err := d.LoadJson(&snapshot, categoriesFile); err != nil {
		if os.IsNotExist(err) {
			return snapshot, nil
		}
		return snapshot, err
	}
	for ct, flat := range snapshot {
		forest.Load(ct, flat)
	}
	return snapshot, nil
}

func (d *DiskStorage) SaveInventory(inv *inventory.Inventory) error {
	return d.SaveJson(inv.Snapshot(), inventoryFile)
}

func (d *DiskStorage) LoadInventory(inv *inventory.Inventory) error {
	var levels []types.StockChange
	if err := d.LoadJson(&levels, inventoryFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	inv.Restore(levels)
	return nil
}

func (d *DiskStorage) SaveStores(registry *stores.Registry) error {
	return d.SaveJson(registry.All(), storesFile)
}

func (d *DiskStorage) LoadStores(registry *stores.Registry) error {
	var list []*stores.Store
	if err := d.LoadJson(&list, storesFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	registry.Restore(list)
	return nil
}
