package catalog

import (
	"testing"

	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/filters"
	"github.com/windora/fanstore/pkg/types"
)

func testForest() *category.Forest {
	ceiling := types.CategoryId(1)
	f := category.NewForest()
	f.Load(types.CategoryFanType, []types.Category{
		{Id: 1, Name: "Ceiling Fans", Type: types.CategoryFanType, DisplayOrder: 1},
		{Id: 2, Name: "Smart Ceiling Fans", Type: types.CategoryFanType, ParentId: &ceiling, DisplayOrder: 1},
		{Id: 3, Name: "Tower Fans", Type: types.CategoryFanType, DisplayOrder: 2},
	})
	return f
}

func testIndex() *Index {
	idx := NewIndex(testForest())
	idx.Upsert(
		&types.Product{Id: 100, Sku: "CF-100", Name: "Breeze Classic", Slug: "breeze-classic", BrandId: 1,
			Price: 150000, Power: 60, BladeCount: 3, CategoryIds: []types.CategoryId{1}},
		&types.Product{Id: 101, Sku: "CF-101", Name: "Breeze Smart", Slug: "breeze-smart", BrandId: 1,
			Price: 450000, Power: 45, BladeCount: 5, RemoteControl: true, Timer: true,
			TagCodes: []string{"quiet"}, CategoryIds: []types.CategoryId{2}},
		&types.Product{Id: 102, Sku: "TW-102", Name: "Slim Tower", Slug: "slim-tower", BrandId: 2,
			Price: 90000, Power: 35, Oscillation: true, CategoryIds: []types.CategoryId{3}},
		&types.Product{Id: 103, Sku: "AC-103", Name: "Universal Remote", Slug: "universal-remote", BrandId: 2,
			Price: 25000, IsAccessory: true, CompatibleFanTypeIds: []types.CategoryId{1, 2}},
	)
	return idx
}

func matchIds(idx *Index, state *filters.State) map[types.ProductId]bool {
	out := map[types.ProductId]bool{}
	for _, p := range idx.Match(state) {
		out[p.Id] = true
	}
	return out
}

func TestMatchNoFiltersReturnsEverything(t *testing.T) {
	idx := testIndex()
	if got := len(idx.Match(filters.NewState())); got != 4 {
		t.Errorf("expected 4 matches, got %d", got)
	}
}

func TestMatchCategoryIncludesDescendants(t *testing.T) {
	idx := testIndex()
	s := filters.NewState()
	s.CategoryId = 1

	got := matchIds(idx, s)
	if !got[100] || !got[101] {
		t.Errorf("expected products in the category and its subcategories, got %v", got)
	}
	if got[102] || got[103] {
		t.Errorf("unrelated products matched: %v", got)
	}
}

func TestMatchFacets(t *testing.T) {
	idx := testIndex()
	tests := []struct {
		name   string
		mutate func(*filters.State)
		want   []types.ProductId
	}{
		{"brand", func(s *filters.State) { s.BrandId = 2 }, []types.ProductId{102, 103}},
		{"price range", func(s *filters.State) { s.MinPrice = 100000; s.MaxPrice = 500000 }, []types.ProductId{100, 101}},
		{"blade count", func(s *filters.State) { s.BladeCount = 5 }, []types.ProductId{101}},
		{"remote control", func(s *filters.State) { s.RemoteControl = true }, []types.ProductId{101}},
		{"oscillation", func(s *filters.State) { s.Oscillation = true }, []types.ProductId{102}},
		{"power range", func(s *filters.State) { s.MinPower = 40; s.MaxPower = 50 }, []types.ProductId{101}},
		{"tag", func(s *filters.State) { s.Tags = []string{"quiet"} }, []types.ProductId{101}},
		{"compatible fan type", func(s *filters.State) { s.CompatibleFanTypeId = 2 }, []types.ProductId{103}},
		{"keyword name", func(s *filters.State) { s.Keyword = "breeze" }, []types.ProductId{100, 101}},
		{"keyword sku", func(s *filters.State) { s.Keyword = "tw-102" }, []types.ProductId{102}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := filters.NewState()
			tc.mutate(s)
			got := matchIds(idx, s)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d matches, got %v", len(tc.want), got)
			}
			for _, id := range tc.want {
				if !got[id] {
					t.Errorf("expected product %d to match", id)
				}
			}
		})
	}
}

func TestMatchCombinesFacets(t *testing.T) {
	idx := testIndex()
	s := filters.NewState()
	s.BrandId = 1
	s.RemoteControl = true

	got := matchIds(idx, s)
	if len(got) != 1 || !got[101] {
		t.Errorf("expected only product 101, got %v", got)
	}
}

func TestUpsertReplacesAndDeletes(t *testing.T) {
	idx := testIndex()
	idx.Upsert(&types.Product{Id: 100, Sku: "CF-100", Name: "Breeze Classic v2", Price: 160000})
	p, ok := idx.Get(100)
	if !ok || p.Name != "Breeze Classic v2" {
		t.Fatal("expected upsert to replace the product")
	}

	idx.Delete(100)
	if _, ok := idx.Get(100); ok {
		t.Error("expected product gone after delete")
	}
	if _, ok := idx.GetBySku("CF-100"); ok {
		t.Error("expected sku index cleaned up after delete")
	}
}

func TestUpsertDeletedFlagRemoves(t *testing.T) {
	idx := testIndex()
	idx.Upsert(&types.Product{Id: 101, Sku: "CF-101", Deleted: true})
	if _, ok := idx.Get(101); ok {
		t.Error("expected tombstoned product removed")
	}
}

func TestSortProductsDefaults(t *testing.T) {
	products := []*types.Product{
		{Id: 1, Name: "B", Price: 300},
		{Id: 3, Name: "A", Price: 100},
		{Id: 2, Name: "C", Price: 200},
	}

	SortProducts(products, filters.DefaultSortBy, filters.DefaultOrder)
	if products[0].Id != 3 || products[1].Id != 2 || products[2].Id != 1 {
		t.Errorf("expected id descending, got %d,%d,%d", products[0].Id, products[1].Id, products[2].Id)
	}

	SortProducts(products, "Price", "ASC")
	if products[0].Price != 100 || products[2].Price != 300 {
		t.Errorf("expected price ascending, got %d..%d", products[0].Price, products[2].Price)
	}

	SortProducts(products, "Name", "ASC")
	if products[0].Name != "A" || products[2].Name != "C" {
		t.Errorf("expected name ascending, got %s..%s", products[0].Name, products[2].Name)
	}

	// unknown key falls back to id
	SortProducts(products, "Votes", "ASC")
	if products[0].Id != 1 {
		t.Errorf("expected fallback to id ascending, got %d first", products[0].Id)
	}
}

func TestPage(t *testing.T) {
	products := make([]*types.Product, 0, 45)
	for i := 1; i <= 45; i++ {
		products = append(products, &types.Product{Id: types.ProductId(i)})
	}

	first := Page(products, 0, 20)
	if len(first) != 20 || first[0].Id != 1 {
		t.Errorf("unexpected first page: len %d", len(first))
	}
	last := Page(products, 2, 20)
	if len(last) != 5 || last[0].Id != 41 {
		t.Errorf("unexpected last page: len %d", len(last))
	}
	if got := Page(products, 9, 20); len(got) != 0 {
		t.Errorf("expected empty page beyond the end, got %d", len(got))
	}
}
