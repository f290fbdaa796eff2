package catalog

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/filters"
	"github.com/windora/fanstore/pkg/types"
)

var (
	noUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanstore_catalog_upserts_total",
		Help: "The total number of product upserts",
	})
	noDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanstore_catalog_deletes_total",
		Help: "The total number of product deletions",
	})
	noMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanstore_catalog_queries_total",
		Help: "The total number of filter queries",
	})
)

// ChangeHandler receives catalog mutations, the rabbit master publishes them
// to reader nodes.
type ChangeHandler interface {
	ProductsUpserted(products []*types.Product)
	ProductDeleted(id types.ProductId)
}

// Index is the in-memory product catalog. Category-aware filtering resolves
// a selected category to itself plus all descendants through the forest.
type Index struct {
	mu            sync.RWMutex
	products      map[types.ProductId]*types.Product
	bySku         map[string]types.ProductId
	Categories    *category.Forest
	ChangeHandler ChangeHandler
}

func NewIndex(forest *category.Forest) *Index {
	return &Index{
		products:   map[types.ProductId]*types.Product{},
		bySku:      map[string]types.ProductId{},
		Categories: forest,
	}
}

func (idx *Index) Upsert(products ...*types.Product) {
	idx.mu.Lock()
	for _, p := range products {
		if p.Deleted {
			idx.removeLocked(p.Id)
			continue
		}
		idx.products[p.Id] = p
		idx.bySku[p.Sku] = p.Id
		noUpserts.Inc()
	}
	idx.mu.Unlock()
	if idx.ChangeHandler != nil {
		idx.ChangeHandler.ProductsUpserted(products)
	}
}

func (idx *Index) Delete(id types.ProductId) {
	idx.mu.Lock()
	idx.removeLocked(id)
	idx.mu.Unlock()
	if idx.ChangeHandler != nil {
		idx.ChangeHandler.ProductDeleted(id)
	}
}

func (idx *Index) removeLocked(id types.ProductId) {
	if existing, ok := idx.products[id]; ok {
		delete(idx.bySku, existing.Sku)
		delete(idx.products, id)
		noDeletes.Inc()
	}
}

func (idx *Index) Get(id types.ProductId) (*types.Product, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.products[id]
	return p, ok
}

func (idx *Index) GetBySku(sku string) (*types.Product, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if id, ok := idx.bySku[sku]; ok {
		p, found := idx.products[id]
		return p, found
	}
	return nil, false
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.products)
}

// All returns a snapshot slice of every product, for persistence.
func (idx *Index) All() []*types.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*types.Product, 0, len(idx.products))
	for _, p := range idx.products {
		out = append(out, p)
	}
	return out
}

// Match returns every product matching the full facet set of state,
// unsorted.
func (idx *Index) Match(state *filters.State) []*types.Product {
	noMatches.Inc()
	categoryIds := idx.categoryScope(state.CategoryId)

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*types.Product, 0)
	for _, p := range idx.products {
		if idx.matchProduct(p, state, categoryIds) {
			out = append(out, p)
		}
	}
	return out
}

// categoryScope resolves a category facet to the id set it covers: the node
// itself plus all descendants. Nil means the facet is unset.
func (idx *Index) categoryScope(id uint) map[types.CategoryId]struct{} {
	if id == 0 {
		return nil
	}
	scope := map[types.CategoryId]struct{}{types.CategoryId(id): {}}
	if idx.Categories != nil {
		for _, d := range idx.Categories.Descendants(types.CategoryId(id)) {
			scope[d] = struct{}{}
		}
	}
	return scope
}

func (idx *Index) matchProduct(p *types.Product, s *filters.State, categoryIds map[types.CategoryId]struct{}) bool {
	if s.BrandId != 0 && p.BrandId != s.BrandId {
		return false
	}
	if categoryIds != nil && !hasAnyCategory(p, categoryIds) {
		return false
	}
	if s.MinPrice != 0 && p.Price < s.MinPrice {
		return false
	}
	if s.MaxPrice != 0 && p.Price > s.MaxPrice {
		return false
	}
	if s.BladeCount != 0 && p.BladeCount != s.BladeCount {
		return false
	}
	if s.RemoteControl && !p.RemoteControl {
		return false
	}
	if s.Oscillation && !p.Oscillation {
		return false
	}
	if s.Timer && !p.Timer {
		return false
	}
	if s.MinPower != 0 && p.Power < s.MinPower {
		return false
	}
	if s.MaxPower != 0 && p.Power > s.MaxPower {
		return false
	}
	for _, code := range s.Tags {
		if !p.HasTag(code) {
			return false
		}
	}
	if s.SpaceId != 0 && p.SpaceId != types.CategoryId(s.SpaceId) {
		return false
	}
	if s.PurposeId != 0 && p.PurposeId != types.CategoryId(s.PurposeId) {
		return false
	}
	if s.TechnologyId != 0 && p.TechnologyId != types.CategoryId(s.TechnologyId) {
		return false
	}
	if s.CompatibleFanTypeId != 0 && !p.IsCompatibleWith(types.CategoryId(s.CompatibleFanTypeId)) {
		return false
	}
	if s.Keyword != "" && !matchesKeyword(p, s.Keyword) {
		return false
	}
	return true
}

func hasAnyCategory(p *types.Product, scope map[types.CategoryId]struct{}) bool {
	for _, id := range p.CategoryIds {
		if _, ok := scope[id]; ok {
			return true
		}
	}
	return false
}

func matchesKeyword(p *types.Product, keyword string) bool {
	term := strings.ToLower(strings.TrimSpace(keyword))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Slug), term) ||
		strings.Contains(strings.ToLower(p.Sku), term)
}
