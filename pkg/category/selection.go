package category

import "github.com/windora/fanstore/pkg/types"

// SelectedCategory is a selected id resolved against the loaded trees.
type SelectedCategory struct {
	Id   types.CategoryId   `json:"id"`
	Name string             `json:"name"`
	Type types.CategoryType `json:"type"`
}

// Selection tracks the category ids chosen while composing a product's
// classification. Resolution always goes through the forest, ids that no
// longer resolve (stale after a type reload) are silently omitted.
type Selection struct {
	forest   *Forest
	selected map[types.CategoryId]struct{}
	required map[types.CategoryType]struct{}
	hidden   map[types.CategoryType]struct{}
	onChange []func()
}

// NewSelection creates a selection requiring at least one FAN_TYPE category,
// the domain rule for every product.
func NewSelection(forest *Forest) *Selection {
	return &Selection{
		forest:   forest,
		selected: map[types.CategoryId]struct{}{},
		required: map[types.CategoryType]struct{}{types.CategoryFanType: {}},
		hidden:   map[types.CategoryType]struct{}{},
	}
}

// RequireTypes replaces the set of types the gate demands.
func (s *Selection) RequireTypes(cts ...types.CategoryType) {
	s.required = map[types.CategoryType]struct{}{}
	for _, ct := range cts {
		s.required[ct] = struct{}{}
	}
}

// HideTypes excludes the given types from resolution entirely, used when a
// form should not expose e.g. accessory facets.
func (s *Selection) HideTypes(cts ...types.CategoryType) {
	s.hidden = map[types.CategoryType]struct{}{}
	for _, ct := range cts {
		s.hidden[ct] = struct{}{}
	}
}

// OnChange registers a hook fired after every mutation, the expansion state
// subscribes here to auto-expand ancestors.
func (s *Selection) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *Selection) notify() {
	for _, fn := range s.onChange {
		fn()
	}
}

// Toggle inserts id if absent and removes it if present.
func (s *Selection) Toggle(id types.CategoryId) {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	s.notify()
}

// Remove drops id from the selection, the "×" affordance on the summary.
func (s *Selection) Remove(id types.CategoryId) {
	delete(s.selected, id)
	s.notify()
}

func (s *Selection) Clear() {
	s.selected = map[types.CategoryId]struct{}{}
	s.notify()
}

func (s *Selection) Has(id types.CategoryId) bool {
	_, ok := s.selected[id]
	return ok
}

func (s *Selection) Ids() []types.CategoryId {
	out := make([]types.CategoryId, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	return out
}

// SelectedCategories resolves every selected id against the loaded trees in
// walk order. Hidden types and unresolvable ids are omitted.
func (s *Selection) SelectedCategories() []SelectedCategory {
	out := make([]SelectedCategory, 0, len(s.selected))
	for _, ct := range types.AllCategoryTypes {
		if _, hide := s.hidden[ct]; hide {
			continue
		}
		Walk(s.forest.Roots(ct), func(node *types.Category, _ int) bool {
			if _, ok := s.selected[node.Id]; ok {
				out = append(out, SelectedCategory{Id: node.Id, Name: node.Name, Type: node.Type})
			}
			return true
		})
	}
	return out
}

// HasRequiredType reports whether at least one selected category resolves to
// a required type. The enclosing form may not submit until this is true.
func (s *Selection) HasRequiredType() bool {
	for _, sel := range s.SelectedCategories() {
		if _, ok := s.required[sel.Type]; ok {
			return true
		}
	}
	return false
}

// IsAccessory is re-derived from the current selection on every call, it is
// never stored so it cannot drift from the selected set.
func (s *Selection) IsAccessory() bool {
	for _, sel := range s.SelectedCategories() {
		if sel.Type.IsAccessory() {
			return true
		}
	}
	return false
}
