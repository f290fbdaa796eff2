package category

import "github.com/windora/fanstore/pkg/types"

// Expansion tracks which tree nodes render their children. Purely
// presentational, any subset is valid.
type Expansion struct {
	forest   *Forest
	expanded map[types.CategoryId]struct{}
}

// NewExpansion starts fully expanded: every node of the loaded trees is in
// the set so the first paint shows the whole forest.
func NewExpansion(forest *Forest) *Expansion {
	e := &Expansion{
		forest:   forest,
		expanded: map[types.CategoryId]struct{}{},
	}
	e.ExpandAll(forest.AllIds())
	return e
}

func (e *Expansion) ToggleExpand(id types.CategoryId) {
	if _, ok := e.expanded[id]; ok {
		delete(e.expanded, id)
	} else {
		e.expanded[id] = struct{}{}
	}
}

func (e *Expansion) ExpandAll(ids []types.CategoryId) {
	for _, id := range ids {
		e.expanded[id] = struct{}{}
	}
}

func (e *Expansion) CollapseAll() {
	e.expanded = map[types.CategoryId]struct{}{}
}

func (e *Expansion) IsExpanded(id types.CategoryId) bool {
	_, ok := e.expanded[id]
	return ok
}

// RevealSelection unions the full ancestor chain of every selected id into
// the expanded set, so selected leaves are always visible without a manual
// expand. Wire it to Selection.OnChange.
func (e *Expansion) RevealSelection(s *Selection) {
	for _, id := range s.Ids() {
		for _, ancestor := range e.forest.Ancestors(id) {
			e.expanded[ancestor] = struct{}{}
		}
	}
}
