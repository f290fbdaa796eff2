package category

import (
	"sort"

	"github.com/windora/fanstore/pkg/types"
)

// BuildTree nests a flat per-type category list into its forest of roots.
// Siblings are ordered by DisplayOrder ascending (Id breaks ties so repeated
// builds are stable). A record whose parent is missing from the input is
// promoted to a root instead of being dropped, and so is a record whose
// parent chain loops back onto itself. Input records are copied, never
// mutated.
func BuildTree(flat []types.Category) []*types.Category {
	nodes := make(map[types.CategoryId]*types.Category, len(flat))
	order := make([]types.CategoryId, 0, len(flat))
	for _, c := range flat {
		copied := c
		copied.Children = nil
		nodes[c.Id] = &copied
		order = append(order, c.Id)
	}

	roots := make([]*types.Category, 0)
	for _, id := range order {
		node := nodes[id]
		if node.ParentId == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentId]
		if !ok || parent.Type != node.Type || inCycle(nodes, id) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortSiblings(roots)
	for _, node := range nodes {
		sortSiblings(node.Children)
	}
	return roots
}

// inCycle reports whether following parent links from id leads back to id.
// Such a node would never be reachable from a root, so the builder promotes
// every member of the loop instead of attaching them to each other.
func inCycle(nodes map[types.CategoryId]*types.Category, id types.CategoryId) bool {
	curr := nodes[id]
	for range nodes {
		if curr.ParentId == nil {
			return false
		}
		parent, ok := nodes[*curr.ParentId]
		if !ok || parent.Type != curr.Type {
			return false
		}
		if parent.Id == id {
			return true
		}
		curr = parent
	}
	return curr.ParentId != nil
}

func sortSiblings(nodes []*types.Category) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].DisplayOrder != nodes[j].DisplayOrder {
			return nodes[i].DisplayOrder < nodes[j].DisplayOrder
		}
		return nodes[i].Id < nodes[j].Id
	})
}

// Walk visits every node of the given roots depth-first, parents before
// children. Returning false from the visitor stops the walk. All recursive
// tree operations (flattening, counting, ancestor lookup, search) go through
// here so traversal order is defined once.
func Walk(roots []*types.Category, visit func(node *types.Category, depth int) bool) {
	var rec func(nodes []*types.Category, depth int) bool
	rec = func(nodes []*types.Category, depth int) bool {
		for _, node := range nodes {
			if !visit(node, depth) {
				return false
			}
			if !rec(node.Children, depth+1) {
				return false
			}
		}
		return true
	}
	rec(roots, 0)
}

// Flatten returns every node of the forest in walk order.
func Flatten(roots []*types.Category) []*types.Category {
	out := make([]*types.Category, 0)
	Walk(roots, func(node *types.Category, _ int) bool {
		out = append(out, node)
		return true
	})
	return out
}

// Forest holds the loaded tree of every category type together with the
// indexes needed to resolve ids and ancestor chains across types.
type Forest struct {
	trees  map[types.CategoryType][]*types.Category
	byId   map[types.CategoryId]*types.Category
	parent map[types.CategoryId]types.CategoryId
}

func NewForest() *Forest {
	return &Forest{
		trees:  map[types.CategoryType][]*types.Category{},
		byId:   map[types.CategoryId]*types.Category{},
		parent: map[types.CategoryId]types.CategoryId{},
	}
}

// Load replaces the tree for one category type. Index entries of the
// previous tree for that type are dropped first so stale ids resolve to
// nothing rather than to removed nodes.
func (f *Forest) Load(ct types.CategoryType, flat []types.Category) []*types.Category {
	if old, ok := f.trees[ct]; ok {
		for _, node := range Flatten(old) {
			delete(f.byId, node.Id)
			delete(f.parent, node.Id)
		}
	}
	roots := BuildTree(flat)
	f.trees[ct] = roots
	Walk(roots, func(node *types.Category, _ int) bool {
		f.byId[node.Id] = node
		for _, child := range node.Children {
			f.parent[child.Id] = node.Id
		}
		return true
	})
	return roots
}

func (f *Forest) Roots(ct types.CategoryType) []*types.Category {
	return f.trees[ct]
}

func (f *Forest) Get(id types.CategoryId) (*types.Category, bool) {
	node, ok := f.byId[id]
	return node, ok
}

// Ancestors returns the parent chain of id, nearest parent first. Unknown
// ids yield an empty chain.
func (f *Forest) Ancestors(id types.CategoryId) []types.CategoryId {
	chain := make([]types.CategoryId, 0, 2)
	curr := id
	for {
		parentId, ok := f.parent[curr]
		if !ok {
			return chain
		}
		chain = append(chain, parentId)
		curr = parentId
	}
}

// Descendants returns id plus every node below it, or nil when id is not
// loaded.
func (f *Forest) Descendants(id types.CategoryId) []types.CategoryId {
	node, ok := f.byId[id]
	if !ok {
		return nil
	}
	out := make([]types.CategoryId, 0, 4)
	Walk([]*types.Category{node}, func(n *types.Category, _ int) bool {
		out = append(out, n.Id)
		return true
	})
	return out
}

// Depth is the number of ancestors above id: 0 for roots.
func (f *Forest) Depth(id types.CategoryId) int {
	return len(f.Ancestors(id))
}

// AllIds returns the ids of every loaded node across all types.
func (f *Forest) AllIds() []types.CategoryId {
	out := make([]types.CategoryId, 0, len(f.byId))
	for _, ct := range types.AllCategoryTypes {
		Walk(f.trees[ct], func(node *types.Category, _ int) bool {
			out = append(out, node.Id)
			return true
		})
	}
	return out
}

// SelectableParents lists nodes that may be chosen as a parent in the admin
// form. Only two levels of parents are exposed, deeper nodes exist in the
// data but are not offered.
func (f *Forest) SelectableParents(ct types.CategoryType) []*types.Category {
	out := make([]*types.Category, 0)
	Walk(f.trees[ct], func(node *types.Category, depth int) bool {
		if depth < 2 {
			out = append(out, node)
		}
		return true
	})
	return out
}
