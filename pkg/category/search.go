package category

import (
	"strings"

	"github.com/windora/fanstore/pkg/types"
)

// FilterTree projects the forest down to nodes matching term. The match is a
// case-insensitive substring test against name and slug. A node that matches
// directly keeps its full subtree; a node kept only because a descendant
// matched keeps just the matching part of its children. A blank or
// whitespace-only term returns roots unchanged. The input trees are never
// mutated, kept-but-pruned nodes are shallow copies.
func FilterTree(roots []*types.Category, term string) []*types.Category {
	term = strings.TrimSpace(term)
	if term == "" {
		return roots
	}
	return filterNodes(roots, strings.ToLower(term))
}

func filterNodes(nodes []*types.Category, term string) []*types.Category {
	out := make([]*types.Category, 0, len(nodes))
	for _, node := range nodes {
		if matches(node, term) {
			out = append(out, node)
			continue
		}
		kept := filterNodes(node.Children, term)
		if len(kept) > 0 {
			pruned := *node
			pruned.Children = kept
			out = append(out, &pruned)
		}
	}
	return out
}

// ActiveOnly projects the forest down to active nodes. Deactivating a node
// hides its whole subtree; the storefront serves this view while the admin
// endpoints keep every record visible. Pruned parents are shallow copies.
func ActiveOnly(nodes []*types.Category) []*types.Category {
	out := make([]*types.Category, 0, len(nodes))
	for _, node := range nodes {
		if !node.IsActive {
			continue
		}
		kept := ActiveOnly(node.Children)
		if len(kept) == len(node.Children) {
			out = append(out, node)
			continue
		}
		pruned := *node
		pruned.Children = kept
		out = append(out, &pruned)
	}
	return out
}

func matches(node *types.Category, term string) bool {
	if strings.Contains(strings.ToLower(node.Name), term) {
		return true
	}
	return node.Slug != "" && strings.Contains(strings.ToLower(node.Slug), term)
}
