package category

import (
	"testing"
)

func TestExpansionStartsFullyExpanded(t *testing.T) {
	f := selectionForest()
	e := NewExpansion(f)

	for _, id := range f.AllIds() {
		if !e.IsExpanded(id) {
			t.Errorf("expected node %d expanded on first load", id)
		}
	}
}

func TestExpansionToggle(t *testing.T) {
	f := selectionForest()
	e := NewExpansion(f)

	e.ToggleExpand(1)
	if e.IsExpanded(1) {
		t.Fatal("expected node 1 collapsed after toggle")
	}
	e.ToggleExpand(1)
	if !e.IsExpanded(1) {
		t.Fatal("expected node 1 expanded after second toggle")
	}
}

func TestExpansionRevealSelection(t *testing.T) {
	f := selectionForest()
	e := NewExpansion(f)
	e.CollapseAll()

	s := NewSelection(f)
	s.OnChange(func() { e.RevealSelection(s) })
	s.Toggle(5)

	// ancestors 3 and 1 must open so the selected leaf is visible
	if !e.IsExpanded(3) || !e.IsExpanded(1) {
		t.Error("expected ancestors of the selection expanded")
	}
	// the leaf itself need not be expanded, nor unrelated roots
	if e.IsExpanded(2) {
		t.Error("unrelated root should stay collapsed")
	}
}

func TestExpansionCollapseAll(t *testing.T) {
	f := selectionForest()
	e := NewExpansion(f)
	e.CollapseAll()

	for _, id := range f.AllIds() {
		if e.IsExpanded(id) {
			t.Errorf("expected node %d collapsed", id)
		}
	}
}
