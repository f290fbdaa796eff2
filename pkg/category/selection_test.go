package category

import (
	"testing"

	"github.com/windora/fanstore/pkg/types"
)

func selectionForest() *Forest {
	f := NewForest()
	f.Load(types.CategoryFanType, fanTypeFixture())
	f.Load(types.CategorySpace, []types.Category{
		{Id: 10, Name: "Living Room", Type: types.CategorySpace, DisplayOrder: 1},
		{Id: 11, Name: "Bedroom", Type: types.CategorySpace, DisplayOrder: 2},
	})
	f.Load(types.CategoryAccessoryType, []types.Category{
		{Id: 20, Name: "Remote Controls", Type: types.CategoryAccessoryType, DisplayOrder: 1},
	})
	return f
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection(selectionForest())

	s.Toggle(1)
	if !s.Has(1) {
		t.Fatal("expected id 1 selected after toggle")
	}
	s.Toggle(1)
	if s.Has(1) {
		t.Fatal("expected id 1 deselected after second toggle")
	}
}

func TestSelectionRequiredTypeGate(t *testing.T) {
	s := NewSelection(selectionForest())

	if s.HasRequiredType() {
		t.Fatal("empty selection must not satisfy the gate")
	}
	s.Toggle(10) // a SPACE category alone is not enough
	if s.HasRequiredType() {
		t.Fatal("selection without a fan type must not satisfy the gate")
	}
	s.Toggle(3)
	if !s.HasRequiredType() {
		t.Fatal("a selected fan type should satisfy the gate")
	}
	s.Remove(3)
	if s.HasRequiredType() {
		t.Fatal("removing the fan type should re-close the gate")
	}
}

func TestSelectionResolvesInWalkOrder(t *testing.T) {
	s := NewSelection(selectionForest())
	s.Toggle(11)
	s.Toggle(5)
	s.Toggle(2)

	got := s.SelectedCategories()
	if len(got) != 3 {
		t.Fatalf("expected 3 resolved categories, got %d", len(got))
	}
	// fan types come first (walk order 2 before 5), then spaces
	if got[0].Id != 2 || got[1].Id != 5 || got[2].Id != 11 {
		t.Errorf("unexpected order: %d, %d, %d", got[0].Id, got[1].Id, got[2].Id)
	}
	if got[0].Name != "Tower Fans" {
		t.Errorf("expected resolved name, got %q", got[0].Name)
	}
}

func TestSelectionOmitsStaleIds(t *testing.T) {
	f := selectionForest()
	s := NewSelection(f)
	s.Toggle(5)

	f.Load(types.CategoryFanType, []types.Category{
		{Id: 1, Name: "Ceiling Fans", Type: types.CategoryFanType, DisplayOrder: 1},
	})
	if got := s.SelectedCategories(); len(got) != 0 {
		t.Errorf("stale id should not resolve, got %v", got)
	}
	if s.HasRequiredType() {
		t.Error("stale fan type must not satisfy the gate")
	}
}

func TestSelectionHiddenTypes(t *testing.T) {
	s := NewSelection(selectionForest())
	s.HideTypes(types.CategorySpace)
	s.Toggle(10)
	s.Toggle(1)

	got := s.SelectedCategories()
	if len(got) != 1 || got[0].Id != 1 {
		t.Errorf("hidden type should be omitted from resolution, got %v", got)
	}
}

func TestSelectionIsAccessoryDerived(t *testing.T) {
	s := NewSelection(selectionForest())

	if s.IsAccessory() {
		t.Fatal("empty selection is not an accessory")
	}
	s.Toggle(20)
	if !s.IsAccessory() {
		t.Fatal("selecting an accessory type should flip the derivation")
	}
	s.Toggle(20)
	if s.IsAccessory() {
		t.Fatal("deselecting should flip it back, nothing is stored")
	}
}

func TestSelectionClearNotifies(t *testing.T) {
	s := NewSelection(selectionForest())
	calls := 0
	s.OnChange(func() { calls++ })

	s.Toggle(1)
	s.Clear()
	if calls != 2 {
		t.Errorf("expected 2 change notifications, got %d", calls)
	}
	if len(s.Ids()) != 0 {
		t.Error("expected empty selection after clear")
	}
}
