package filters

import "slices"

const (
	DefaultSortBy = "ProductID"
	DefaultOrder  = "DESC"
)

// State is the full set of orthogonal product filter facets plus sort and
// pagination. The zero value of every field means "unset"; unset facets are
// never serialized.
type State struct {
	CategoryId          uint     `json:"categoryId,omitempty" schema:"categoryId"`
	BrandId             uint     `json:"brandId,omitempty" schema:"brandId"`
	MinPrice            int64    `json:"minPrice,omitempty" schema:"minPrice"`
	MaxPrice            int64    `json:"maxPrice,omitempty" schema:"maxPrice"`
	BladeCount          int      `json:"bladeCount,omitempty" schema:"bladeCount"`
	RemoteControl       bool     `json:"remoteControl,omitempty" schema:"remoteControl"`
	Oscillation         bool     `json:"oscillation,omitempty" schema:"oscillation"`
	Timer               bool     `json:"timer,omitempty" schema:"timer"`
	MinPower            int      `json:"minPower,omitempty" schema:"minPower"`
	MaxPower            int      `json:"maxPower,omitempty" schema:"maxPower"`
	Tags                []string `json:"tags,omitempty" schema:"-"`
	SpaceId             uint     `json:"spaceId,omitempty" schema:"spaceId"`
	PurposeId           uint     `json:"purposeId,omitempty" schema:"purposeId"`
	TechnologyId        uint     `json:"technologyId,omitempty" schema:"technologyId"`
	CompatibleFanTypeId uint     `json:"compatibleFanTypeId,omitempty" schema:"compatibleFanTypeId"`
	Keyword             string   `json:"keyword,omitempty" schema:"keyword"`
	SortBy              string   `json:"sortBy,omitempty" schema:"sortBy"`
	Order               string   `json:"order,omitempty" schema:"order"`
	Page                int      `json:"page,omitempty" schema:"page"`
}

func NewState() *State {
	return &State{
		SortBy: DefaultSortBy,
		Order:  DefaultOrder,
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *State) Sanitize() {
	s.Page = clamp(s.Page, 0, 1000)
	if s.SortBy == "" {
		s.SortBy = DefaultSortBy
	}
	if s.Order != "ASC" {
		s.Order = DefaultOrder
	}
}

// Copy returns a deep copy, the draft side of the controller edits copies.
func (s *State) Copy() *State {
	out := *s
	out.Tags = slices.Clone(s.Tags)
	return &out
}

// HasTag reports set membership in the multi-valued tag facet.
func (s *State) HasTag(code string) bool {
	return slices.Contains(s.Tags, code)
}

// Equal is observational equality: same active facets with the same values.
// Tag order is irrelevant.
func (s *State) Equal(other *State) bool {
	if other == nil {
		return false
	}
	a := s.Copy()
	b := other.Copy()
	slices.Sort(a.Tags)
	slices.Sort(b.Tags)
	if len(a.Tags) == 0 {
		a.Tags = nil
	}
	if len(b.Tags) == 0 {
		b.Tags = nil
	}
	return slices.Equal(a.Tags, b.Tags) &&
		a.CategoryId == b.CategoryId &&
		a.BrandId == b.BrandId &&
		a.MinPrice == b.MinPrice &&
		a.MaxPrice == b.MaxPrice &&
		a.BladeCount == b.BladeCount &&
		a.RemoteControl == b.RemoteControl &&
		a.Oscillation == b.Oscillation &&
		a.Timer == b.Timer &&
		a.MinPower == b.MinPower &&
		a.MaxPower == b.MaxPower &&
		a.SpaceId == b.SpaceId &&
		a.PurposeId == b.PurposeId &&
		a.TechnologyId == b.TechnologyId &&
		a.CompatibleFanTypeId == b.CompatibleFanTypeId &&
		a.Keyword == b.Keyword &&
		a.SortBy == b.SortBy &&
		a.Order == b.Order &&
		a.Page == b.Page
}

// ActiveFacetCount counts non-default facet groups, not individual values: a
// price range counts once whether one or both bounds are set, a tag set
// counts once no matter how many codes it holds. Sort, page and keyword are
// not facets.
func (s *State) ActiveFacetCount() int {
	n := 0
	if s.CategoryId != 0 {
		n++
	}
	if s.BrandId != 0 {
		n++
	}
	if s.MinPrice != 0 || s.MaxPrice != 0 {
		n++
	}
	if s.BladeCount != 0 {
		n++
	}
	if s.RemoteControl {
		n++
	}
	if s.Oscillation {
		n++
	}
	if s.Timer {
		n++
	}
	if s.MinPower != 0 || s.MaxPower != 0 {
		n++
	}
	if len(s.Tags) > 0 {
		n++
	}
	if s.SpaceId != 0 {
		n++
	}
	if s.PurposeId != 0 {
		n++
	}
	if s.TechnologyId != 0 {
		n++
	}
	if s.CompatibleFanTypeId != 0 {
		n++
	}
	return n
}
