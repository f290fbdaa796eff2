package filters

import (
	"math/rand"
	"net/url"
	"testing"
)

func TestEncodeDefaultsToEmpty(t *testing.T) {
	values := Encode(NewState())
	if len(values) != 0 {
		t.Fatalf("default state must encode to nothing, got %q", values.Encode())
	}
}

func TestEncodeOmitsFalseBooleans(t *testing.T) {
	s := NewState()
	s.RemoteControl = true
	values := Encode(s)

	if values.Get("remoteControl") != "true" {
		t.Errorf("expected remoteControl=true, got %q", values.Get("remoteControl"))
	}
	if _, ok := values["oscillation"]; ok {
		t.Error("unset boolean must be absent, never false")
	}
	if _, ok := values["timer"]; ok {
		t.Error("unset boolean must be absent, never false")
	}
}

func TestEncodeBrandAndPriceRange(t *testing.T) {
	s := NewState()
	s.BrandId = 5
	s.MinPrice = 500000
	s.MaxPrice = 1000000
	got := Encode(s).Encode()

	want := "brandId=5&maxPrice=1000000&minPrice=500000"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeJoinsTags(t *testing.T) {
	s := NewState()
	s.Tags = []string{"energy-star", "quiet"}
	values := Encode(s)
	if values.Get("tags") != "energy-star,quiet" {
		t.Errorf("expected comma-joined tags, got %q", values.Get("tags"))
	}
}

func TestEncodeOmitsDefaultSort(t *testing.T) {
	s := NewState()
	values := Encode(s)
	if _, ok := values["sortBy"]; ok {
		t.Error("default sortBy must be absent")
	}
	if _, ok := values["order"]; ok {
		t.Error("default order must be absent")
	}

	s.SortBy = "Price"
	s.Order = "ASC"
	values = Encode(s)
	if values.Get("sortBy") != "Price" || values.Get("order") != "ASC" {
		t.Errorf("non-default sort must be emitted, got %q", values.Encode())
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	s, err := Decode(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SortBy != DefaultSortBy || s.Order != DefaultOrder {
		t.Errorf("expected default sort %s %s, got %s %s", DefaultSortBy, DefaultOrder, s.SortBy, s.Order)
	}
	if s.ActiveFacetCount() != 0 {
		t.Errorf("expected no active facets, got %d", s.ActiveFacetCount())
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	query, _ := url.ParseQuery("brandId=5&utm_source=mail&fbclid=xyz")
	s, err := Decode(query)
	if err != nil {
		t.Fatalf("unknown keys must be ignored, got error: %v", err)
	}
	if s.BrandId != 5 {
		t.Errorf("expected brandId 5, got %d", s.BrandId)
	}
}

func TestDecodeSplitsTags(t *testing.T) {
	query, _ := url.ParseQuery("tags=quiet,energy-star, outdoor ,")
	s, err := Decode(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"quiet", "energy-star", "outdoor"}
	if len(s.Tags) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), s.Tags)
	}
	for i, code := range want {
		if s.Tags[i] != code {
			t.Errorf("tag %d: got %q, want %q", i, s.Tags[i], code)
		}
	}
}

func TestDecodeSanitizes(t *testing.T) {
	query, _ := url.ParseQuery("page=99999&order=sideways")
	s, err := Decode(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Page != 1000 {
		t.Errorf("expected page clamped to 1000, got %d", s.Page)
	}
	if s.Order != DefaultOrder {
		t.Errorf("expected invalid order replaced with %s, got %s", DefaultOrder, s.Order)
	}
}

func TestRoundTrip(t *testing.T) {
	states := []*State{
		NewState(),
		{CategoryId: 12, SortBy: DefaultSortBy, Order: DefaultOrder},
		{BrandId: 5, MinPrice: 500000, MaxPrice: 1000000, SortBy: DefaultSortBy, Order: DefaultOrder},
		{BladeCount: 3, RemoteControl: true, Oscillation: true, SortBy: DefaultSortBy, Order: DefaultOrder},
		{Timer: true, MinPower: 25, MaxPower: 75, SortBy: DefaultSortBy, Order: DefaultOrder},
		{Tags: []string{"quiet"}, SortBy: DefaultSortBy, Order: DefaultOrder},
		{Tags: []string{"quiet", "energy-star", "outdoor"}, SortBy: DefaultSortBy, Order: DefaultOrder},
		{SpaceId: 10, PurposeId: 11, TechnologyId: 12, SortBy: DefaultSortBy, Order: DefaultOrder},
		{CompatibleFanTypeId: 7, SortBy: DefaultSortBy, Order: DefaultOrder},
		{Keyword: "ceiling fan", SortBy: DefaultSortBy, Order: DefaultOrder},
		{SortBy: "Price", Order: "ASC"},
		{SortBy: "Name", Order: DefaultOrder, Page: 4},
		{
			CategoryId: 1, BrandId: 2, MinPrice: 100, MaxPrice: 200, BladeCount: 5,
			RemoteControl: true, Oscillation: true, Timer: true, MinPower: 10, MaxPower: 90,
			Tags: []string{"a", "b"}, SpaceId: 3, PurposeId: 4, TechnologyId: 5,
			CompatibleFanTypeId: 6, Keyword: "x", SortBy: "Price", Order: "ASC", Page: 2,
		},
	}

	for i, original := range states {
		encoded := Encode(original)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("case %d: decode failed: %v", i, err)
		}
		if !decoded.Equal(original) {
			t.Errorf("case %d: round trip changed state\nencoded: %q\n got: %+v\nwant: %+v",
				i, encoded.Encode(), decoded, original)
		}
		// the canonical form itself must be stable
		if again := CacheKey(decoded); again != encoded.Encode() {
			t.Errorf("case %d: cache key not stable: %q vs %q", i, again, encoded.Encode())
		}
	}
}

// randomState builds an already-sanitized state with an arbitrary subset of
// facets active.
func randomState(rng *rand.Rand) *State {
	s := NewState()
	if rng.Intn(2) == 0 {
		s.CategoryId = uint(rng.Intn(100) + 1)
	}
	if rng.Intn(2) == 0 {
		s.BrandId = uint(rng.Intn(50) + 1)
	}
	if rng.Intn(2) == 0 {
		s.MinPrice = int64(rng.Intn(500000))
		s.MaxPrice = s.MinPrice + int64(rng.Intn(500000)+1)
	}
	if rng.Intn(2) == 0 {
		s.BladeCount = rng.Intn(6) + 1
	}
	s.RemoteControl = rng.Intn(2) == 0
	s.Oscillation = rng.Intn(2) == 0
	s.Timer = rng.Intn(2) == 0
	if rng.Intn(2) == 0 {
		s.MinPower = rng.Intn(100) + 1
		s.MaxPower = s.MinPower + rng.Intn(100)
	}
	pool := []string{"quiet", "energy-star", "outdoor", "smart", "retro"}
	for _, code := range pool {
		if rng.Intn(3) == 0 {
			s.Tags = append(s.Tags, code)
		}
	}
	if rng.Intn(2) == 0 {
		s.SpaceId = uint(rng.Intn(20) + 1)
	}
	if rng.Intn(2) == 0 {
		s.PurposeId = uint(rng.Intn(20) + 1)
	}
	if rng.Intn(2) == 0 {
		s.TechnologyId = uint(rng.Intn(20) + 1)
	}
	if rng.Intn(2) == 0 {
		s.CompatibleFanTypeId = uint(rng.Intn(20) + 1)
	}
	if rng.Intn(3) == 0 {
		s.Keyword = []string{"ceiling fan", "tower", "quiet bedroom", "usb"}[rng.Intn(4)]
	}
	s.SortBy = []string{DefaultSortBy, "Price", "Name"}[rng.Intn(3)]
	s.Order = []string{DefaultOrder, "ASC"}[rng.Intn(2)]
	s.Page = rng.Intn(1001)
	return s
}

func TestRoundTripRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		original := randomState(rng)
		encoded := Encode(original)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("case %d: decode failed for %q: %v", i, encoded.Encode(), err)
		}
		if !decoded.Equal(original) {
			t.Errorf("case %d: round trip changed state\nencoded: %q\n got: %+v\nwant: %+v",
				i, encoded.Encode(), decoded, original)
		}
		if again := CacheKey(decoded); again != encoded.Encode() {
			t.Errorf("case %d: cache key not stable: %q vs %q", i, again, encoded.Encode())
		}
	}
}
