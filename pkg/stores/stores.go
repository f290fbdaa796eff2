package stores

import (
	"math"
	"sort"
	"sync"
)

type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (loc Location) IsZero() bool {
	return loc.Latitude == 0 && loc.Longitude == 0
}

// DistanceTo returns the great-circle distance in kilometers.
func (loc Location) DistanceTo(other Location) float64 {
	const earthRadius = 6371e3
	toRad := math.Pi / 180
	lat1 := loc.Latitude * toRad
	lat2 := other.Latitude * toRad
	dLat := (other.Latitude - loc.Latitude) * toRad
	dLon := (other.Longitude - loc.Longitude) * toRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c / 1000.0
}

type OpenHours struct {
	Weekday string `json:"weekday"`
	Opens   string `json:"opens,omitempty"`
	Closes  string `json:"closes,omitempty"`
	Closed  bool   `json:"closed,omitempty"`
}

type Store struct {
	Id          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Street      string      `json:"street"`
	City        string      `json:"city"`
	Phone       string      `json:"phone,omitempty"`
	Location    *Location   `json:"location,omitempty"`
	OpenHours   []OpenHours `json:"openHours,omitempty"`
}

type StoreDistance struct {
	*Store
	Distance float64 `json:"distance"`
}

// Registry holds the store locations served to the storefront.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: map[string]*Store{}}
}

func (r *Registry) Upsert(store *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[store.Id] = store
}

func (r *Registry) Get(id string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id]
	return s, ok
}

func (r *Registry) All() []*Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Id < out[j].Id
	})
	return out
}

// Nearest lists stores with a known location ordered by distance from loc.
func (r *Registry) Nearest(loc Location, limit int) []StoreDistance {
	out := make([]StoreDistance, 0)
	for _, s := range r.All() {
		if s.Location == nil || s.Location.IsZero() {
			continue
		}
		out = append(out, StoreDistance{Store: s, Distance: loc.DistanceTo(*s.Location)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Registry) Restore(list []*Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range list {
		r.stores[s.Id] = s
	}
}
