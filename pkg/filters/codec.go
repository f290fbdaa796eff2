package filters

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// Encode serializes a state to its flat, shareable query form. A key is
// emitted only when its facet is non-default: booleans appear as the literal
// "true" and never as "false", empty sets and zero values are absent. Tags
// join with a comma into a single parameter.
func Encode(s *State) url.Values {
	values := url.Values{}
	setUint := func(key string, v uint) {
		if v != 0 {
			values.Set(key, strconv.FormatUint(uint64(v), 10))
		}
	}
	setInt := func(key string, v int64) {
		if v != 0 {
			values.Set(key, strconv.FormatInt(v, 10))
		}
	}
	setBool := func(key string, v bool) {
		if v {
			values.Set(key, "true")
		}
	}
	setUint("categoryId", s.CategoryId)
	setUint("brandId", s.BrandId)
	setInt("minPrice", s.MinPrice)
	setInt("maxPrice", s.MaxPrice)
	setInt("bladeCount", int64(s.BladeCount))
	setBool("remoteControl", s.RemoteControl)
	setBool("oscillation", s.Oscillation)
	setBool("timer", s.Timer)
	setInt("minPower", int64(s.MinPower))
	setInt("maxPower", int64(s.MaxPower))
	if len(s.Tags) > 0 {
		values.Set("tags", strings.Join(s.Tags, ","))
	}
	setUint("spaceId", s.SpaceId)
	setUint("purposeId", s.PurposeId)
	setUint("technologyId", s.TechnologyId)
	setUint("compatibleFanTypeId", s.CompatibleFanTypeId)
	if s.Keyword != "" {
		values.Set("keyword", s.Keyword)
	}
	if s.SortBy != "" && s.SortBy != DefaultSortBy {
		values.Set("sortBy", s.SortBy)
	}
	if s.Order != "" && s.Order != DefaultOrder {
		values.Set("order", s.Order)
	}
	setInt("page", int64(s.Page))
	return values
}

// CacheKey is the canonical string form of a state, used as the response
// cache key so a cached page can never be served for a different facet set.
func CacheKey(s *State) string {
	return Encode(s).Encode()
}

// Decode is the inverse of Encode. Absent keys map to the facet's default,
// unknown keys are ignored, a comma-joined tags parameter splits back into
// the set.
func Decode(query url.Values) (*State, error) {
	s := NewState()
	if err := decoder.Decode(s, query); err != nil {
		return nil, err
	}
	if raw := query.Get("tags"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			code = strings.TrimSpace(code)
			if code != "" {
				s.Tags = append(s.Tags, code)
			}
		}
	}
	s.Sanitize()
	return s, nil
}

// FromRequest decodes the committed filter state from a request's query.
func FromRequest(r *http.Request) (*State, error) {
	return Decode(r.URL.Query())
}
