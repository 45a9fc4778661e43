package browse

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortPopularity  SortKey = "popularity"
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
	SortReleaseDate SortKey = "release_date"
	SortRating      SortKey = "rating"
)

// SortKeys lists every key, default first.
var SortKeys = []SortKey{SortPopularity, SortPriceAsc, SortPriceDesc, SortReleaseDate, SortRating}

// ParseSortKey accepts the key names case-insensitively, with '-' or '_'.
// An empty string selects SortPopularity.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if s == "" {
		return SortPopularity, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return SortPopularity, fmt.Errorf("unknown sort key %q", s)
}

// Sort returns a new, stably ordered slice; hits is left untouched.
//
// SortPopularity orders by relevance score only when a search produced
// scores, otherwise the curated input order is kept.
func Sort(hits []Hit, key SortKey) []Hit {
	out := slices.Clone(hits)

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Hit) int { return cmpFloat(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Hit) int { return cmpFloat(b.Price, a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Hit) int { return cmpFloat(b.Rating, a.Rating) })
	case SortReleaseDate:
		type dated struct {
			hit Hit
			at  time.Time
		}
		tmp := make([]dated, len(out))
		for i, h := range out {
			// unparsable dates stay zero and sink to the end
			at, _ := h.Released()
			tmp[i] = dated{hit: h, at: at}
		}
		slices.SortStableFunc(tmp, func(a, b dated) int { return b.at.Compare(a.at) })
		for i := range tmp {
			out[i] = tmp[i].hit
		}
	default:
		if scored(out) {
			slices.SortStableFunc(out, func(a, b Hit) int { return cmpFloat(b.Score, a.Score) })
		}
	}
	return out
}

func scored(hits []Hit) bool {
	for _, h := range hits {
		if h.Score > 0 {
			return true
		}
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
