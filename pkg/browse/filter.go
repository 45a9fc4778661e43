/*
Package browse is the storefront listing pipeline: filter, sort, paginate.

Every stage is a pure function over a snapshot of products. Nothing here
mutates its input and nothing is cached between calls; callers re-run the
whole pipeline whenever the filter state, the sort key or the page changes:

	hits := browse.Filter(products, state, opts)
	hits = browse.Sort(hits, browse.SortPriceAsc)
	page := browse.Paginate(hits, 1, 12)

Callers own the page index. Any change to the filter state or the sort key
should send the caller back to page 1, Paginate will not do it for them.
*/
package browse

import (
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/match"
	"github.com/charmbracelet/log"
)

// FilterState is the user's current listing selection.
// Genres are ORed together, tags are ANDed.
type FilterState struct {
	PriceRangeID string   `json:"priceRangeId,omitempty" msgpack:"price,omitempty"`
	Genres       []string `json:"genres,omitempty" msgpack:"genres,omitempty"`
	Tags         []string `json:"tags,omitempty" msgpack:"tags,omitempty"`
	Search       string   `json:"search,omitempty" msgpack:"q,omitempty"`
}

// IsZero reports whether no predicate is active.
func (f FilterState) IsZero() bool {
	return f.PriceRangeID == "" && len(f.Genres) == 0 && len(f.Tags) == 0 && match.Normalize(f.Search) == ""
}

// Hit is a product that passed the filter together with its relevance.
type Hit struct {
	catalog.Product
	Tier  match.Tier `json:"tier" msgpack:"tier"`
	Score float64    `json:"score" msgpack:"score"`
}

// Options carries the collaborators the filter needs.
type Options struct {
	Matcher *match.Matcher
	Buckets []catalog.PriceBucket
}

func (o Options) withDefaults() Options {
	if o.Matcher == nil {
		o.Matcher = match.NewMatcher(match.DefaultThreshold)
	}
	if o.Buckets == nil {
		o.Buckets = catalog.DefaultBuckets()
	}
	return o
}

// Filter keeps the products that pass every active predicate, in input order.
// Malformed records are skipped, Filter itself never fails. Hits hold copies,
// so callers may modify them without touching products.
func Filter(products []catalog.Product, state FilterState, opts Options) []Hit {
	opts = opts.withDefaults()

	var bucket *catalog.PriceBucket
	if state.PriceRangeID != "" {
		if b, ok := catalog.FindBucket(opts.Buckets, state.PriceRangeID); ok {
			bucket = &b
		} else {
			log.Warnf("Unknown price range %q, ignoring", state.PriceRangeID)
		}
	}

	query := match.Normalize(state.Search)
	hits := make([]Hit, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			log.Debugf("Skipping record: %v", err)
			continue
		}
		if bucket != nil && !bucket.Contains(p.Price) {
			continue
		}
		if !anyGenre(p, state.Genres) || !allTags(p, state.Tags) {
			continue
		}
		res := opts.Matcher.RankNormalized(query, p)
		if !res.Matched() {
			continue
		}
		hits = append(hits, Hit{Product: p.Clone(), Tier: res.Tier, Score: res.Score})
	}
	return hits
}

// Products strips the relevance data from hits.
func Products(hits []Hit) []catalog.Product {
	out := make([]catalog.Product, len(hits))
	for i, h := range hits {
		out[i] = h.Product
	}
	return out
}

// anyGenre is true when no genre is selected or p has one of them
func anyGenre(p catalog.Product, genres []string) bool {
	if len(genres) == 0 {
		return true
	}
	for _, g := range genres {
		if p.HasTag(g) {
			return true
		}
	}
	return false
}

// allTags is true when p carries every selected feature tag
func allTags(p catalog.Product, tags []string) bool {
	for _, t := range tags {
		if !p.HasFeature(t) {
			return false
		}
	}
	return true
}
