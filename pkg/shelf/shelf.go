/*
Package shelf ties the catalog, the browse pipeline, autocomplete and the
session state into one service the transports share.

The live catalog is an immutable snapshot behind an atomic pointer. Replace
swaps in a new one; queries already running keep the snapshot they started
with.
*/
package shelf

import (
	"sync/atomic"
	"time"

	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/match"
	"github.com/bastiangx/shelfserve/pkg/session"
	"github.com/bastiangx/shelfserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Options configures a Shelf. Zero fields take defaults.
type Options struct {
	FuzzyThreshold float64
	Buckets        []catalog.PriceBucket
	PageSize       int
	MaxPageSize    int
	MaxQueryLen    int
	SuggestLimit   int
	SuggestCache   int
	// DefaultSort applies when a query names no sort key.
	DefaultSort browse.SortKey

	// History and Preferences default to in-memory stores.
	History     *session.History
	Preferences *session.PreferenceStore
}

type snapshot struct {
	catalog  *catalog.Catalog
	products []catalog.Product
	index    *suggest.Index
	loadedAt time.Time
}

// Shelf is safe for concurrent use.
type Shelf struct {
	snap    atomic.Pointer[snapshot]
	opts    Options
	matcher *match.Matcher
	history *session.History
	prefs   *session.PreferenceStore
}

// New creates a Shelf serving c.
func New(c *catalog.Catalog, opts Options) *Shelf {
	if opts.Buckets == nil {
		opts.Buckets = catalog.DefaultBuckets()
	}
	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = 100
	}
	if opts.PageSize < 1 {
		opts.PageSize = browse.DefaultPageSize
	}
	opts.PageSize = min(opts.PageSize, opts.MaxPageSize)
	if opts.SuggestLimit < 1 {
		opts.SuggestLimit = 8
	}
	if opts.DefaultSort == "" {
		opts.DefaultSort = browse.SortPopularity
	}
	if opts.History == nil || opts.Preferences == nil {
		mem := session.NewMemoryStore()
		if opts.History == nil {
			opts.History = session.NewHistory(mem, session.HistoryOptions{})
		}
		if opts.Preferences == nil {
			opts.Preferences = session.NewPreferenceStore(mem)
		}
	}

	s := &Shelf{
		opts:    opts,
		matcher: match.NewMatcher(opts.FuzzyThreshold),
		history: opts.History,
		prefs:   opts.Preferences,
	}
	s.Replace(c)
	return s
}

// Replace installs c as the live catalog. A nil catalog is ignored.
func (s *Shelf) Replace(c *catalog.Catalog) {
	if c == nil {
		log.Warn("Ignoring nil catalog")
		return
	}
	s.snap.Store(&snapshot{
		catalog:  c,
		products: c.Products(),
		index:    suggest.NewIndex(c, s.opts.SuggestCache),
		loadedAt: time.Now(),
	})
	metrics.SetCatalog(c.Len(), c.Invalid())
	log.Infof("Catalog ready: %d products (%d malformed)", c.Len(), c.Invalid())
}

// Catalog returns the live snapshot.
func (s *Shelf) Catalog() *catalog.Catalog {
	return s.snap.Load().catalog
}

// LoadedAt returns when the live snapshot was installed.
func (s *Shelf) LoadedAt() time.Time {
	return s.snap.Load().loadedAt
}

// PageSize returns the default page size.
func (s *Shelf) PageSize() int {
	return s.opts.PageSize
}

// History returns the recent-search list.
func (s *Shelf) History() *session.History {
	return s.history
}

// Preferences returns the display preferences store.
func (s *Shelf) Preferences() *session.PreferenceStore {
	return s.prefs
}

// Query is one listing request.
type Query struct {
	browse.FilterState
	Sort browse.SortKey
	// Page is 1-based; zero means the first page.
	Page int
	// PageSize zero means the configured default.
	PageSize int
	// Commit records the search term in the history.
	Commit bool
}

// Result is one page of a listing.
type Result struct {
	Items      []browse.Hit `json:"items" msgpack:"items"`
	Total      int          `json:"total" msgpack:"total"`
	Page       int          `json:"page" msgpack:"page"`
	PageSize   int          `json:"pageSize" msgpack:"size"`
	TotalPages int          `json:"totalPages" msgpack:"pages"`
	DidYouMean string       `json:"didYouMean,omitempty" msgpack:"dym,omitempty"`
}

// Search runs filter, sort and paginate over the live snapshot.
// When a non-empty search matches nothing, DidYouMean carries the closest
// title if there is one.
func (s *Shelf) Search(q Query) Result {
	start := time.Now()
	snap := s.snap.Load()

	q.Search = utils.ClampQuery(q.Search, s.opts.MaxQueryLen)
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = s.opts.PageSize
	}
	q.PageSize = min(q.PageSize, s.opts.MaxPageSize)
	if q.Sort == "" {
		q.Sort = s.opts.DefaultSort
	}

	hits := browse.Filter(snap.products, q.FilterState, browse.Options{
		Matcher: s.matcher,
		Buckets: s.opts.Buckets,
	})
	hits = browse.Sort(hits, q.Sort)

	res := Result{
		Items:      browse.Paginate(hits, q.Page, q.PageSize),
		Total:      len(hits),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: browse.TotalPages(len(hits), q.PageSize),
	}
	if res.Total == 0 && q.Search != "" {
		res.DidYouMean, _ = snap.index.DidYouMean(q.Search)
	}
	if q.Commit {
		s.history.Add(q.Search)
	}

	metrics.ObserveSearch(string(q.Sort), res.Total, time.Since(start))
	log.Debugf("Search %q sort=%s page=%d: %d hits", q.Search, q.Sort, q.Page, res.Total)
	return res
}

// Suggest completes a partial title. A limit below 1 uses the configured one.
func (s *Shelf) Suggest(prefix string, limit int) []suggest.Suggestion {
	if limit < 1 {
		limit = s.opts.SuggestLimit
	}
	metrics.IncSuggest()
	prefix = utils.ClampQuery(prefix, s.opts.MaxQueryLen)
	return s.snap.Load().index.Complete(prefix, limit)
}

// Buckets returns the price ranges with how many valid products each holds.
func (s *Shelf) Buckets() []catalog.BucketCount {
	return catalog.BucketCounts(s.opts.Buckets, s.snap.Load().products)
}

// Facets are the filter choices with their product counts.
type Facets struct {
	Genres   []catalog.Facet       `json:"genres" msgpack:"genres"`
	Features []catalog.Facet       `json:"features" msgpack:"features"`
	Prices   []catalog.BucketCount `json:"prices" msgpack:"prices"`
}

// Facets returns genre, feature and price counts for the live catalog.
func (s *Shelf) Facets() Facets {
	c := s.Catalog()
	return Facets{
		Genres:   c.Genres(),
		Features: c.Features(),
		Prices:   s.Buckets(),
	}
}

// Product looks a product up by ID.
func (s *Shelf) Product(id string) (catalog.Product, bool) {
	return s.Catalog().ByID(id)
}

// PriceRanges returns the configured buckets.
func (s *Shelf) PriceRanges() []catalog.PriceBucket {
	return append([]catalog.PriceBucket(nil), s.opts.Buckets...)
}
