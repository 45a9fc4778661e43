package shelf

import (
	"slices"
	"strings"

	"github.com/bastiangx/shelfserve/pkg/browse"
)

// Browser is one user's position in the listing: the filter state, the sort
// key and the page. Any change to the filters or the sort key sends it back
// to page 1. Not safe for concurrent use.
type Browser struct {
	shelf *Shelf
	query Query
	last  Result
}

// NewBrowser starts an unfiltered listing on page 1.
func (s *Shelf) NewBrowser() *Browser {
	return &Browser{shelf: s, query: Query{Sort: s.opts.DefaultSort, Page: 1}}
}

// Query returns the current request.
func (b *Browser) Query() Query {
	q := b.query
	q.Genres = slices.Clone(q.Genres)
	q.Tags = slices.Clone(q.Tags)
	return q
}

// Page returns the current 1-based page.
func (b *Browser) Page() int {
	return b.query.Page
}

// Search sets the search text, records it in history and re-runs the query.
func (b *Browser) Search(text string) Result {
	b.query.Search = strings.TrimSpace(text)
	b.query.Page = 1
	b.query.Commit = b.query.Search != ""
	res := b.run()
	b.query.Commit = false
	return res
}

// SetPriceRange selects a bucket; an empty id clears it.
func (b *Browser) SetPriceRange(id string) Result {
	b.query.PriceRangeID = id
	return b.changed()
}

// ToggleGenre adds the genre to the OR set, or removes it if present.
func (b *Browser) ToggleGenre(genre string) Result {
	b.query.Genres = toggle(b.query.Genres, genre)
	return b.changed()
}

// ToggleTag adds the feature tag to the AND set, or removes it if present.
func (b *Browser) ToggleTag(tag string) Result {
	b.query.Tags = toggle(b.query.Tags, tag)
	return b.changed()
}

// SetSort changes the order.
func (b *Browser) SetSort(key browse.SortKey) Result {
	b.query.Sort = key
	return b.changed()
}

// SetPage moves to page n without touching the filters.
func (b *Browser) SetPage(n int) Result {
	b.query.Page = n
	return b.run()
}

// Next moves one page forward, staying on the last page.
func (b *Browser) Next() Result {
	if b.query.Page < b.last.TotalPages {
		b.query.Page++
	}
	return b.run()
}

// Prev moves one page back, staying on the first page.
func (b *Browser) Prev() Result {
	if b.query.Page > 1 {
		b.query.Page--
	}
	return b.run()
}

// Reset clears every filter and the sort key.
func (b *Browser) Reset() Result {
	b.query = Query{Sort: b.shelf.opts.DefaultSort, Page: 1}
	return b.run()
}

// Refresh re-runs the current query.
func (b *Browser) Refresh() Result {
	return b.run()
}

func (b *Browser) changed() Result {
	b.query.Page = 1
	return b.run()
}

func (b *Browser) run() Result {
	b.last = b.shelf.Search(b.query)
	return b.last
}

func toggle(set []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return set
	}
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
