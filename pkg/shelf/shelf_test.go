package shelf

import (
	"context"
	"sync"
	"testing"

	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/match"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func loadShelf(t *testing.T) *Shelf {
	t.Helper()
	c, err := catalog.LoadFile(context.Background(), "../../data/catalog.json")
	require.NoError(t, err)
	return New(c, Options{})
}

func itemTitles(res Result) []string {
	out := make([]string, len(res.Items))
	for i, h := range res.Items {
		out[i] = h.Title
	}
	return out
}

func TestSearchPaging(t *testing.T) {
	s := loadShelf(t)

	first := s.Search(Query{})
	assert.Equal(t, 16, first.Total)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 12, first.PageSize)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Items, 12)
	assert.Equal(t, "Cyberpunk 2077", first.Items[0].Title)

	second := s.Search(Query{Page: 2})
	assert.Len(t, second.Items, 4)

	past := s.Search(Query{Page: 3})
	assert.Empty(t, past.Items)
	assert.Equal(t, 16, past.Total)

	big := s.Search(Query{PageSize: 1000})
	assert.Len(t, big.Items, 16)
	assert.Equal(t, 100, big.PageSize)
}

func TestSearchHugePage(t *testing.T) {
	s := loadShelf(t)
	res := s.Search(Query{Page: 4611686018427387905, PageSize: 4})
	assert.Empty(t, res.Items)
	assert.Equal(t, 16, res.Total)
}

func TestSearchResultsDoNotAliasSnapshot(t *testing.T) {
	s := loadShelf(t)
	q := Query{FilterState: browse.FilterState{Search: "hades"}}

	res := s.Search(q)
	require.NotEmpty(t, res.Items)
	require.NotEmpty(t, res.Items[0].Tags)
	want := res.Items[0].Tags[0]
	res.Items[0].Tags[0] = "mutated"
	res.Items[0].Features = nil

	again := s.Search(q)
	assert.Equal(t, want, again.Items[0].Tags[0])
	assert.NotEmpty(t, again.Items[0].Features)
	p, ok := s.Product(again.Items[0].ID)
	require.True(t, ok)
	assert.Equal(t, want, p.Tags[0])
}

func TestSearchExamples(t *testing.T) {
	s := loadShelf(t)

	assert.Equal(t, []string{"Cyberpunk 2077"}, itemTitles(s.Search(Query{FilterState: browse.FilterState{Search: "2077"}})))
	assert.Equal(t, []string{"Elden Ring"}, itemTitles(s.Search(Query{FilterState: browse.FilterState{Search: "eldenring"}})))
	assert.Equal(t, []string{"Hades", "Hades II"}, itemTitles(s.Search(Query{FilterState: browse.FilterState{Search: "hades"}})))
	assert.Equal(t, []string{"Elden Ring"}, itemTitles(s.Search(Query{FilterState: browse.FilterState{Search: "老头环"}})))
}

func TestSearchFilters(t *testing.T) {
	s := loadShelf(t)

	free := s.Search(Query{
		FilterState: browse.FilterState{PriceRangeID: "free"},
		Sort:        browse.SortPriceAsc,
	})
	assert.Equal(t, []string{"2TAKE1", "Dota 2", "Apex Legends"}, itemTitles(free))

	indie := s.Search(Query{FilterState: browse.FilterState{
		Genres: []string{"独立"},
		Tags:   []string{"手柄支持", "云存档"},
	}})
	assert.Equal(t, []string{"Hades", "Hades II", "Stardew Valley"}, itemTitles(indie))
}

func TestSearchRelevanceOrder(t *testing.T) {
	s := loadShelf(t)
	res := s.Search(Query{FilterState: browse.FilterState{Search: "hades"}, Sort: browse.SortPopularity})
	require.Len(t, res.Items, 2)
	assert.Equal(t, match.TierExact, res.Items[0].Tier)
	assert.Equal(t, match.TierPrefix, res.Items[1].Tier)
}

func TestSearchDidYouMean(t *testing.T) {
	s := loadShelf(t)

	res := s.Search(Query{FilterState: browse.FilterState{Search: "terarria"}})
	assert.Zero(t, res.Total)
	assert.Equal(t, "Terraria", res.DidYouMean)

	res = s.Search(Query{FilterState: browse.FilterState{Search: "terraria"}})
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, res.DidYouMean)
}

func TestSearchCommitsHistory(t *testing.T) {
	s := loadShelf(t)

	s.Search(Query{FilterState: browse.FilterState{Search: "hades"}})
	assert.Empty(t, s.History().Terms())

	s.Search(Query{FilterState: browse.FilterState{Search: "hades"}, Commit: true})
	s.Search(Query{FilterState: browse.FilterState{Search: "  "}, Commit: true})
	s.Search(Query{FilterState: browse.FilterState{Search: "HADES"}, Commit: true})
	assert.Equal(t, []string{"HADES"}, s.History().Terms())
}

func TestSearchClampsQuery(t *testing.T) {
	c := catalog.New([]catalog.Product{{ID: "1", Title: "Elden Ring"}})
	s := New(c, Options{MaxQueryLen: 5})

	// "elden ring of the realm" is cut to "elden"
	res := s.Search(Query{FilterState: browse.FilterState{Search: "elden ring of the realm"}})
	assert.Equal(t, 1, res.Total)
}

func TestReplace(t *testing.T) {
	s := loadShelf(t)
	old := s.Catalog()
	res := s.Search(Query{})

	s.Replace(catalog.New([]catalog.Product{{ID: "x", Title: "New Game", Price: 10}}))
	assert.Equal(t, 1, s.Catalog().Len())
	assert.Equal(t, 16, old.Len(), "old snapshot must be untouched")
	assert.Len(t, res.Items, 12)

	assert.Equal(t, []string{"New Game"}, itemTitles(s.Search(Query{})))
	assert.Equal(t, "New Game", s.Suggest("new", 0)[0].Title)

	s.Replace(nil)
	assert.Equal(t, 1, s.Catalog().Len())
}

func TestConcurrentSearchAndReplace(t *testing.T) {
	s := loadShelf(t)
	small := catalog.New([]catalog.Product{{ID: "x", Title: "Hades"}})
	full := s.Catalog()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				if i == 0 && j%5 == 0 {
					if j%10 == 0 {
						s.Replace(small)
					} else {
						s.Replace(full)
					}
					continue
				}
				res := s.Search(Query{FilterState: browse.FilterState{Search: "hades"}, Commit: true})
				assert.NotZero(t, res.Total)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.History().Len(), 5)
}

func TestFacetsAndBuckets(t *testing.T) {
	s := loadShelf(t)

	buckets := s.Buckets()
	require.Len(t, buckets, 4)
	assert.Equal(t, "free", buckets[0].ID)
	assert.Equal(t, 3, buckets[0].Count)

	f := s.Facets()
	require.NotEmpty(t, f.Genres)
	assert.Equal(t, "动作", f.Genres[0].Name)
	require.NotEmpty(t, f.Features)
	assert.Equal(t, "单人", f.Features[0].Name)
	assert.Equal(t, 13, f.Features[0].Count)
	assert.Equal(t, buckets, f.Prices)

	p, ok := s.Product("1245620")
	assert.True(t, ok)
	assert.Equal(t, "Elden Ring", p.Title)
	_, ok = s.Product("nope")
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	s := loadShelf(t)
	got := s.Suggest("ha", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Hades", got[0].Title)
	assert.Equal(t, "Hades II", got[1].Title)
}
