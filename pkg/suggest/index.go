// Package suggest provides title autocomplete and did-you-mean over a catalog snapshot.
package suggest

import (
	"cmp"
	"slices"
	"sort"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/match"
	"github.com/charmbracelet/log"
	"github.com/hbollon/go-edlib"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DidYouMeanThreshold is the Jaro-Winkler similarity a title needs to be
// offered as a correction.
const DidYouMeanThreshold = 0.7

// maxCollected caps how many suggestions are computed and cached per prefix.
const maxCollected = 50

// Via tells which part of a product a suggestion came from.
type Via string

const (
	ViaTitle Via = "title"
	ViaAlias Via = "alias"
	ViaFuzzy Via = "fuzzy"
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	ID    string `json:"id" msgpack:"id"`
	Title string `json:"title" msgpack:"t"`
	Via   Via    `json:"via" msgpack:"v"`
}

type entry struct {
	id    string
	title string
	norm  string
}

// posting is the trie item: indexes of the entries a key came from.
type posting struct {
	titles  []int
	aliases []int
}

// Index answers completions for one catalog snapshot. It never changes after
// NewIndex; build a new one when the catalog is replaced.
type Index struct {
	trie    *patricia.Trie
	entries []entry
	norms   []string
	cache   *Cache
}

// NewIndex builds the trie from every valid record of c. Titles, aliases
// and pinyin are keyed by their normalized form.
func NewIndex(c *catalog.Catalog, cacheSize int) *Index {
	idx := &Index{
		trie:  patricia.NewTrie(),
		cache: NewCache(cacheSize),
	}
	for _, p := range c.Products() {
		if p.Validate() != nil {
			continue
		}
		i := len(idx.entries)
		norm := match.Normalize(p.Title)
		idx.entries = append(idx.entries, entry{id: p.ID, title: p.Title, norm: norm})
		idx.norms = append(idx.norms, norm)

		idx.add(norm, i, false)
		for _, term := range p.SearchTerms() {
			idx.add(match.Normalize(term), i, true)
		}
	}
	log.Debugf("Built suggest index with %d titles", len(idx.entries))
	return idx
}

func (idx *Index) add(key string, i int, alias bool) {
	if key == "" {
		return
	}
	item := idx.trie.Get(patricia.Prefix(key))
	post, _ := item.(*posting)
	if post == nil {
		post = &posting{}
		idx.trie.Set(patricia.Prefix(key), post)
	}
	if alias {
		post.aliases = append(post.aliases, i)
	} else {
		post.titles = append(post.titles, i)
	}
}

// Len returns the number of indexed titles.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Complete returns up to limit titles whose normalized title, alias or pinyin
// starts with prefix. Title hits come first, shorter titles before longer
// ones. When nothing starts with prefix, titles containing its letters in
// order are returned instead.
func (idx *Index) Complete(prefix string, limit int) []Suggestion {
	if !utils.IsSuggestable(prefix) {
		return []Suggestion{}
	}
	key := match.Normalize(prefix)
	if key == "" {
		return []Suggestion{}
	}

	all, ok := idx.cache.Get(key)
	if !ok {
		all = idx.prefixSearch(key)
		if len(all) == 0 {
			all = idx.fuzzySearch(key)
		}
		idx.cache.Put(key, all)
	}

	if limit < 1 || limit > len(all) {
		limit = len(all)
	}
	return slices.Clone(all[:limit])
}

type candidate struct {
	i   int
	via Via
}

func (idx *Index) prefixSearch(key string) []Suggestion {
	best := make(map[int]Via)
	err := idx.trie.VisitSubtree(patricia.Prefix(key), func(_ patricia.Prefix, item patricia.Item) error {
		post, ok := item.(*posting)
		if !ok {
			return nil
		}
		for _, i := range post.titles {
			best[i] = ViaTitle
		}
		for _, i := range post.aliases {
			if _, seen := best[i]; !seen {
				best[i] = ViaAlias
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	found := make([]candidate, 0, len(best))
	for i, via := range best {
		found = append(found, candidate{i: i, via: via})
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if a.via != b.via {
			if a.via == ViaTitle {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(len(idx.entries[a.i].norm), len(idx.entries[b.i].norm)); c != 0 {
			return c
		}
		return cmp.Compare(a.i, b.i)
	})
	return idx.collect(found)
}

func (idx *Index) fuzzySearch(key string) []Suggestion {
	ranks := fuzzy.RankFindNormalizedFold(key, idx.norms)
	sort.Stable(ranks)

	found := make([]candidate, len(ranks))
	for n, r := range ranks {
		found[n] = candidate{i: r.OriginalIndex, via: ViaFuzzy}
	}
	return idx.collect(found)
}

func (idx *Index) collect(found []candidate) []Suggestion {
	seen := utils.NewSeenFilter()
	out := make([]Suggestion, 0, min(len(found), maxCollected))
	for _, c := range found {
		if len(out) == maxCollected {
			break
		}
		e := idx.entries[c.i]
		// reissued titles share a name; one suggestion is enough
		if !seen.ShouldInclude(e.title) {
			continue
		}
		out = append(out, Suggestion{ID: e.id, Title: e.title, Via: c.via})
	}
	return out
}

// DidYouMean returns the title closest to query by Jaro-Winkler similarity,
// if any reaches DidYouMeanThreshold. Ties keep catalog order.
func (idx *Index) DidYouMean(query string) (string, bool) {
	q := match.Normalize(query)
	if q == "" {
		return "", false
	}

	bestScore := float32(0)
	best := -1
	for i, e := range idx.entries {
		if e.norm == "" {
			continue
		}
		score := edlib.JaroWinklerSimilarity(q, e.norm)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 || bestScore < DidYouMeanThreshold {
		return "", false
	}
	log.Debugf("Did you mean %q for %q (%.2f)", idx.entries[best].title, query, bestScore)
	return idx.entries[best].title, true
}

// Stats reports index and cache sizes.
func (idx *Index) Stats() map[string]int {
	stats := idx.cache.Stats()
	stats["titles"] = len(idx.entries)
	return stats
}
