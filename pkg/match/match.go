/*
Package match decides whether a product answers a search query and how
strongly.

Every query is checked against a ladder of tiers and the product gets the
highest score any tier gives it. Tier scores never overlap, so the ladder is
walked strongest first and stops at the first hit; a product matching both by
tag and by alias is always ranked as a tag match.

	Tier        hit when (query and fields normalized)         score
	exact       title == query                                 100
	prefix      title starts with query                         90
	substring   title contains query                            80
	runs        every digit/letter run of query is in a
	            title run (mixed queries only)                  70
	tag         some tag contains query                         60
	alias       some alias or pinyin contains query             50
	fuzzy       similarity(title, query) > threshold       40 * sim

An empty query matches everything with TierNone and score 0.
*/
package match

import (
	"fmt"
	"strings"

	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/similarity"
)

// Tier is the kind of match that produced a score.
type Tier int

const (
	TierMiss Tier = iota - 1
	TierNone
	TierFuzzy
	TierAlias
	TierTag
	TierRuns
	TierSubstring
	TierPrefix
	TierExact
)

// DefaultThreshold is the similarity a fuzzy match has to exceed.
const DefaultThreshold = 0.8

const (
	scoreExact     = 100
	scorePrefix    = 90
	scoreSubstring = 80
	scoreRuns      = 70
	scoreTag       = 60
	scoreAlias     = 50
	scoreFuzzyMax  = 40
)

var tierNames = map[Tier]string{
	TierMiss:      "miss",
	TierNone:      "none",
	TierFuzzy:     "fuzzy",
	TierAlias:     "alias",
	TierTag:       "tag",
	TierRuns:      "runs",
	TierSubstring: "substring",
	TierPrefix:    "prefix",
	TierExact:     "exact",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name; unknown names are an error.
func (t *Tier) UnmarshalText(b []byte) error {
	for tier, name := range tierNames {
		if name == string(b) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", b)
}

// Result is the outcome of ranking one product against one query.
type Result struct {
	Tier  Tier
	Score float64
}

// Matched reports whether the result counts as a hit.
func (r Result) Matched() bool {
	return r.Tier != TierMiss
}

var miss = Result{Tier: TierMiss}

// Matcher ranks products against queries.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given fuzzy threshold.
// Values outside (0,1) fall back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the fuzzy similarity threshold in use.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match reports whether p answers query.
func (m *Matcher) Match(query string, p catalog.Product) bool {
	return m.Rank(query, p).Matched()
}

// Rank scores p against query.
func (m *Matcher) Rank(query string, p catalog.Product) Result {
	return m.RankNormalized(Normalize(query), p)
}

// RankNormalized is Rank for a query that already went through Normalize,
// which saves re-normalizing the query for every product.
func (m *Matcher) RankNormalized(q string, p catalog.Product) Result {
	if q == "" {
		return Result{Tier: TierNone}
	}

	title := Normalize(p.Title)
	switch {
	case title == q:
		return Result{Tier: TierExact, Score: scoreExact}
	case strings.HasPrefix(title, q):
		return Result{Tier: TierPrefix, Score: scorePrefix}
	case strings.Contains(title, q):
		return Result{Tier: TierSubstring, Score: scoreSubstring}
	}

	if mixed(q) && runsMatch(Runs(q), Runs(title)) {
		return Result{Tier: TierRuns, Score: scoreRuns}
	}

	for _, tag := range p.Tags {
		if strings.Contains(Normalize(tag), q) {
			return Result{Tier: TierTag, Score: scoreTag}
		}
	}

	for _, term := range p.SearchTerms() {
		if strings.Contains(Normalize(term), q) {
			return Result{Tier: TierAlias, Score: scoreAlias}
		}
	}

	if sim := similarity.Score(title, q); sim > m.threshold {
		return Result{Tier: TierFuzzy, Score: scoreFuzzyMax * sim}
	}
	return miss
}

// runsMatch requires every query run to appear inside some title run
func runsMatch(queryRuns, titleRuns []string) bool {
	if len(queryRuns) == 0 {
		return false
	}
	for _, qr := range queryRuns {
		found := false
		for _, tr := range titleRuns {
			if strings.Contains(tr, qr) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
