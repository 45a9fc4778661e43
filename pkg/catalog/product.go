/*
Package catalog holds the storefront product records and the static lookup
tables built around them.

A Catalog is an immutable snapshot: records are loaded once (from JSON, YAML,
msgpack or SQLite) and never modified afterwards. Filtering and sorting work on
copies handed out by Products().

Records look like this in JSON:

	{
	  "id": "1091500",
	  "title": "Cyberpunk 2077",
	  "price": 298,
	  "originalPrice": 298,
	  "discount": 0,
	  "tags": ["角色扮演", "开放世界"],
	  "features": ["手柄支持", "云存档"],
	  "releaseDate": "2020-12-10",
	  "rating": 4.1,
	  "aliases": ["2077", "赛博朋克"],
	  "pinyin": "saibopengke"
	}
*/
package catalog

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the layout of Product.ReleaseDate.
const DateLayout = "2006-01-02"

var (
	ErrMissingID    = errors.New("missing id")
	ErrMissingTitle = errors.New("missing title")
	ErrInvalidPrice = errors.New("invalid price")
	ErrInvalidScore = errors.New("rating out of range")
)

// Product is a single storefront entry.
type Product struct {
	ID            string   `json:"id" yaml:"id" msgpack:"id"`
	Title         string   `json:"title" yaml:"title" msgpack:"t"`
	Price         float64  `json:"price" yaml:"price" msgpack:"p"`
	OriginalPrice float64  `json:"originalPrice" yaml:"originalPrice" msgpack:"op"`
	Discount      int      `json:"discount" yaml:"discount" msgpack:"d"`
	Tags          []string `json:"tags" yaml:"tags" msgpack:"tg"`
	Features      []string `json:"features" yaml:"features" msgpack:"f"`
	ReleaseDate   string   `json:"releaseDate" yaml:"releaseDate" msgpack:"rd"`
	Rating        float64  `json:"rating" yaml:"rating" msgpack:"r"`
	Aliases       []string `json:"aliases,omitempty" yaml:"aliases,omitempty" msgpack:"a,omitempty"`
	Pinyin        string   `json:"pinyin,omitempty" yaml:"pinyin,omitempty" msgpack:"py,omitempty"`
}

// Validate reports why a record cannot take part in filtering.
func (p Product) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.Title == "" {
		return fmt.Errorf("product %s: %w", p.ID, ErrMissingTitle)
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return fmt.Errorf("product %s: %w (%v)", p.ID, ErrInvalidPrice, p.Price)
	}
	if math.IsNaN(p.Rating) || p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("product %s: %w (%v)", p.ID, ErrInvalidScore, p.Rating)
	}
	return nil
}

// Released parses ReleaseDate.
func (p Product) Released() (time.Time, error) {
	return time.Parse(DateLayout, p.ReleaseDate)
}

// SearchTerms returns the alternate strings a query may hit: aliases first,
// then the pinyin spelling.
func (p Product) SearchTerms() []string {
	terms := make([]string, 0, len(p.Aliases)+1)
	terms = append(terms, p.Aliases...)
	if p.Pinyin != "" {
		terms = append(terms, p.Pinyin)
	}
	return terms
}

// HasTag reports whether tag is one of the product's tags.
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasFeature reports whether feature is one of the product's features.
func (p Product) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't reach into a snapshot's slices.
func (p Product) Clone() Product {
	c := p
	c.Tags = cloneStrings(p.Tags)
	c.Features = cloneStrings(p.Features)
	c.Aliases = cloneStrings(p.Aliases)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
