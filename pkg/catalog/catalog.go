package catalog

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Catalog is a read-only snapshot of product records.
type Catalog struct {
	products []Product
	byID     map[string]int
	invalid  int
}

// Facet is a tag or feature with the number of products carrying it.
type Facet struct {
	Name  string `json:"name" msgpack:"n"`
	Count int    `json:"count" msgpack:"c"`
}

// New copies products into a snapshot.
// Malformed records are kept, logged and left for the filter to skip.
func New(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.products[i] = p.Clone()
		if err := p.Validate(); err != nil {
			c.invalid++
			log.Debugf("Malformed catalog record at %d: %v", i, err)
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			log.Warnf("Duplicate product id %s, keeping first", p.ID)
			continue
		}
		c.byID[p.ID] = i
	}
	if c.invalid > 0 {
		log.Warnf("Catalog has %d malformed records", c.invalid)
	}
	return c
}

// Len returns the number of records, malformed ones included.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Invalid returns the number of records that fail Validate.
func (c *Catalog) Invalid() int {
	return c.invalid
}

// Products returns a copy of the records in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// ByID returns the record with the given ID.
func (c *Catalog) ByID(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].Clone(), true
}

// Genres returns tag counts, most common first.
func (c *Catalog) Genres() []Facet {
	return c.facets(func(p Product) []string { return p.Tags })
}

// Features returns feature counts, most common first.
func (c *Catalog) Features() []Facet {
	return c.facets(func(p Product) []string { return p.Features })
}

func (c *Catalog) facets(values func(Product) []string) []Facet {
	counts := make(map[string]int)
	for _, p := range c.products {
		if p.Validate() != nil {
			continue
		}
		seen := make(map[string]bool)
		for _, v := range values(p) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			counts[v]++
		}
	}

	facets := make([]Facet, 0, len(counts))
	for name, n := range counts {
		facets = append(facets, Facet{Name: name, Count: n})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Name < facets[j].Name
	})
	return facets
}
