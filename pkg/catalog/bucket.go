package catalog

// PriceBucket is a named price range with an inclusive lower bound and an
// optional inclusive upper bound.
type PriceBucket struct {
	ID    string   `json:"id" toml:"id" msgpack:"id"`
	Label string   `json:"label" toml:"label" msgpack:"l"`
	Min   float64  `json:"min" toml:"min" msgpack:"min"`
	Max   *float64 `json:"max" toml:"max,omitempty" msgpack:"max"`
}

// BucketCount pairs a bucket with the number of products inside it.
type BucketCount struct {
	PriceBucket
	Count int `json:"count" msgpack:"c"`
}

// Contains reports whether price falls inside the bucket.
func (b PriceBucket) Contains(price float64) bool {
	if price < b.Min {
		return false
	}
	return b.Max == nil || price <= *b.Max
}

func bound(v float64) *float64 {
	return &v
}

// DefaultBuckets returns the storefront price ranges.
// A fresh slice is returned on every call.
func DefaultBuckets() []PriceBucket {
	return []PriceBucket{
		{ID: "free", Label: "免费", Min: 0, Max: bound(0)},
		{ID: "under-50", Label: "¥50 以下", Min: 0, Max: bound(50)},
		{ID: "50-200", Label: "¥50 - ¥200", Min: 50, Max: bound(200)},
		{ID: "200-plus", Label: "¥200 以上", Min: 200, Max: nil},
	}
}

// FindBucket looks a bucket up by ID.
func FindBucket(buckets []PriceBucket, id string) (PriceBucket, bool) {
	for _, b := range buckets {
		if b.ID == id {
			return b, true
		}
	}
	return PriceBucket{}, false
}

// BucketCounts counts the products in each bucket, keeping bucket order.
// Invalid records are not counted.
func BucketCounts(buckets []PriceBucket, products []Product) []BucketCount {
	counts := make([]BucketCount, len(buckets))
	for i, b := range buckets {
		counts[i].PriceBucket = b
	}
	for _, p := range products {
		if p.Validate() != nil {
			continue
		}
		for i := range counts {
			if counts[i].Contains(p.Price) {
				counts[i].Count++
			}
		}
	}
	return counts
}
