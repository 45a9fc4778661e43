package browse

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 12

// Paginate returns the 1-based page of items.
// A page before the first, past the last, or a non-positive size yields an
// empty slice; the bounds never leave [0, len(items)).
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 || len(items) == 0 {
		return []T{}
	}
	// compare page indexes so (page-1)*size cannot overflow
	if page-1 > (len(items)-1)/size {
		return []T{}
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// TotalPages returns how many pages of size n items fill.
func TotalPages(n, size int) int {
	if n <= 0 || size < 1 {
		return 0
	}
	return (n + size - 1) / size
}
