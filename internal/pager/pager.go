// Package pager derives page windows over a flat list. Pages are 1-based.
package pager

// DefaultSize is how many records fit on one page.
const DefaultSize = 3

// PageCount is ceil(n/size), never negative.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Bounds returns the half-open range [start, end) of page within a list of
// length n, clamped to the list.
func Bounds(n, page, size int) (start, end int) {
	if n <= 0 || size <= 0 || page < 1 {
		return 0, 0
	}
	start = min((page-1)*size, n)
	end = min(page*size, n)
	return start, end
}

// Window returns the records shown on page.
func Window[T any](list []T, page, size int) []T {
	start, end := Bounds(len(list), page, size)
	return list[start:end:end]
}

// Prev never goes below page 1.
func Prev(page int) int { return max(page-1, 1) }

// Next never goes past count (and never below 1).
func Next(page, count int) int { return max(min(page+1, count), 1) }

// Clamp keeps page inside [1, max(count, 1)].
func Clamp(page, count int) int {
	return max(min(page, count), 1)
}

// Valid reports whether page can be selected directly.
func Valid(page, count int) bool { return page >= 1 && page <= count }

// ShowControls reports whether a page bar is needed at all.
func ShowControls(n, size int) bool { return n > size }

// Pages lists every selectable page number.
func Pages(count int) []int {
	out := make([]int, 0, max(count, 0))
	for p := 1; p <= count; p++ {
		out = append(out, p)
	}
	return out
}
