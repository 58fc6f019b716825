// Package pagination converts page/perPage query parameters into a
// deterministic limit/offset window.
package pagination

import "strconv"

// Paginate resolves the raw page and perPage query values against
// defaultPerPage. Values that are absent, non-numeric or not positive fall
// back to page 1 and defaultPerPage. It always returns a usable window; any
// cap on result size is the store adapter's concern.
func Paginate(page, perPage string, defaultPerPage int) (limit, offset int) {
	p := parsePositive(page, 1)
	limit = parsePositive(perPage, defaultPerPage)
	offset = (p - 1) * limit
	return limit, offset
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
