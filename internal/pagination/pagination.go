// Package pagination computes page boundaries and the visible page-number window.
package pagination

// DefaultWindow is the number of page buttons shown around the current page.
const DefaultWindow = 5

// Pager tracks the current page (1-indexed) against a fixed page count.
type Pager struct {
	Current int
	Total   int
}

// New returns a pager positioned on page 1.
func New(total int) Pager {
	if total < 0 {
		total = 0
	}
	return Pager{Current: 1, Total: total}
}

// TotalPages is ceil(catalogSize / pageSize).
func TotalPages(catalogSize, pageSize int) int {
	if catalogSize <= 0 || pageSize <= 0 {
		return 0
	}
	return (catalogSize + pageSize - 1) / pageSize
}

// Offset returns the zero-based index of the first record on page.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize <= 0 {
		return 0
	}
	return (page - 1) * pageSize
}

// Bounds returns the [start, end) slice bounds of page within a sequence of length n.
func Bounds(page, pageSize, n int) (start, end int) {
	start = min(Offset(page, pageSize), n)
	end = min(start+max(pageSize, 0), n)
	return start, end
}

// Next advances one page. It reports whether the page changed.
func (p *Pager) Next() bool {
	if p.Current >= p.Total {
		return false
	}
	p.Current++
	return true
}

// Prev moves back one page. It reports whether the page changed.
func (p *Pager) Prev() bool {
	if p.Current <= 1 {
		return false
	}
	p.Current--
	return true
}

// GoTo jumps to page n. Pages outside [1, Total] are ignored.
func (p *Pager) GoTo(n int) bool {
	if n < 1 || n > p.Total || n == p.Current {
		return false
	}
	p.Current = n
	return true
}

// Window returns up to size contiguous page numbers centered on current and
// clamped to [1, total].
func Window(current, total, size int) []int {
	if total <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultWindow
	}
	current = min(max(current, 1), total)

	start := max(1, current-size/2)
	end := min(total, start+size-1)
	if end-start+1 < size {
		start = max(1, end-size+1)
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// Affordances says which jump controls surround the window.
type Affordances struct {
	First            bool // jump-to-page-1 button
	LeadingEllipsis  bool
	TrailingEllipsis bool
	Last             bool // jump-to-last-page button
}

// AffordancesFor mirrors the five-wide window: page 1 is offered once the
// window no longer starts there, and likewise for the last page.
func AffordancesFor(current, total int) Affordances {
	return Affordances{
		First:            current > 3,
		LeadingEllipsis:  current > 4,
		TrailingEllipsis: current < total-3,
		Last:             current < total-2,
	}
}
