// internal/tender/pagination.go
package tender

// PageItem is one pagination control: either a concrete page number or
// an ellipsis gap.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Window computes the bounded, ellipsis-collapsed page controls for the
// result list. Up to 7 pages every page is shown; beyond that the window
// keeps page 1, the last page and a neighborhood of the current page.
func Window(currentPage, totalPages int) []PageItem {
	if totalPages < 1 {
		totalPages = 1
	}
	currentPage = ClampPage(currentPage, totalPages)

	if totalPages <= 7 {
		items := make([]PageItem, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			items = append(items, PageItem{Page: p})
		}
		return items
	}

	switch {
	case currentPage <= 3:
		return []PageItem{
			{Page: 1}, {Page: 2}, {Page: 3}, {Page: 4}, {Page: 5},
			{Ellipsis: true},
			{Page: totalPages},
		}
	case currentPage >= totalPages-2:
		return []PageItem{
			{Page: 1},
			{Ellipsis: true},
			{Page: totalPages - 4}, {Page: totalPages - 3}, {Page: totalPages - 2},
			{Page: totalPages - 1}, {Page: totalPages},
		}
	default:
		return []PageItem{
			{Page: 1},
			{Ellipsis: true},
			{Page: currentPage - 1}, {Page: currentPage}, {Page: currentPage + 1},
			{Ellipsis: true},
			{Page: totalPages},
		}
	}
}

// ClampPage bounds a requested page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// CanNavigate reports whether moving from currentPage to target is a
// real navigation: the already-current page and anything outside
// [1, totalPages] are no-ops.
func CanNavigate(currentPage, target, totalPages int) bool {
	if target == currentPage {
		return false
	}
	return target >= 1 && target <= totalPages
}
