// internal/tender/pagination_test.go
package tender

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pagesOf(items []PageItem) []int {
	var out []int
	for _, it := range items {
		if !it.Ellipsis {
			out = append(out, it.Page)
		}
	}
	return out
}

func containsPage(items []PageItem, page int) bool {
	for _, it := range items {
		if !it.Ellipsis && it.Page == page {
			return true
		}
	}
	return false
}

func TestWindow_SmallTotals(t *testing.T) {
	for total := 1; total <= 7; total++ {
		for current := 1; current <= total; current++ {
			items := Window(current, total)

			expected := make([]int, 0, total)
			for p := 1; p <= total; p++ {
				expected = append(expected, p)
			}
			assert.Equal(t, expected, pagesOf(items), "total=%d current=%d", total, current)

			for _, it := range items {
				assert.False(t, it.Ellipsis, "no ellipsis expected for total=%d", total)
			}
		}
	}
}

func TestWindow_Regimes(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected []PageItem
	}{
		{
			name:    "near start",
			current: 2, total: 20,
			expected: []PageItem{
				{Page: 1}, {Page: 2}, {Page: 3}, {Page: 4}, {Page: 5},
				{Ellipsis: true}, {Page: 20},
			},
		},
		{
			name:    "start boundary",
			current: 3, total: 20,
			expected: []PageItem{
				{Page: 1}, {Page: 2}, {Page: 3}, {Page: 4}, {Page: 5},
				{Ellipsis: true}, {Page: 20},
			},
		},
		{
			name:    "middle",
			current: 10, total: 20,
			expected: []PageItem{
				{Page: 1}, {Ellipsis: true},
				{Page: 9}, {Page: 10}, {Page: 11},
				{Ellipsis: true}, {Page: 20},
			},
		},
		{
			name:    "near end",
			current: 19, total: 20,
			expected: []PageItem{
				{Page: 1}, {Ellipsis: true},
				{Page: 16}, {Page: 17}, {Page: 18}, {Page: 19}, {Page: 20},
			},
		},
		{
			name:    "end boundary",
			current: 18, total: 20,
			expected: []PageItem{
				{Page: 1}, {Ellipsis: true},
				{Page: 16}, {Page: 17}, {Page: 18}, {Page: 19}, {Page: 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Window(tt.current, tt.total))
		})
	}
}

func TestWindow_Invariants(t *testing.T) {
	for _, total := range []int{8, 9, 15, 50, 1000} {
		for current := 1; current <= total; current += 1 + total/20 {
			t.Run(fmt.Sprintf("total=%d/current=%d", total, current), func(t *testing.T) {
				items := Window(current, total)

				assert.LessOrEqual(t, len(items), 7)
				assert.True(t, containsPage(items, 1), "window must contain page 1")
				assert.True(t, containsPage(items, total), "window must contain the last page")
				assert.True(t, containsPage(items, current), "window must contain the current page")

				prevEllipsis := false
				for _, it := range items {
					if it.Ellipsis {
						assert.False(t, prevEllipsis, "adjacent ellipses")
					} else {
						assert.GreaterOrEqual(t, it.Page, 1)
						assert.LessOrEqual(t, it.Page, total)
					}
					prevEllipsis = it.Ellipsis
				}
			})
		}
	}
}

func TestWindow_ClampsOutOfRangeCurrent(t *testing.T) {
	assert.True(t, containsPage(Window(99, 20), 20))
	assert.True(t, containsPage(Window(-3, 20), 1))
	assert.Equal(t, []PageItem{{Page: 1}}, Window(5, 0))
}

func TestCanNavigate(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		target   int
		total    int
		expected bool
	}{
		{"same page is a no-op", 2, 2, 3, false},
		{"past the end is a no-op", 1, 4, 3, false},
		{"below one is a no-op", 1, 0, 3, false},
		{"valid forward", 1, 2, 3, true},
		{"valid backward", 3, 1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanNavigate(tt.current, tt.target, tt.total))
		})
	}
}
