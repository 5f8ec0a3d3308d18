package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_NineteenItemsPageSizeTen(t *testing.T) {
	items := seq(19)

	first := Paginate(items, 10, "1")
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)

	second := Paginate(items, 10, "2")
	assert.Len(t, second.Items, 9)
	assert.Equal(t, 2, second.Number)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrevious)
	assert.Equal(t, 10, second.Items[0])
}

func TestPaginate_InvalidRequestFallsBackToFirstPage(t *testing.T) {
	items := seq(19)
	for _, requested := range []string{"", "abc", "0", "-1", "3", "999", "1.5"} {
		t.Run(strconv.Quote(requested), func(t *testing.T) {
			p := Paginate(items, 10, requested)
			assert.Equal(t, 1, p.Number)
			assert.Equal(t, items[:10], p.Items)
		})
	}
}

func TestPaginate_EmptyListingHasOnePage(t *testing.T) {
	p := Paginate([]string{}, 10, "1")
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Number)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.False(t, p.HasNext)

	p = Paginate[string](nil, 10, "5")
	assert.Equal(t, 1, p.Number)
	assert.Empty(t, p.Items)
}

func TestPaginate_PagesConcatenateToListing(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 20, 37} {
		for _, size := range []int{1, 3, 10} {
			items := seq(total)
			first := Paginate(items, size, "1")

			expectedPages := (total + size - 1) / size
			if expectedPages < 1 {
				expectedPages = 1
			}
			require.Equal(t, expectedPages, first.TotalPages, "total=%d size=%d", total, size)

			var joined []int
			for n := 1; n <= first.TotalPages; n++ {
				p := Paginate(items, size, strconv.Itoa(n))
				require.Equal(t, n, p.Number)
				if n < first.TotalPages {
					require.Len(t, p.Items, size)
				}
				joined = append(joined, p.Items...)
			}
			if total == 0 {
				assert.Empty(t, joined)
			} else {
				assert.Equal(t, items, joined, "total=%d size=%d", total, size)
			}
		}
	}
}

func TestResolve_Window(t *testing.T) {
	w := Resolve(19, 10, "2")
	assert.Equal(t, Window{Number: 2, TotalPages: 2, TotalItems: 19, Offset: 10, Limit: 9}, w)

	w = Resolve(0, 10, "1")
	assert.Equal(t, Window{Number: 1, TotalPages: 1, TotalItems: 0, Offset: 0, Limit: 0}, w)

	// non-positive size falls back to the default
	w = Resolve(25, 0, "3")
	assert.Equal(t, 3, w.TotalPages)
	assert.Equal(t, 2*DefaultPageSize, w.Offset)
	assert.Equal(t, 5, w.Limit)
}

func TestMap_KeepsNumbering(t *testing.T) {
	p := Paginate(seq(19), 10, "2")
	mapped := Map(p, func(i int) string { return strconv.Itoa(i) })
	assert.Equal(t, "10", mapped.Items[0])
	assert.Equal(t, p.Number, mapped.Number)
	assert.Equal(t, p.TotalPages, mapped.TotalPages)
}
