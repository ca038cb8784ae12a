package pagination

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fruit struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Group *string `json:"group,omitempty"`
	Price float64 `json:"price"`
}

func newFruitPager(t *testing.T, items []fruit, size int) *Pager[fruit] {
	t.Helper()
	p, err := New(items, size, JSONAccessor[fruit]())
	require.NoError(t, err)
	return p
}

func numbered(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{"code": fmt.Sprintf("C%02d", i), "name": fmt.Sprintf("Item %d", i)})
	}
	return out
}

func TestNewRejectsNonPositivePageSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := New([]fruit{}, size, JSONAccessor[fruit]())
		require.ErrorIs(t, err, ErrInvalidPageSize)
	}
}

func TestFilterIsConjunctiveCaseInsensitiveSubstring(t *testing.T) {
	items := []fruit{
		{Code: "A1", Name: "Apple"},
		{Code: "B1", Name: "Banana"},
		{Code: "B2", Name: "Mandarin"},
	}
	p := newFruitPager(t, items, 10)

	p.SetSearchTerm("name", "AN")
	assert.Equal(t, []fruit{items[1], items[2]}, p.CurrentPageData())

	p.SetSearchTerm("code", "b1")
	assert.Equal(t, []fruit{items[1]}, p.CurrentPageData())

	p.SetSearchTerm("code", "")
	assert.Len(t, p.CurrentPageData(), 2)
}

func TestFilterExampleFromListScreen(t *testing.T) {
	source := []map[string]any{
		{"code": "A1", "name": "Apple"},
		{"code": "B1", "name": "Banana"},
	}
	p, err := New(source, 5, MapAccessor)
	require.NoError(t, err)

	p.SetSearchTerm("name", "an")
	require.Len(t, p.CurrentPageData(), 1)
	assert.Equal(t, "B1", p.CurrentPageData()[0]["code"])
}

func TestMissingFieldNeverMatchesNonEmptyTerm(t *testing.T) {
	group := "citrus"
	items := []fruit{
		{Code: "L1", Name: "Lemon", Group: &group},
		{Code: "P1", Name: "Pear"},
	}
	p := newFruitPager(t, items, 10)

	p.SetSearchTerm("group", "c")
	assert.Equal(t, []fruit{items[0]}, p.Filtered())

	p.SetSearchTerm("group", "")
	p.SetSearchTerm("unknown", "x")
	assert.Empty(t, p.Filtered())
}

func TestNonStringFieldsCompareByTextForm(t *testing.T) {
	items := []fruit{{Code: "A", Price: 12.5}, {Code: "B", Price: 3}}
	p := newFruitPager(t, items, 10)

	p.SetSearchTerm("price", "12.5")
	assert.Equal(t, []fruit{items[0]}, p.Filtered())
}

func TestDecodedNumbersFilterByPlainDigits(t *testing.T) {
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(`[{"sku":"A","price":1500000},{"sku":"B","price":25},{"sku":"C","price":0.000001}]`), &records))
	p, err := New(records, 10, MapAccessor)
	require.NoError(t, err)

	p.SetSearchTerm("price", "1500")
	require.Len(t, p.Filtered(), 1)
	assert.Equal(t, "A", p.Filtered()[0]["sku"])

	p.SetSearchTerm("price", "0.000001")
	require.Len(t, p.Filtered(), 1)
	assert.Equal(t, "C", p.Filtered()[0]["sku"])
}

func TestTextOf(t *testing.T) {
	assert.Equal(t, "1500000", textOf(1500000.0))
	assert.Equal(t, "12.5", textOf(float32(12.5)))
	assert.Equal(t, "1e+21", textOf(1e21))
	assert.Equal(t, "42", textOf(json.Number("42")))
	assert.Equal(t, "true", textOf(true))
	assert.Equal(t, "7", textOf(7))
}

func TestPaginationBounds(t *testing.T) {
	p, err := New(numbered(25), 10, MapAccessor)
	require.NoError(t, err)
	require.Equal(t, 3, p.TotalPages())

	p.PrevPage()
	assert.Equal(t, 1, p.CurrentPage())

	p.NextPage()
	p.NextPage()
	assert.Equal(t, 3, p.CurrentPage())
	assert.Len(t, p.CurrentPageData(), 5)

	p.NextPage()
	assert.Equal(t, 3, p.CurrentPage())

	p.GoToPage(99)
	assert.Equal(t, 3, p.CurrentPage())
	p.GoToPage(-1)
	assert.Equal(t, 1, p.CurrentPage())

	p.SetCurrentPage(2)
	assert.Equal(t, "C11", p.CurrentPageData()[0]["code"])
	p.SetCurrentPage(40)
	assert.Equal(t, 3, p.CurrentPage())
}

func TestEmptyListHasZeroPagesButStaysOnPageOne(t *testing.T) {
	p, err := New([]map[string]any{}, 10, MapAccessor)
	require.NoError(t, err)

	assert.Equal(t, 0, p.TotalPages())
	assert.Equal(t, 1, p.CurrentPage())
	p.NextPage()
	assert.Equal(t, 1, p.CurrentPage())
	assert.Empty(t, p.CurrentPageData())
}

func TestSetSearchTermResetsToFirstPage(t *testing.T) {
	p, err := New(numbered(30), 10, MapAccessor)
	require.NoError(t, err)
	p.GoToPage(3)

	p.SetSearchTerm("name", "no such item")
	assert.Equal(t, 1, p.CurrentPage())
	assert.Equal(t, 0, p.TotalPages())

	p.SetSearchTerm("name", "")
	p.GoToPage(2)
	p.SetSearchTerm("name", "item")
	assert.Equal(t, 1, p.CurrentPage())
}

func TestSetSourceClampsCurrentPage(t *testing.T) {
	p, err := New(numbered(30), 10, MapAccessor)
	require.NoError(t, err)
	p.GoToPage(3)

	p.SetSource(numbered(12))
	assert.Equal(t, 2, p.CurrentPage())
	assert.Len(t, p.CurrentPageData(), 2)
}

func TestSnapshotCarriesMetadata(t *testing.T) {
	p, err := New(numbered(11), 5, MapAccessor)
	require.NoError(t, err)
	p.SetSearchTerm("name", "item 1")
	snap := p.Snapshot()

	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 5, snap.PageSize)
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 1, snap.TotalPages)
	assert.Equal(t, map[string]string{"name": "item 1"}, snap.Search)
}
