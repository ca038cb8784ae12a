// Package pagination keeps a paged, filterable window over a list that has
// already been fetched into memory.
package pagination

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidPageSize is returned when a pager is configured with a page size below one.
var ErrInvalidPageSize = errors.New("pagination: page size must be positive")

// Page is a serialisable snapshot of the current window.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Search     map[string]string `json:"search,omitempty"`
}

// Pager filters a caller-owned list by per-field substring terms and slices
// the result into fixed-size pages. It is safe for concurrent use.
type Pager[T any] struct {
	mu       sync.RWMutex
	source   []T
	filtered []T
	terms    map[string]string
	page     int
	size     int
	access   Accessor[T]
}

// New builds a pager over source. The accessor resolves a record field by name.
func New[T any](source []T, pageSize int, access Accessor[T]) (*Pager[T], error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}
	if access == nil {
		return nil, errors.New("pagination: accessor required")
	}
	p := &Pager[T]{
		source: source,
		terms:  make(map[string]string),
		page:   1,
		size:   pageSize,
		access: access,
	}
	p.refilter()
	return p, nil
}

// SetSource replaces the underlying list and keeps the current page in range.
func (p *Pager[T]) SetSource(source []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.refilter()
	p.page = clamp(p.page, p.lastPage())
}

// SetSearchTerm filters field by value. An empty value clears the filter.
// The pager always returns to the first page.
func (p *Pager[T]) SetSearchTerm(field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == "" {
		delete(p.terms, field)
	} else {
		p.terms[field] = value
	}
	p.refilter()
	p.page = 1
}

// SearchTerms returns a copy of the active filters.
func (p *Pager[T]) SearchTerms() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.terms))
	for k, v := range p.terms {
		out[k] = v
	}
	return out
}

// NextPage advances one page unless already on the last one.
func (p *Pager[T]) NextPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = clamp(p.page+1, p.lastPage())
}

// PrevPage goes back one page unless already on the first one.
func (p *Pager[T]) PrevPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = clamp(p.page-1, p.lastPage())
}

// GoToPage jumps to n, clamped into the available range.
func (p *Pager[T]) GoToPage(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = clamp(n, p.lastPage())
}

// SetCurrentPage is the direct setter used by callers, e.g. to return to the
// first page after an insert. Out-of-range values are clamped.
func (p *Pager[T]) SetCurrentPage(n int) {
	p.GoToPage(n)
}

// CurrentPage returns the 1-based page number.
func (p *Pager[T]) CurrentPage() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page
}

// PageSize returns the configured page size.
func (p *Pager[T]) PageSize() int {
	return p.size
}

// TotalPages is zero for an empty filtered list.
func (p *Pager[T]) TotalPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPages()
}

// Filtered returns every record that passes the active filters.
func (p *Pager[T]) Filtered() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]T(nil), p.filtered...)
}

// CurrentPageData returns the records on the current page.
func (p *Pager[T]) CurrentPageData() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.window()
}

// Snapshot captures the current page together with its metadata.
func (p *Pager[T]) Snapshot() Page[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	terms := make(map[string]string, len(p.terms))
	for k, v := range p.terms {
		terms[k] = v
	}
	return Page[T]{
		Items:      p.window(),
		Page:       p.page,
		PageSize:   p.size,
		TotalPages: p.totalPages(),
		TotalItems: len(p.filtered),
		Search:     terms,
	}
}

func (p *Pager[T]) window() []T {
	start := (p.page - 1) * p.size
	if start >= len(p.filtered) {
		return []T{}
	}
	end := start + p.size
	if end > len(p.filtered) {
		end = len(p.filtered)
	}
	return append([]T(nil), p.filtered[start:end]...)
}

func (p *Pager[T]) refilter() {
	if len(p.terms) == 0 {
		p.filtered = append([]T(nil), p.source...)
		return
	}
	p.filtered = p.filtered[:0:0]
	for _, record := range p.source {
		if p.matches(record) {
			p.filtered = append(p.filtered, record)
		}
	}
}

func (p *Pager[T]) matches(record T) bool {
	for field, term := range p.terms {
		if term == "" {
			continue
		}
		value, ok := p.access(record, field)
		if !ok || value == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(textOf(value)), strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// textOf renders value the way a JSON front end prints it: plain decimal
// notation for numbers below 1e21, String() for Stringers.
func textOf(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(v float64, bits int) string {
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'e', -1, bits)
	}
	return strconv.FormatFloat(v, 'f', -1, bits)
}

func (p *Pager[T]) totalPages() int {
	return (len(p.filtered) + p.size - 1) / p.size
}

func (p *Pager[T]) lastPage() int {
	if total := p.totalPages(); total > 1 {
		return total
	}
	return 1
}

func clamp(n, last int) int {
	if n < 1 {
		return 1
	}
	if n > last {
		return last
	}
	return n
}
