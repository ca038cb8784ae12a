package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/crud"
	"github.com/odyssey-erp/odyssey-console/internal/pagination"
	"github.com/odyssey-erp/odyssey-console/internal/search"
)

// Resources resolves list resources by name.
type Resources interface {
	Raw(name string) (*crud.Resource[map[string]any], bool)
	Names() []string
}

// ListOptions narrows what List prints.
type ListOptions struct {
	Page    int
	Columns []string
	Filters map[string]string
}

// ListCLI prints master-data and document lists for operators.
type ListCLI struct {
	resources Resources
	pageSize  int
	logger    *slog.Logger
	printer   *message.Printer

	mu  sync.Mutex
	out io.Writer
}

// NewListCLI constructs the helper. Amounts are grouped for lang.
func NewListCLI(resources Resources, pageSize int, out io.Writer, lang language.Tag, logger *slog.Logger) *ListCLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListCLI{
		resources: resources,
		pageSize:  pageSize,
		logger:    logger,
		printer:   message.NewPrinter(lang),
		out:       out,
	}
}

func (c *ListCLI) view(resource string) (*crud.ListView[map[string]any], error) {
	res, ok := c.resources.Raw(resource)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (known: %s)", resource, strings.Join(c.resources.Names(), ", "))
	}
	return crud.NewListView(res, c.pageSize, pagination.MapAccessor, c.logger)
}

// List fetches resource and prints one filtered page.
func (c *ListCLI) List(ctx context.Context, resource string, opts ListOptions) error {
	view, err := c.view(resource)
	if err != nil {
		return err
	}
	if err := view.Refresh(ctx); err != nil {
		return errors.New(apiclient.UserMessage(err))
	}
	for field, value := range opts.Filters {
		view.Pager().SetSearchTerm(field, value)
	}
	if opts.Page > 0 {
		view.Pager().GoToPage(opts.Page)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.printPage(view.Page(), opts.Columns)
}

// Watch reads search terms for field from in, one per line, and prints the
// matching first page once typing pauses for delay. It returns after the
// last term was answered or ctx ends.
func (c *ListCLI) Watch(ctx context.Context, resource, field string, in io.Reader, delay time.Duration, columns []string) error {
	view, err := c.view(resource)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	answered := make(chan string)

	searcher := search.NewSearcher(ctx, delay,
		func(ctx context.Context, q string) (pagination.Page[map[string]any], error) {
			if err := view.Refresh(ctx); err != nil {
				return pagination.Page[map[string]any]{}, err
			}
			matches, err := pagination.New(view.Pager().Filtered(), c.pageSize, pagination.MapAccessor)
			if err != nil {
				return pagination.Page[map[string]any]{}, err
			}
			matches.SetSearchTerm(field, q)
			return matches.Snapshot(), nil
		},
		func(q string, page pagination.Page[map[string]any], err error) {
			c.mu.Lock()
			if err != nil {
				_, _ = fmt.Fprintf(c.out, "search %q: %s\n", q, apiclient.UserMessage(err))
			} else if perr := c.printPage(page, columns); perr != nil {
				c.logger.Warn("print page", slog.Any("error", perr))
			}
			c.mu.Unlock()
			select {
			case answered <- q:
			case <-done:
			}
		})
	defer searcher.Stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
	}()

	var (
		last    string
		pending bool
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q := <-answered:
			if q == last {
				pending = false
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				if !pending {
					return nil
				}
				continue
			}
			last, pending = line, true
			searcher.Type(line)
		}
		if lines == nil && !pending {
			return nil
		}
	}
}

func (c *ListCLI) printPage(page pagination.Page[map[string]any], columns []string) error {
	if len(columns) == 0 {
		columns = discoverColumns(page.Items)
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	if len(columns) > 0 {
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = strings.ToUpper(col)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range page.Items {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = c.cell(row[col])
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := c.printer.Fprintf(c.out, "page %d of %d (%d records)\n", page.Page, max(page.TotalPages, 1), page.TotalItems)
	return err
}

func (c *ListCLI) cell(v any) string {
	switch n := v.(type) {
	case nil:
		return "-"
	case float64:
		if n == float64(int64(n)) {
			return c.printer.Sprintf("%d", int64(n))
		}
		return c.printer.Sprintf("%.2f", n)
	case map[string]any, []any:
		return "…"
	default:
		return fmt.Sprint(n)
	}
}

// discoverColumns returns the keys present in rows, sorted.
func discoverColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
