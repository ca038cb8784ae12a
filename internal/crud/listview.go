package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/pagination"
	"github.com/odyssey-erp/odyssey-console/internal/search"
)

// ErrRefresh is returned when a write succeeded but reloading the list
// afterwards failed.
var ErrRefresh = errors.New("crud: saved but list reload failed")

// ListView is the list screen of a resource: the fetched records behind a
// pager. Only the newest refresh may replace the list.
type ListView[T any] struct {
	resource *Resource[T]
	pager    *pagination.Pager[T]
	seq      search.Sequencer
	logger   *slog.Logger
}

// NewListView builds an empty view. Call Refresh to load it.
func NewListView[T any](resource *Resource[T], pageSize int, access pagination.Accessor[T], logger *slog.Logger) (*ListView[T], error) {
	if access == nil {
		access = pagination.JSONAccessor[T]()
	}
	pager, err := pagination.New[T](nil, pageSize, access)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListView[T]{resource: resource, pager: pager, logger: logger}, nil
}

// Resource returns the bound resource.
func (v *ListView[T]) Resource() *Resource[T] {
	return v.resource
}

// Pager exposes paging and filtering over the loaded records.
func (v *ListView[T]) Pager() *pagination.Pager[T] {
	return v.pager
}

// Page returns the current window.
func (v *ListView[T]) Page() pagination.Page[T] {
	return v.pager.Snapshot()
}

// Refresh refetches the list. A refresh overtaken by a newer one is
// cancelled and reports search.ErrStale without touching the pager.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	ctx, seq := v.seq.Begin(ctx)
	defer v.seq.Finish(seq)
	items, err := v.resource.List(ctx, nil)
	if err != nil {
		if !v.seq.Latest(seq) {
			return search.ErrStale
		}
		v.logger.Warn("refresh list failed", slog.String("path", v.resource.Path()), slog.Any("error", err))
		return err
	}
	if !v.seq.Accept(seq, func() { v.pager.SetSource(items) }) {
		return search.ErrStale
	}
	return nil
}

// Create stores record, reloads the list and returns to the first page.
func (v *ListView[T]) Create(ctx context.Context, record T, files []apiclient.Attachment) (T, error) {
	var (
		out T
		err error
	)
	if len(files) > 0 {
		out, err = v.resource.CreateMultipart(ctx, record, files)
	} else {
		out, err = v.resource.Create(ctx, record)
	}
	if err != nil {
		return out, err
	}
	if err := v.Refresh(ctx); err != nil {
		return out, fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	v.pager.SetCurrentPage(1)
	return out, nil
}

// Update replaces the record under id and reloads the list in place.
func (v *ListView[T]) Update(ctx context.Context, id string, record T) (T, error) {
	out, err := v.resource.Update(ctx, id, record)
	if err != nil {
		return out, err
	}
	if err := v.Refresh(ctx); err != nil {
		return out, fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return out, nil
}

// Delete removes the record under id and reloads the list.
func (v *ListView[T]) Delete(ctx context.Context, id string) error {
	if err := v.resource.Delete(ctx, id); err != nil {
		return err
	}
	if err := v.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return nil
}
