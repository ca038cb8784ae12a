// Package crud binds a record type to one backend resource and keeps a paged
// view of it.
package crud

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

// ErrMissingID is returned when an operation needs a record id and got none.
var ErrMissingID = errors.New("crud: record id required")

// Resource performs CRUD calls for records of type T against one endpoint.
type Resource[T any] struct {
	client *apiclient.Client
	path   string
	check  func(T) error
}

// Option customises a Resource.
type Option[T any] func(*Resource[T])

// WithValidator adds a check that runs after tag validation on every write.
func WithValidator[T any](fn func(T) error) Option[T] {
	return func(r *Resource[T]) {
		r.check = fn
	}
}

// NewResource binds T to path on client.
func NewResource[T any](client *apiclient.Client, path string, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{client: client, path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the endpoint path.
func (r *Resource[T]) Path() string {
	return r.path
}

// List fetches every record. query is passed through as-is.
func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var out []T
	if err := r.client.GetJSON(ctx, r.path, query, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	if strings.TrimSpace(id) == "" {
		return out, ErrMissingID
	}
	err := r.client.GetJSON(ctx, apiclient.JoinPath(r.path, id), nil, &out)
	return out, err
}

// Create validates record and posts it. The backend's echo, when present,
// is returned; otherwise the submitted record is.
func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	if err := r.validate(record); err != nil {
		return record, err
	}
	out := record
	err := r.client.PostJSON(ctx, r.path, record, &out)
	return out, err
}

// CreateMultipart validates record and posts it with attachments.
func (r *Resource[T]) CreateMultipart(ctx context.Context, record T, files []apiclient.Attachment) (T, error) {
	if err := r.validate(record); err != nil {
		return record, err
	}
	out := record
	err := r.client.PostMultipart(ctx, r.path, record, files, &out)
	return out, err
}

// Update validates record and replaces the record stored under id.
func (r *Resource[T]) Update(ctx context.Context, id string, record T) (T, error) {
	if strings.TrimSpace(id) == "" {
		return record, ErrMissingID
	}
	if err := r.validate(record); err != nil {
		return record, err
	}
	out := record
	err := r.client.PutJSON(ctx, apiclient.JoinPath(r.path, id), record, &out)
	return out, err
}

// Delete removes the record stored under id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	return r.client.Delete(ctx, apiclient.JoinPath(r.path, id))
}

func (r *Resource[T]) validate(record T) error {
	if err := Validate(record); err != nil {
		return err
	}
	if r.check != nil {
		return r.check(record)
	}
	return nil
}

// ValidateAs checks a raw record against the validation tags of S.
func ValidateAs[S any](record map[string]any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	var typed S
	if err := json.Unmarshal(raw, &typed); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return validation.Errors{typeErr.Field: "has the wrong type"}
		}
		return validation.Errors{"record": err.Error()}
	}
	return Validate(typed)
}

// Validate runs struct tag validation. Non-struct records, such as raw maps,
// are accepted as-is.
func Validate(record any) error {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return validation.Struct(v.Interface())
}
