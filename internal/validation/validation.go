// Package validation runs client-side form checks before anything is sent
// to the backend.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation marks client-side validation failures.
var ErrValidation = errors.New("validation failed")

// DateLayout is the date format used by form inputs.
const DateLayout = "2006-01-02"

// Errors maps a field name to a human-readable problem.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrValidation.
func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// Add records msg for field unless the field already has a problem.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Err returns nil when no problem was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v against its `validate` tags. Field keys use JSON names
// with their path, e.g. "lines[0].productCode".
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := Errors{}
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), message(fe))
	}
	return out
}

// Merge folds other into e.
func (e Errors) Merge(other error) error {
	if other == nil {
		return nil
	}
	var errs Errors
	if !errors.As(other, &errs) {
		return other
	}
	for k, v := range errs {
		e.Add(k, v)
	}
	return nil
}

// MaxDecimalDigits bounds the integer digits accepted by Decimal.
const MaxDecimalDigits = 30

// Decimal checks that raw is a number of at most MaxDecimalDigits integer
// digits, optionally non-negative.
func Decimal(errs Errors, field, raw string, nonNegative bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(field, "must be a number")
		return
	}
	if !d.IsZero() && d.NumDigits()+int(d.Exponent()) > MaxDecimalDigits {
		errs.Add(field, "is out of range")
		return
	}
	if nonNegative && d.IsNegative() {
		errs.Add(field, "must not be negative")
	}
}

// DateOrder checks that end is not before start. Empty values are skipped.
func DateOrder(errs Errors, startField, start, endField, end string) {
	if start == "" || end == "" {
		return
	}
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		errs.Add(startField, "must be a date (YYYY-MM-DD)")
		return
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		errs.Add(endField, "must be a date (YYYY-MM-DD)")
		return
	}
	if to.Before(from) {
		errs.Add(endField, fmt.Sprintf("must not be before %s", startField))
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
