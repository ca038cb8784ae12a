package pagination

import (
	"reflect"
	"strings"
	"sync"
)

// Accessor resolves the value stored under field on record. The boolean is
// false when the record carries no value for that field.
type Accessor[T any] func(record T, field string) (any, bool)

// MapAccessor reads fields from decoded JSON objects.
func MapAccessor(record map[string]any, field string) (any, bool) {
	value, ok := record[field]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// JSONAccessor reads struct fields by their JSON name. Nil pointers count as
// missing values.
func JSONAccessor[T any]() Accessor[T] {
	return func(record T, field string) (any, bool) {
		v := reflect.ValueOf(record)
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			mv := v.MapIndex(reflect.ValueOf(field).Convert(v.Type().Key()))
			return indirect(mv)
		case reflect.Struct:
			index, ok := jsonFields(v.Type())[field]
			if !ok {
				return nil, false
			}
			fv, err := v.FieldByIndexErr(index)
			if err != nil {
				return nil, false
			}
			return indirect(fv)
		default:
			return nil, false
		}
	}
}

func indirect(v reflect.Value) (any, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

var fieldCache sync.Map

func jsonFields(t reflect.Type) map[string][]int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	fields := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if _, exists := fields[name]; !exists {
			fields[name] = f.Index
		}
	}
	fieldCache.Store(t, fields)
	return fields
}
