package view

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

type scope struct {
	root any
	vars map[string]any
}

func newScope(data any) *scope {
	return &scope{root: data, vars: map[string]any{}}
}

// child returns a scope that sees s's variables and may shadow them.
func (s *scope) child() *scope {
	vars := make(map[string]any, len(s.vars)+2)
	for k, v := range s.vars {
		vars[k] = v
	}
	return &scope{root: s.root, vars: vars}
}

func (s *scope) resolve(path string) (any, bool) {
	parts := strings.Split(path, ".")
	v, ok := s.vars[parts[0]]
	if !ok {
		v, ok = Lookup(s.root, parts[0])
	}
	for _, part := range parts[1:] {
		if !ok {
			return nil, false
		}
		v, ok = Lookup(v, part)
	}
	return v, ok
}

// Lookup returns the member key of v: a map entry, a slice element by
// index, or a struct field by name or json tag.
func Lookup(v any, key string) (any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		x, ok := m[key]
		return x, ok
	case map[string]string:
		x, ok := m[key]
		return x, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(m) {
			return nil, false
		}
		return m[i], true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		x := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if f.Name == key || tag == key || (tag == "" && strings.EqualFold(f.Name, key)) {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

// Truthy reports whether v counts as true in @if conditions.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil() && Truthy(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

type item struct {
	key   any
	value any
	pair  bool
}

func iterate(v any) []item {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]item, rv.Len())
		for i := range out {
			out[i] = item{key: i, value: rv.Index(i).Interface()}
		}
		return out
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]item, len(keys))
		for i, k := range keys {
			out[i] = item{key: k.Interface(), value: rv.MapIndex(k).Interface(), pair: true}
		}
		return out
	}
	return nil
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// formatRaw renders v without escaping. Components render in place;
// composite values become indented JSON.
func formatRaw(v any) string {
	if c, ok := v.(templ.Component); ok {
		var buf bytes.Buffer
		if err := c.Render(context.Background(), &buf); err != nil {
			return ""
		}
		return buf.String()
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if _, ok := v.([]byte); ok {
			break
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			return string(b)
		}
	}
	return format(v)
}

func escape(s string) string {
	return html.EscapeString(s)
}
