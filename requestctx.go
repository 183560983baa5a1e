package larafront

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pthm/larafront/lib/dom"
)

// RequestContext is the data gathered for one dispatched event.
type RequestContext struct {
	// Fields holds data-* attributes and form values. Form values win on
	// collision.
	Fields map[string]any
	// Files holds selected files keyed by input name.
	Files map[string][]*dom.File
}

// BuildRequestContext collects the data for an event on target.
//
// The target's data-* attributes sit at the top level. Each ancestor that
// declares a name attribute contributes its own data-* attributes as a
// nested object keyed by the snake_cased name, the outermost named
// ancestor at the top and the closest one innermost. If target belongs to
// a form, the serialized form is deep-merged over the result and the
// form's files are collected.
func BuildRequestContext(target *dom.Element) *RequestContext {
	return BuildRequestContextWithin(target, nil)
}

// BuildRequestContextWithin is BuildRequestContext for an event that
// reached the bound element through target. The data-* attributes of every
// element from target up to bound, inclusive, sit at the top level; the
// closest element wins.
func BuildRequestContextWithin(target, bound *dom.Element) *RequestContext {
	rc := &RequestContext{
		Fields: make(map[string]any),
		Files:  make(map[string][]*dom.File),
	}
	if target == nil {
		return rc
	}

	for k, v := range dataValues(target) {
		rc.Fields[k] = v
	}
	if bound != nil && !bound.Is(target) && bound.Contains(target) {
		for p := target.Parent(); p != nil; p = p.Parent() {
			for k, v := range dataValues(p) {
				if _, exists := rc.Fields[k]; !exists {
					rc.Fields[k] = v
				}
			}
			if p.Is(bound) {
				break
			}
		}
	}

	var named []*dom.Element
	for p := target.Parent(); p != nil; p = p.Parent() {
		if name, ok := p.Attr("name"); ok && strings.TrimSpace(name) != "" {
			named = append(named, p)
		}
	}
	// named is closest first; nest outermost first.
	level := rc.Fields
	for i := len(named) - 1; i >= 0; i-- {
		key := snake(named[i].AttrOr("name", ""))
		child, _ := level[key].(map[string]any)
		if child == nil {
			child = make(map[string]any)
		}
		for k, v := range dataValues(named[i]) {
			if _, exists := child[k]; !exists {
				child[k] = v
			}
		}
		level[key] = child
		level = child
	}

	if form := target.Form(); form != nil {
		deepMerge(rc.Fields, form.Serialize())
		rc.Files = form.FormFiles()
	}
	return rc
}

// dataValues returns an element's data-* attributes with camelCased keys
// and coerced values.
func dataValues(e *dom.Element) map[string]any {
	raw := e.Data()
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[camel(k)] = coerceData(v)
	}
	return out
}

// deepMerge merges src into dst. Nested maps merge recursively; any other
// src value replaces the dst value.
func deepMerge(dst, src map[string]any) {
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				deepMerge(dm, sm)
				continue
			}
		}
		dst[k] = sv
	}
}

// lookupFold finds key in fields ignoring case. An exact match is
// preferred.
func lookupFold(fields map[string]any, key string) (any, bool) {
	if v, ok := fields[key]; ok {
		return v, true
	}
	want := cases.Fold().String(key)
	for k, v := range fields {
		if cases.Fold().String(k) == want {
			return v, true
		}
	}
	return nil, false
}

// snake converts "userCard", "User-Card" or "user card" to "user_card".
func snake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '-' || r == ' ' || r == '.':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}

// camel converts a data attribute suffix like "user-id" to "userId".
func camel(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		r := []rune(parts[i])
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "")
}
