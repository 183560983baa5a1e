package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrSelector is returned when a selector cannot be compiled.
var ErrSelector = errors.New("dom: invalid selector")

// Selector is a compiled CSS selector list.
//
// Supported syntax covers what controllers use to locate elements:
//
//	form#login            tag and id
//	.btn.primary          one or more classes
//	[data-modal]          attribute presence
//	[type="submit"]       attribute equality (also ^= $= *= ~=)
//	.card button          descendant combinator
//	ul > li               child combinator
//	a, button             selector lists
//
// Pseudo-classes are not supported.
type Selector []complexSelector

type complexSelector struct {
	parts []compound
	combs []byte // combs[i] joins parts[i] and parts[i+1]: ' ' or '>'
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
}

type attrCond struct {
	name string
	op   string
	val  string
}

// Compile parses a selector list.
func Compile(s string) (Selector, error) {
	var sel Selector
	for _, part := range splitList(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty selector in %q", ErrSelector, s)
		}
		c, err := parseComplex(part)
		if err != nil {
			return nil, err
		}
		sel = append(sel, c)
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSelector, s)
	}
	return sel, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(s string) Selector {
	sel, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// Match reports whether n matches any selector in the list.
func (s Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range s {
		if c.matchFrom(len(c.parts)-1, n) {
			return true
		}
	}
	return false
}

func (c complexSelector) matchFrom(i int, n *html.Node) bool {
	if !c.parts[i].match(n) {
		return false
	}
	if i == 0 {
		return true
	}
	if c.combs[i-1] == '>' {
		p := parentElement(n)
		return p != nil && c.matchFrom(i-1, p)
	}
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if c.matchFrom(i-1, p) {
			return true
		}
	}
	return false
}

func (c compound) match(n *html.Node) bool {
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && getAttr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range c.classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.name)
		if !ok {
			return false
		}
		switch a.op {
		case "":
		case "=":
			if v != a.val {
				return false
			}
		case "^=":
			if a.val == "" || !strings.HasPrefix(v, a.val) {
				return false
			}
		case "$=":
			if a.val == "" || !strings.HasSuffix(v, a.val) {
				return false
			}
		case "*=":
			if a.val == "" || !strings.Contains(v, a.val) {
				return false
			}
		case "~=":
			if !containsString(strings.Fields(v), a.val) {
				return false
			}
		}
	}
	return true
}

// splitList splits on commas outside attribute brackets.
func splitList(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func parseComplex(s string) (complexSelector, error) {
	var (
		c       complexSelector
		cur     strings.Builder
		pending byte
		depth   int
	)
	flush := func() error {
		if cur.Len() == 0 {
			return nil
		}
		comp, err := parseCompound(cur.String())
		if err != nil {
			return err
		}
		if len(c.parts) > 0 {
			comb := pending
			if comb == 0 {
				comb = ' '
			}
			c.combs = append(c.combs, comb)
		}
		c.parts = append(c.parts, comp)
		cur.Reset()
		pending = 0
		return nil
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '[':
			depth++
			cur.WriteByte(ch)
		case ch == ']':
			depth--
			cur.WriteByte(ch)
		case depth > 0:
			cur.WriteByte(ch)
		case ch == ' ' || ch == '\t' || ch == '\n':
			if err := flush(); err != nil {
				return c, err
			}
		case ch == '>':
			if err := flush(); err != nil {
				return c, err
			}
			if len(c.parts) == 0 {
				return c, fmt.Errorf("%w: leading combinator in %q", ErrSelector, s)
			}
			pending = '>'
		default:
			cur.WriteByte(ch)
		}
	}
	if err := flush(); err != nil {
		return c, err
	}
	if len(c.parts) == 0 || pending != 0 || depth != 0 {
		return c, fmt.Errorf("%w: %q", ErrSelector, s)
	}
	return c, nil
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	ident := func() string {
		start := i
		for i < len(s) && isIdentByte(s[i]) {
			i++
		}
		return s[start:i]
	}

	if i < len(s) && s[i] == '*' {
		i++
	} else {
		c.tag = strings.ToLower(ident())
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			i++
			if c.id = ident(); c.id == "" {
				return c, fmt.Errorf("%w: empty id in %q", ErrSelector, s)
			}
		case '.':
			i++
			cls := ident()
			if cls == "" {
				return c, fmt.Errorf("%w: empty class in %q", ErrSelector, s)
			}
			c.classes = append(c.classes, cls)
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("%w: unterminated attribute in %q", ErrSelector, s)
			}
			cond, err := parseAttrCond(s[i+1 : i+end])
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, cond)
			i += end + 1
		default:
			return c, fmt.Errorf("%w: unexpected %q in %q", ErrSelector, s[i], s)
		}
	}
	return c, nil
}

func parseAttrCond(s string) (attrCond, error) {
	for _, op := range []string{"^=", "$=", "*=", "~=", "="} {
		if idx := strings.Index(s, op); idx > 0 {
			val := strings.TrimSpace(s[idx+len(op):])
			if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
				val = val[1 : len(val)-1]
			}
			return attrCond{name: strings.ToLower(strings.TrimSpace(s[:idx])), op: op, val: val}, nil
		}
	}
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return attrCond{}, fmt.Errorf("%w: empty attribute", ErrSelector)
	}
	return attrCond{name: name}, nil
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
