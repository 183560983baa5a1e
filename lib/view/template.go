// Package view renders Blade-style HTML templates and loads them by name.
//
// Template syntax:
//
//	{{ user.name }}                 HTML-escaped interpolation
//	{!! body !!}                    raw interpolation; maps, slices and
//	                                structs are JSON encoded with indent
//	@if(flag) ... @else ... @endif  conditionals, nestable, "!" negates
//	@foreach(items as item) ... @endforeach
//	@foreach(items as key, value) ... @endforeach
//
// A value is falsy when it is nil, false, a zero number, the empty string,
// or an empty slice, array or map. Maps are iterated in sorted key order.
package view

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned for unbalanced or malformed directives.
var ErrSyntax = errors.New("view: template syntax error")

// Template is a parsed template, safe for concurrent Execute calls.
type Template struct {
	name  string
	nodes []node
}

// Compile parses src into a Template.
func Compile(name, src string) (*Template, error) {
	p := &parser{name: name, src: src}
	nodes, stop, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if stop != "" {
		return nil, p.errorf("unexpected @%s", stop)
	}
	return &Template{name: name, nodes: nodes}, nil
}

// Name returns the name the template was compiled with.
func (t *Template) Name() string { return t.name }

// Execute renders the template against data. Data is usually a
// map[string]any but any struct or map works.
func (t *Template) Execute(data any) string {
	var sb strings.Builder
	renderNodes(&sb, t.nodes, newScope(data))
	return sb.String()
}

// Render compiles and executes src in one step.
func Render(src string, data any) (string, error) {
	t, err := Compile("inline", src)
	if err != nil {
		return "", err
	}
	return t.Execute(data), nil
}

type node interface {
	render(sb *strings.Builder, s *scope)
}

type textNode string

func (n textNode) render(sb *strings.Builder, _ *scope) { sb.WriteString(string(n)) }

type valueNode struct {
	path string
	raw  bool
}

func (n valueNode) render(sb *strings.Builder, s *scope) {
	v, ok := s.resolve(n.path)
	if !ok || v == nil {
		return
	}
	if n.raw {
		sb.WriteString(formatRaw(v))
		return
	}
	sb.WriteString(escape(format(v)))
}

type ifNode struct {
	negate bool
	path   string
	then   []node
	els    []node
}

func (n ifNode) render(sb *strings.Builder, s *scope) {
	v, _ := s.resolve(n.path)
	if Truthy(v) != n.negate {
		renderNodes(sb, n.then, s)
		return
	}
	renderNodes(sb, n.els, s)
}

type foreachNode struct {
	collection string
	names      []string
	body       []node
}

func (n foreachNode) render(sb *strings.Builder, s *scope) {
	v, _ := s.resolve(n.collection)
	for i, it := range iterate(v) {
		inner := s.child()
		switch {
		case len(n.names) == 2:
			inner.vars[n.names[0]] = it.key
			inner.vars[n.names[1]] = it.value
			inner.vars[n.names[1]+"_index"] = i
		case it.pair:
			inner.vars[n.names[0]] = []any{it.key, it.value}
			inner.vars[n.names[0]+"_index"] = i
		default:
			inner.vars[n.names[0]] = it.value
			inner.vars[n.names[0]+"_index"] = i
		}
		renderNodes(sb, n.body, inner)
	}
}

func renderNodes(sb *strings.Builder, nodes []node, s *scope) {
	for _, n := range nodes {
		n.render(sb, s)
	}
}

type parser struct {
	name string
	src  string
	pos  int
}

func (p *parser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.src[:p.pos], "\n")
	return fmt.Errorf("%w: %s:%d: %s", ErrSyntax, p.name, line, fmt.Sprintf(format, args...))
}

// parseBlock reads nodes until EOF or a closing directive (else, endif,
// endforeach), which it consumes and returns.
func (p *parser) parseBlock() ([]node, string, error) {
	var (
		nodes []node
		text  strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, textNode(text.String()))
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "{!!"):
			if n, ok := p.interpolation("{!!", "!!}", true); ok {
				flush()
				nodes = append(nodes, n)
				continue
			}
		case strings.HasPrefix(rest, "{{"):
			if n, ok := p.interpolation("{{", "}}", false); ok {
				flush()
				nodes = append(nodes, n)
				continue
			}
		case rest[0] == '@':
			name := directiveName(rest)
			if (name == "if" || name == "foreach") && !opensParen(rest[1+len(name):]) {
				name = ""
			}
			switch name {
			case "if":
				flush()
				n, err := p.parseIf()
				if err != nil {
					return nil, "", err
				}
				nodes = append(nodes, n)
				continue
			case "foreach":
				flush()
				n, err := p.parseForeach()
				if err != nil {
					return nil, "", err
				}
				nodes = append(nodes, n)
				continue
			case "else", "endif", "endforeach":
				flush()
				p.pos += 1 + len(name)
				return nodes, name, nil
			}
		}
		text.WriteByte(p.src[p.pos])
		p.pos++
	}
	flush()
	return nodes, "", nil
}

// interpolation consumes open path close when path is a valid dotted path.
func (p *parser) interpolation(open, close string, raw bool) (node, bool) {
	start := p.pos + len(open)
	end := strings.Index(p.src[start:], close)
	if end < 0 {
		return nil, false
	}
	path := strings.TrimSpace(p.src[start : start+end])
	if !validPath(path) {
		return nil, false
	}
	p.pos = start + end + len(close)
	return valueNode{path: path, raw: raw}, true
}

func (p *parser) parseIf() (node, error) {
	p.pos += len("@if")
	expr, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	n := ifNode{}
	for strings.HasPrefix(expr, "!") {
		n.negate = !n.negate
		expr = strings.TrimSpace(expr[1:])
	}
	if !validPath(expr) {
		return nil, p.errorf("invalid @if condition %q", expr)
	}
	n.path = expr

	body, stop, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n.then = body
	if stop == "else" {
		if n.els, stop, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if stop != "endif" {
		return nil, p.errorf("@if(%s) without @endif", n.path)
	}
	return n, nil
}

func (p *parser) parseForeach() (node, error) {
	p.pos += len("@foreach")
	expr, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	collection, names, ok := strings.Cut(expr, " as ")
	if !ok {
		return nil, p.errorf("@foreach(%s) missing \"as\"", expr)
	}
	n := foreachNode{collection: strings.TrimSpace(collection)}
	for _, name := range strings.Split(names, ",") {
		n.names = append(n.names, strings.TrimSpace(name))
	}
	if !validPath(n.collection) || len(n.names) > 2 {
		return nil, p.errorf("invalid @foreach(%s)", expr)
	}
	for _, name := range n.names {
		if name == "" || strings.Contains(name, ".") || !validPath(name) {
			return nil, p.errorf("invalid @foreach variable %q", name)
		}
	}

	body, stop, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if stop != "endforeach" {
		return nil, p.errorf("@foreach(%s) without @endforeach", expr)
	}
	n.body = body
	return n, nil
}

// parenExpr reads a balanced "( ... )" group after optional spaces.
func (p *parser) parenExpr() (string, error) {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return "", p.errorf("expected (")
	}
	depth := 0
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				expr := strings.TrimSpace(p.src[p.pos+1 : i])
				p.pos = i + 1
				return expr, nil
			}
		}
	}
	return "", p.errorf("unterminated (")
}

// directiveName returns the directive starting at s ("@name"), or "" when
// the letters run into more identifier characters.
func directiveName(s string) string {
	i := 1
	for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
		i++
	}
	name := s[1:i]
	if i < len(s) && isPathByte(s[i]) && s[i] != '.' {
		return ""
	}
	return name
}

func opensParen(s string) bool {
	s = strings.TrimLeft(s, " \t")
	return s != "" && s[0] == '('
}

func validPath(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.Contains(s, "..") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isPathByte(s[i]) {
			return false
		}
	}
	return true
}

func isPathByte(b byte) bool {
	return b == '_' || b == '.' || b == '-' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
