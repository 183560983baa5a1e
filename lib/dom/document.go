// Package dom models an HTML document the way a page script sees it:
// a mutable element tree, CSS selector queries, data attributes, form
// fields with attached files, and event listeners that bubble.
//
// The tree is a golang.org/x/net/html node graph. A Document is not safe
// for concurrent use; callers drive it from a single goroutine (see the
// eventloop package).
package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page with listener and file state.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]*listenerEntry
	files     map[*html.Node][]*File
	nextID    int
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return newDocument(root), nil
}

// ParseString parses a full HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]*listenerEntry),
		files:     make(map[*html.Node][]*File),
	}
}

// Root returns the <html> element.
func (d *Document) Root() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	return d.First("body")
}

// Query returns every element matching selector in document order.
// An invalid selector matches nothing.
func (d *Document) Query(selector string) []*Element {
	sel, err := Compile(selector)
	if err != nil {
		return nil
	}
	return d.QuerySelector(sel)
}

// QuerySelector is Query with a precompiled selector.
func (d *Document) QuerySelector(sel Selector) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) {
		if sel.Match(n) {
			out = append(out, d.wrap(n))
		}
	})
	return out
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *Element {
	if els := d.Query(selector); len(els) > 0 {
		return els[0]
	}
	return nil
}

// ByID returns the element with the given id, or nil.
func (d *Document) ByID(id string) *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && getAttr(n, "id") == id {
			found = n
		}
	})
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// HTML returns the rendered document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// Wrap returns the Element for a node that belongs to this document.
func (d *Document) Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return d.wrap(n)
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

// walk visits n and its descendants depth first.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func parentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// isFormControl reports whether n is an input, select or textarea.
func isFormControl(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}
