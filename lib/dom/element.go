package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position names where an HTML fragment is placed relative to an element.
type Position string

const (
	Inner       Position = "innerHTML"
	Outer       Position = "outerHTML"
	BeforeEnd   Position = "beforeend"
	AfterBegin  Position = "afterbegin"
	BeforeBegin Position = "beforebegin"
	AfterEnd    Position = "afterend"
)

// Element is a handle on an element node of a Document.
// Two handles on the same node compare equal through Is.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Is reports whether e and other refer to the same node.
func (e *Element) Is(other *Element) bool {
	return e != nil && other != nil && e.node == other.node
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string { return e.node.Data }

// ID returns the id attribute.
func (e *Element) ID() string { return getAttr(e.node, "id") }

// Attr returns the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	return lookupAttr(e.node, strings.ToLower(name))
}

// AttrOr returns the named attribute or def when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets an attribute, replacing any existing value.
func (e *Element) SetAttr(name, val string) {
	setAttr(e.node, strings.ToLower(name), val)
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	removeAttr(e.node, strings.ToLower(name))
}

// Data returns the element's data-* attributes keyed without the prefix.
func (e *Element) Data() map[string]string {
	out := make(map[string]string)
	for _, a := range e.node.Attr {
		if strings.HasPrefix(a.Key, "data-") && len(a.Key) > len("data-") {
			out[a.Key[len("data-"):]] = a.Val
		}
	}
	return out
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	return strings.Fields(getAttr(e.node, "class"))
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	return containsString(e.Classes(), name)
}

// AddClass appends classes that are not already present.
func (e *Element) AddClass(names ...string) {
	classes := e.Classes()
	for _, name := range names {
		if name != "" && !containsString(classes, name) {
			classes = append(classes, name)
		}
	}
	setAttr(e.node, "class", strings.Join(classes, " "))
}

// RemoveClass removes classes from the class list.
func (e *Element) RemoveClass(names ...string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if !containsString(names, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(e.node, "class")
		return
	}
	setAttr(e.node, "class", strings.Join(kept, " "))
}

// Parent returns the closest ancestor element, or nil at the root.
func (e *Element) Parent() *Element {
	if p := parentElement(e.node); p != nil {
		return e.doc.wrap(p)
	}
	return nil
}

// Matches reports whether the element matches selector.
func (e *Element) Matches(selector string) bool {
	sel, err := Compile(selector)
	if err != nil {
		return false
	}
	return sel.Match(e.node)
}

// Closest returns e or its nearest ancestor matching selector.
func (e *Element) Closest(selector string) *Element {
	sel, err := Compile(selector)
	if err != nil {
		return nil
	}
	for n := e.node; n != nil; n = parentElement(n) {
		if sel.Match(n) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if e == nil || other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Find returns descendants matching selector in document order.
func (e *Element) Find(selector string) []*Element {
	sel, err := Compile(selector)
	if err != nil {
		return nil
	}
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) {
			if sel.Match(n) {
				out = append(out, e.doc.wrap(n))
			}
		})
	}
	return out
}

// Form returns the form that owns e: e itself or its closest form ancestor.
func (e *Element) Form() *Element {
	return e.Closest("form")
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var sb strings.Builder
	walk(e.node, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return sb.String()
}

// SetText replaces the children with a single text node.
func (e *Element) SetText(s string) {
	e.clearChildren()
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, e.node)
	return buf.String()
}

// SetHTML replaces the element's children with the parsed fragment.
func (e *Element) SetHTML(fragment string) error {
	return e.Insert(Inner, fragment)
}

// Insert parses fragment and places it relative to e.
//
// Outer replaces e; the handle then refers to a detached node.
func (e *Element) Insert(pos Position, fragment string) error {
	switch pos {
	case Inner, BeforeEnd, AfterBegin:
		nodes, err := parseFragment(fragment, e.node)
		if err != nil {
			return err
		}
		if pos == Inner {
			e.clearChildren()
		}
		first := e.node.FirstChild
		for _, n := range nodes {
			if pos == AfterBegin && first != nil {
				e.node.InsertBefore(n, first)
			} else {
				e.node.AppendChild(n)
			}
		}
		return nil
	case Outer, BeforeBegin, AfterEnd:
		parent := e.node.Parent
		if parent == nil {
			return fmt.Errorf("dom: %s on detached element", pos)
		}
		ctx := parent
		if ctx.Type != html.ElementNode {
			ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		}
		nodes, err := parseFragment(fragment, ctx)
		if err != nil {
			return err
		}
		ref := e.node
		if pos == AfterEnd {
			ref = e.node.NextSibling
		}
		for _, n := range nodes {
			parent.InsertBefore(n, ref)
		}
		if pos == Outer {
			parent.RemoveChild(e.node)
		}
		return nil
	}
	return fmt.Errorf("dom: unknown position %q", pos)
}

// After inserts fragment as the element's next sibling.
func (e *Element) After(fragment string) error {
	return e.Insert(AfterEnd, fragment)
}

// Remove detaches the element from the tree.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// Hidden reports whether the element carries the d-none class.
func (e *Element) Hidden() bool { return e.HasClass("d-none") }

// Show removes the d-none class.
func (e *Element) Show() { e.RemoveClass("d-none") }

// Hide adds the d-none class.
func (e *Element) Hide() { e.AddClass("d-none") }

func (e *Element) clearChildren() {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
}

func parseFragment(fragment string, context *html.Node) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}
