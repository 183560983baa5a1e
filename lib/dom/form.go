package dom

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// File is a file selected in a file input.
type File struct {
	Name         string
	Size         int64
	Type         string
	LastModified time.Time
	// Path is where the file content lives, when known.
	Path string
}

// Extension returns the part of Name after the last dot, without the dot.
func (f *File) Extension() string {
	if f == nil {
		return ""
	}
	return strings.TrimPrefix(filepath.Ext(f.Name), ".")
}

// InputType returns the lowercase type attribute of an input, or "".
func (e *Element) InputType() string {
	if e.node.DataAtom == atom.Button {
		t := strings.ToLower(getAttr(e.node, "type"))
		if t == "" {
			return "submit"
		}
		return t
	}
	if e.node.DataAtom != atom.Input {
		return ""
	}
	t := strings.ToLower(getAttr(e.node, "type"))
	if t == "" {
		return "text"
	}
	return t
}

// IsSubmitButton reports whether clicking e submits its form.
func (e *Element) IsSubmitButton() bool {
	switch e.node.DataAtom {
	case atom.Button:
		return e.InputType() == "submit"
	case atom.Input:
		t := e.InputType()
		return t == "submit" || t == "image"
	}
	return false
}

// IsFileInput reports whether e is an <input type="file">.
func (e *Element) IsFileInput() bool {
	return e.node.DataAtom == atom.Input && e.InputType() == "file"
}

// Value returns the current value of a form control.
func (e *Element) Value() string {
	switch e.node.DataAtom {
	case atom.Textarea:
		return e.Text()
	case atom.Select:
		var first, selected *html.Node
		walk(e.node, func(n *html.Node) {
			if n.DataAtom != atom.Option {
				return
			}
			if first == nil {
				first = n
			}
			if _, ok := lookupAttr(n, "selected"); ok && selected == nil {
				selected = n
			}
		})
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return ""
		}
		if v, ok := lookupAttr(selected, "value"); ok {
			return v
		}
		return strings.TrimSpace(e.doc.wrap(selected).Text())
	}
	return getAttr(e.node, "value")
}

// SetValue sets the value of a form control.
func (e *Element) SetValue(v string) {
	switch e.node.DataAtom {
	case atom.Textarea:
		e.SetText(v)
	case atom.Select:
		walk(e.node, func(n *html.Node) {
			if n.DataAtom != atom.Option {
				return
			}
			val, ok := lookupAttr(n, "value")
			if !ok {
				val = strings.TrimSpace(e.doc.wrap(n).Text())
			}
			if val == v {
				setAttr(n, "selected", "")
			} else {
				removeAttr(n, "selected")
			}
		})
	default:
		setAttr(e.node, "value", v)
	}
}

// Checked reports whether a checkbox or radio is checked.
func (e *Element) Checked() bool {
	_, ok := lookupAttr(e.node, "checked")
	return ok
}

// SetChecked checks or unchecks a checkbox or radio. Checking a radio
// unchecks the other radios of the same name in its form.
func (e *Element) SetChecked(on bool) {
	if !on {
		removeAttr(e.node, "checked")
		return
	}
	if e.InputType() == "radio" {
		if form := e.Form(); form != nil {
			name := getAttr(e.node, "name")
			for _, other := range form.Find("input") {
				if other.InputType() == "radio" && getAttr(other.node, "name") == name {
					removeAttr(other.node, "checked")
				}
			}
		}
	}
	setAttr(e.node, "checked", "")
}

// Files returns the files attached to a file input.
func (e *Element) Files() []*File {
	return e.doc.files[e.node]
}

// SetFiles attaches files to a file input, replacing any previous selection.
func (e *Element) SetFiles(files ...*File) {
	if len(files) == 0 {
		delete(e.doc.files, e.node)
		return
	}
	e.doc.files[e.node] = files
}

// Controls returns the named input, select and textarea descendants of a
// form, in document order.
func (e *Element) Controls() []*Element {
	var out []*Element
	walk(e.node, func(n *html.Node) {
		if n != e.node && isFormControl(n) && getAttr(n, "name") != "" {
			out = append(out, e.doc.wrap(n))
		}
	})
	return out
}

// Serialize collects the values of the form owning e.
//
// Checkboxes contribute a bool, radios only their checked value, file
// inputs are skipped (see FormFiles). Names ending in "[]" collect into a
// slice under the trimmed name.
func (e *Element) Serialize() map[string]any {
	data := make(map[string]any)
	form := e.Form()
	if form == nil {
		return data
	}
	for _, c := range form.Controls() {
		name := getAttr(c.node, "name")
		var val any
		switch c.InputType() {
		case "file":
			continue
		case "checkbox":
			val = c.Checked()
		case "radio":
			if !c.Checked() {
				continue
			}
			val = c.Value()
		default:
			val = c.Value()
		}
		if strings.HasSuffix(name, "[]") {
			key := strings.TrimSuffix(name, "[]")
			list, _ := data[key].([]any)
			data[key] = append(list, val)
			continue
		}
		data[name] = val
	}
	return data
}

// FormFiles returns the selected files of the form owning e keyed by input
// name. Inputs without files are omitted.
func (e *Element) FormFiles() map[string][]*File {
	out := make(map[string][]*File)
	form := e.Form()
	if form == nil {
		return out
	}
	for _, c := range form.Controls() {
		if !c.IsFileInput() {
			continue
		}
		if files := c.Files(); len(files) > 0 {
			out[getAttr(c.node, "name")] = files
		}
	}
	return out
}

// Field returns the named control of the form owning e, or nil.
func (e *Element) Field(name string) *Element {
	form := e.Form()
	if form == nil {
		return nil
	}
	for _, c := range form.Controls() {
		if getAttr(c.node, "name") == name {
			return c
		}
	}
	return nil
}
