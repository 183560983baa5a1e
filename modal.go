package larafront

import (
	"strings"

	"github.com/pthm/larafront/lib/dom"
)

// isModal reports whether el is a modal: it has the modal class or an id
// starting with "modal". Modals stay hidden when their controller binds.
func isModal(el *dom.Element) bool {
	return el.HasClass("modal") || strings.HasPrefix(el.ID(), "modal")
}

// modalTarget resolves which modal a route-less dispatch opens, or "".
//
// A data-modal attribute on the trigger or bound element wins: "x" opens
// #x, while a value starting with # or . is used as a selector. Otherwise a
// controller bound to "#modal..." or ".modal..." opens the modal named by
// the trigger's data-target or href.
func modalTarget(selector string, el, trigger *dom.Element) (string, *dom.Element) {
	for _, src := range []*dom.Element{trigger, el} {
		if src == nil {
			continue
		}
		if name, ok := src.Attr("data-modal"); ok && strings.TrimSpace(name) != "" {
			name = strings.TrimSpace(name)
			if strings.HasPrefix(name, "#") || strings.HasPrefix(name, ".") {
				return name, nil
			}
			return "#" + name, nil
		}
	}

	if !strings.HasPrefix(selector, "#modal") && !strings.HasPrefix(selector, ".modal") {
		return "", nil
	}
	if trigger != nil {
		for _, attr := range []string{"data-target", "href"} {
			if v := strings.TrimSpace(trigger.AttrOr(attr, "")); strings.HasPrefix(v, "#") && len(v) > 1 {
				return v, nil
			}
		}
	}
	return "", el
}

// openModal shows the modal selected by modalTarget.
func (e *Engine) openModal(selector string, el, trigger *dom.Element) {
	sel, direct := modalTarget(selector, el, trigger)
	if direct != nil {
		showModal(direct)
		return
	}
	if sel == "" {
		return
	}
	doc := e.Document()
	if doc == nil {
		return
	}
	for _, m := range doc.Query(sel) {
		showModal(m)
	}
}

func showModal(m *dom.Element) {
	m.Show()
	m.AddClass("show")
	m.SetAttr("aria-hidden", "false")
}
