package larafront

import "github.com/pthm/larafront/lib/dom"

// SwapMode defines where rendered view HTML goes relative to the target
// element. The default for View is SwapInner.
type SwapMode string

const (
	// SwapInner replaces the element's contents (innerHTML).
	SwapInner SwapMode = "innerHTML"

	// SwapOuter replaces the element itself (outerHTML).
	SwapOuter SwapMode = "outerHTML"

	// SwapBeforeEnd appends to the element's contents. Useful for lists.
	SwapBeforeEnd SwapMode = "beforeend"

	// SwapAfterBegin prepends to the element's contents.
	SwapAfterBegin SwapMode = "afterbegin"

	// SwapBeforeBegin inserts before the element as a sibling.
	SwapBeforeBegin SwapMode = "beforebegin"

	// SwapAfterEnd inserts after the element as a sibling.
	SwapAfterEnd SwapMode = "afterend"

	// SwapDelete removes the element. Rendered content is ignored.
	SwapDelete SwapMode = "delete"

	// SwapNone renders but leaves the document untouched.
	SwapNone SwapMode = "none"
)

// apply places fragment relative to el.
func (m SwapMode) apply(el *dom.Element, fragment string) error {
	switch m {
	case SwapNone:
		return nil
	case SwapDelete:
		el.Remove()
		return nil
	case "", SwapInner:
		return el.Insert(dom.Inner, fragment)
	}
	return el.Insert(dom.Position(m), fragment)
}
