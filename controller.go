package larafront

import "strings"

// HandlerFunc handles a bound DOM event.
type HandlerFunc func(*Context)

// Bindable is satisfied by any type embedding *Controller.
type Bindable interface {
	Base() *Controller
}

// handlerDef is a handler as declared, before classification.
type handlerDef struct {
	method    string
	signature string
	fn        HandlerFunc
}

// Controller groups a selector with event handlers. User controllers embed
// *Controller and declare handlers in their constructor:
//
//	type UserController struct {
//	    *larafront.Controller
//	    users *store.Users
//	}
//
//	func NewUserController(users *store.Users) *UserController {
//	    c := &UserController{
//	        Controller: larafront.NewController("UserController", "#user-form"),
//	        users:      users,
//	    }
//	    c.On("onSubmit", "e, UserRequest", c.submit)
//	    c.On("onClick", "e, id, page = 1", c.open)
//	    return c
//	}
//
// Handler names choose the DOM event: onClick and handleClick bind click,
// onSubmit binds submit, onChange, onFocus, onBlur, onInput, onScroll,
// onKeyUp, onKeyDown, onMouseEnter and onMouseLeave bind their events, and
// onHover binds mouseenter and mouseleave. Other names are not bound to
// events but may still be route targets.
type Controller struct {
	name       string
	selector   string
	selectorFn func() string
	defs       []*handlerDef
	onInit     func(*Engine)
}

// NewController creates a controller bound to the elements matching
// selector.
func NewController(name, selector string) *Controller {
	return &Controller{name: name, selector: selector}
}

// NewControllerFunc creates a controller whose selector is computed when
// the engine binds it.
func NewControllerFunc(name string, selector func() string) *Controller {
	return &Controller{name: name, selectorFn: selector}
}

// Base returns c. It lets embedding types satisfy Bindable.
func (c *Controller) Base() *Controller { return c }

// Name returns the controller's name.
func (c *Controller) Name() string { return c.name }

// Selector returns the selector the controller binds to.
func (c *Controller) Selector() string {
	if c.selectorFn != nil {
		return strings.TrimSpace(c.selectorFn())
	}
	return strings.TrimSpace(c.selector)
}

// On declares a handler. signature lists the handler's parameters the way
// the handler reads them from Context.Args, for example "e, UserRequest"
// or "id, page = 1". Declaring the same method again replaces it.
func (c *Controller) On(method, signature string, fn HandlerFunc) *HandlerBuilder {
	for _, d := range c.defs {
		if d.method == method {
			d.signature, d.fn = signature, fn
			return &HandlerBuilder{def: d}
		}
	}
	d := &handlerDef{method: method, signature: signature, fn: fn}
	c.defs = append(c.defs, d)
	return &HandlerBuilder{def: d}
}

// OnInit sets a hook the engine calls after binding the controller.
func (c *Controller) OnInit(fn func(*Engine)) {
	c.onInit = fn
}

// Methods returns the declared handler names in declaration order.
func (c *Controller) Methods() []string {
	out := make([]string, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.method
	}
	return out
}

// HandlerBuilder adjusts a declared handler.
//
//	c.On("onSubmit", "", c.submit).Params("e", "UserRequest")
type HandlerBuilder struct {
	def *handlerDef
}

// Params replaces the handler's signature with an explicit parameter list.
func (hb *HandlerBuilder) Params(names ...string) *HandlerBuilder {
	hb.def.signature = strings.Join(names, ", ")
	return hb
}

// Signature returns the handler's current signature text.
func (hb *HandlerBuilder) Signature() string {
	return hb.def.signature
}

// eventTypes maps a handler name to the DOM events it binds. The second
// result is false for names that are not event handlers.
func eventTypes(method string) (string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(method, "on"):
		rest = method[len("on"):]
	case strings.HasPrefix(method, "handle"):
		rest = method[len("handle"):]
	default:
		return "", false
	}
	switch rest {
	case "Click", "Submit", "Change", "Focus", "Blur", "Input", "Scroll":
		return strings.ToLower(rest), true
	case "KeyUp", "KeyDown", "MouseEnter", "MouseLeave":
		return strings.ToLower(rest), true
	case "Hover":
		return "mouseenter mouseleave", true
	}
	return "", false
}

func isHover(method string) bool {
	return method == "onHover" || method == "handleHover"
}

func preventsDefault(method string) bool {
	switch method {
	case "onClick", "handleClick", "onSubmit", "handleSubmit":
		return true
	}
	return false
}
