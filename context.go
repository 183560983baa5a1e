package larafront

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/larafront/lib/dom"
)

// Context is what a handler receives.
//
// Args holds one value per declared parameter: the event at the event
// slot, the request at the request slot and named values elsewhere.
// Response is nil unless the handler runs after a route's round trip, in
// which case Data is the raw payload (the response body on success, the
// error body on failure) and Event is a stub without a target.
type Context struct {
	Event    *dom.Event
	Target   *dom.Element
	Request  *Request
	Response *Response
	Data     any
	Args     []any
	Params   []Param

	ctx        context.Context
	engine     *Engine
	controller *Controller
	handler    *HandlerDescriptor
	fields     map[string]any
	vars       map[string]any
}

// Context returns the Go context for work started by the handler.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Engine returns the engine dispatching the handler.
func (c *Context) Engine() *Engine { return c.engine }

// Controller returns the controller owning the handler.
func (c *Context) Controller() *Controller { return c.controller }

// Method returns the handler name, e.g. "onSubmit".
func (c *Context) Method() string {
	if c.handler == nil {
		return ""
	}
	return c.handler.Method
}

// Document returns the bound document.
func (c *Context) Document() *dom.Document {
	if c.engine == nil {
		return nil
	}
	return c.engine.Document()
}

// Logger returns the engine's logger.
func (c *Context) Logger() *zap.Logger {
	if c.engine == nil {
		return zap.NewNop()
	}
	return c.engine.logger
}

// Arg returns the value bound to the named parameter.
func (c *Context) Arg(name string) any {
	for i, p := range c.Params {
		if p.Name == name && i < len(c.Args) {
			return c.Args[i]
		}
	}
	return nil
}

// Set stores a local value for Compact and views.
func (c *Context) Set(name string, value any) {
	if c.vars == nil {
		c.vars = make(map[string]any)
	}
	c.vars[name] = value
}

// Value resolves name against, in order: values stored with Set, declared
// parameters, the bindings response, request and event, the response's
// data, status, success and error, and the request's fields.
func (c *Context) Value(name string) (any, bool) {
	if v, ok := c.vars[name]; ok {
		return v, true
	}
	for i, p := range c.Params {
		if p.Name == name && i < len(c.Args) && c.Args[i] != nil {
			return c.Args[i], true
		}
	}
	switch strings.ToLower(name) {
	case "response":
		if c.Response != nil {
			return c.Response, true
		}
	case "request":
		if c.Request != nil {
			return c.Request, true
		}
	case "e", "event":
		if c.Event != nil {
			return c.Event, true
		}
	}
	if c.Response != nil {
		if v, ok := c.Response.Fields()[name]; ok {
			return v, true
		}
	}
	if c.Request != nil && c.Request.Has(name) {
		return c.Request.Input(name), true
	}
	if v, ok := c.fields[name]; ok {
		return v, true
	}
	return nil, false
}

// Compact builds a map of the named values that resolve, like Laravel's
// compact.
//
//	ctx.View("ajax-result", "#ajax-result", ctx.Compact("success", "status", "error", "data"))
func (c *Context) Compact(names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := c.Value(name); ok {
			out[name] = v
		}
	}
	return out
}

// View renders the named view into every element matching selector.
func (c *Context) View(name, selector string, data any) error {
	return c.Swap(name, selector, SwapInner, data)
}

// Swap renders the named view and places it with mode.
func (c *Context) Swap(name, selector string, mode SwapMode, data any) error {
	if c.engine == nil {
		return ErrNotBooted
	}
	return c.engine.Swap(name, selector, mode, data)
}
