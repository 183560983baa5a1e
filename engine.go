package larafront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/pthm/larafront/lib/cache"
	"github.com/pthm/larafront/lib/config"
	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/eventloop"
	"github.com/pthm/larafront/lib/logging"
	"github.com/pthm/larafront/lib/translation"
	"github.com/pthm/larafront/lib/transport"
	"github.com/pthm/larafront/lib/validation"
	"github.com/pthm/larafront/lib/view"
)

// LoadingView is the view shown in a route's target while its request is
// in flight.
const LoadingView = "ajax-loading"

// Engine binds controllers to a document and dispatches their events.
//
// Build one at startup, register controllers, then Boot it against a
// document:
//
//	e := larafront.New(
//	    larafront.WithRegistry(reg),
//	    larafront.WithViews(view.Dir("resources/views")),
//	)
//	e.Register(NewUserController(users))
//	e.Routes().Post("/users", larafront.Handle(users, "onSubmit"), "#result")
//	if err := e.Boot(doc); err != nil {
//	    return err
//	}
//	go e.Run(ctx)
//
// All document access happens on the engine's event loop. Call Run to
// drive it, or Settle from tests and tools.
type Engine struct {
	registry  *Registry
	routes    *RouteTable
	validator *validation.Validator
	views     *view.Views
	client    transport.Doer
	loop      *eventloop.Loop
	cache     *cache.Store
	logger    *zap.Logger

	errorClass   string
	successClass string
	watchDir     string

	mu       sync.RWMutex
	doc      *dom.Document
	bindings map[*Controller]*binding
	order    []*Controller
	booted   bool
}

// binding is the per-controller state of an engine.
type binding struct {
	owner    Bindable
	handlers map[string]*HandlerDescriptor
	order    []string
	offs     []func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the registry of form requests and controllers.
func WithRegistry(reg *Registry) Option {
	return func(e *Engine) { e.registry = reg }
}

// WithRoutes sets the route table.
func WithRoutes(t *RouteTable) Option {
	return func(e *Engine) { e.routes = t }
}

// WithValidator sets the validator used for form requests.
func WithValidator(v *validation.Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithViews sets the view loader.
func WithViews(v *view.Views) Option {
	return func(e *Engine) { e.views = v }
}

// WithWatch invalidates cached views when files under dir change. Run
// starts the watcher.
func WithWatch(dir string) Option {
	return func(e *Engine) { e.watchDir = dir }
}

// WithTransport sets the client used to execute routes.
func WithTransport(d transport.Doer) Option {
	return func(e *Engine) { e.client = d }
}

// WithLoop sets the event loop.
func WithLoop(l *eventloop.Loop) Option {
	return func(e *Engine) { e.loop = l }
}

// WithCache serves repeated GET routes from s.
func WithCache(s *cache.Store) Option {
	return func(e *Engine) { e.cache = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithErrorClass sets the class added to fields that fail validation.
// The default is "error".
func WithErrorClass(class string) Option {
	return func(e *Engine) { e.errorClass = class }
}

// WithSuccessClass sets the class added to fields that pass validation.
// The default is none.
func WithSuccessClass(class string) Option {
	return func(e *Engine) { e.successClass = class }
}

// New creates an engine. Unset dependencies get defaults: an empty
// registry and route table, a validator with the bundled messages, views
// read from resources/views and an HTTP transport.
func New(opts ...Option) *Engine {
	e := &Engine{
		errorClass: "error",
		bindings:   make(map[*Controller]*binding),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.routes == nil {
		e.routes = NewRouteTable()
	}
	if e.validator == nil {
		e.validator = validation.New()
	}
	if e.views == nil {
		e.views = view.Dir("resources/views", view.WithLogger(e.logger))
	}
	if e.client == nil {
		e.client = transport.New(transport.WithLogger(e.logger))
	}
	if e.loop == nil {
		e.loop = eventloop.New()
	}

	e.routes.client = e.client
	e.routes.loop = e.loop
	e.routes.cache = e.cache
	e.routes.logger = e.logger
	e.routes.engine = e
	return e
}

// NewFromConfig creates an engine from loaded configuration. opts are
// applied after the configured dependencies and may replace them.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	trans := translation.Default(cfg.App.Locale, cfg.App.FallbackLocale)
	codec, err := transport.CodecByName(cfg.Ajax.Codec)
	if err != nil {
		return nil, err
	}
	client := transport.New(
		transport.WithBaseURL(cfg.Ajax.BaseURL),
		transport.WithTimeout(cfg.Ajax.Timeout),
		transport.WithCodec(codec),
		transport.WithLogger(logger),
	)

	base := []Option{
		WithLogger(logger),
		WithValidator(validation.New(validation.WithTranslator(trans))),
		WithViews(view.Dir(cfg.Views.Dir, view.WithLogger(logger))),
		WithTransport(client),
		WithErrorClass(cfg.Validation.ErrorClass),
		WithSuccessClass(cfg.Validation.SuccessClass),
	}
	if cfg.Views.Watch {
		base = append(base, WithWatch(cfg.Views.Dir))
	}
	if cfg.Cache.Enabled {
		store, err := OpenCache(cfg)
		if err != nil {
			return nil, fmt.Errorf("larafront: open response cache: %w", err)
		}
		base = append(base, WithCache(store))
	}
	return New(append(base, opts...)...), nil
}

// OpenCache opens the response cache described by cfg.Cache.
func OpenCache(cfg *config.Config) (*cache.Store, error) {
	key := cfg.Cache.Key
	if key == "" {
		key = "larafront"
	}
	opts := []cache.Option{cache.WithTTL(cfg.Cache.TTL)}
	if cfg.Cache.Sealed {
		opts = append(opts, cache.WithSealed())
	}
	return cache.Open(cfg.Cache.Path, []byte(key), opts...)
}

// Register adds controllers. Handlers are classified now; controllers
// registered after Boot are bound immediately. Registering a controller
// again replaces its descriptors and listeners.
func (e *Engine) Register(controllers ...Bindable) {
	e.registry.Controller(controllers...)

	e.mu.Lock()
	var (
		late  []*Controller
		stale []func()
	)
	for _, c := range controllers {
		base := c.Base()
		b, ok := e.bindings[base]
		if !ok {
			b = &binding{owner: c}
			e.bindings[base] = b
			e.order = append(e.order, base)
		}
		stale = append(stale, b.offs...)
		b.offs = nil
		b.handlers = make(map[string]*HandlerDescriptor, len(base.defs))
		b.order = b.order[:0]
		for _, def := range base.defs {
			d := Describe(def.method, def.signature, e.registry)
			d.fn = def.fn
			if d.Err != nil {
				e.logger.Warn("handler signature ignored",
					zap.String("controller", base.Name()),
					zap.String("handler", def.method),
					zap.Error(d.Err))
			}
			b.handlers[def.method] = d
			b.order = append(b.order, def.method)
		}
		if e.booted {
			late = append(late, base)
		}
	}
	e.mu.Unlock()

	// A controller registered again is rebound from scratch.
	for _, off := range stale {
		off()
	}
	for _, c := range late {
		e.bindOne(c)
	}
}

// Boot binds every registered controller to doc.
func (e *Engine) Boot(doc *dom.Document) error {
	if doc == nil {
		return errors.New("larafront: nil document")
	}
	e.mu.Lock()
	if e.booted {
		e.mu.Unlock()
		e.Teardown()
		e.mu.Lock()
	}
	e.doc = doc
	e.booted = true
	order := append([]*Controller(nil), e.order...)
	e.mu.Unlock()

	for _, c := range order {
		e.bindOne(c)
	}
	return nil
}

// bindOne attaches c's event handlers to the elements matching its
// selector, reveals non-modal targets and runs the init hook. A
// controller with an empty selector is skipped.
func (e *Engine) bindOne(c *Controller) {
	sel := c.Selector()
	if sel == "" {
		e.logger.Debug("controller has no selector", zap.String("controller", c.Name()))
		return
	}

	e.mu.Lock()
	b := e.bindings[c]
	doc := e.doc
	e.mu.Unlock()
	if b == nil || doc == nil {
		return
	}

	elements := doc.Query(sel)
	var offs []func()
	for _, el := range elements {
		for _, method := range b.order {
			d := b.handlers[method]
			if d.Events == "" {
				continue
			}
			offs = append(offs, el.On(d.Events, e.listener(c, d, el)))
		}
		if !isModal(el) {
			el.Show()
		}
	}
	e.logger.Debug("controller bound",
		zap.String("controller", c.Name()),
		zap.String("selector", sel),
		zap.Int("elements", len(elements)))

	e.mu.Lock()
	b.offs = append(b.offs, offs...)
	e.mu.Unlock()

	if c.onInit != nil {
		c.onInit(e)
	}
}

// Teardown removes every listener the engine attached.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.bindings {
		for _, off := range b.offs {
			off()
		}
		b.offs = nil
	}
	e.booted = false
}

// Close tears down bindings, stops the loop and closes the cache.
func (e *Engine) Close() error {
	e.Teardown()
	e.loop.Close()
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

// Run drives the event loop until ctx is done or Close is called. If a
// watch directory is configured, view changes invalidate the cache.
func (e *Engine) Run(ctx context.Context) {
	if e.watchDir != "" {
		go func() {
			if err := e.views.Watch(ctx, e.watchDir); err != nil && ctx.Err() == nil {
				e.logger.Warn("view watcher stopped", zap.Error(err))
			}
		}()
	}
	e.loop.Run(ctx)
}

// Settle runs queued work on the calling goroutine until nothing is
// pending, including in-flight route requests.
func (e *Engine) Settle(ctx context.Context) error {
	return e.loop.Settle(ctx)
}

// Document returns the booted document, or nil.
func (e *Engine) Document() *dom.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Routes returns the engine's route table.
func (e *Engine) Routes() *RouteTable { return e.routes }

// Validator returns the engine's validator.
func (e *Engine) Validator() *validation.Validator { return e.validator }

// Views returns the engine's view loader.
func (e *Engine) Views() *view.Views { return e.views }

// Loop returns the engine's event loop.
func (e *Engine) Loop() *eventloop.Loop { return e.loop }

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// Descriptors returns c's handler descriptors in declaration order.
func (e *Engine) Descriptors(c Bindable) []*HandlerDescriptor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b := e.bindings[c.Base()]
	if b == nil {
		return nil
	}
	out := make([]*HandlerDescriptor, 0, len(b.order))
	for _, m := range b.order {
		out = append(out, b.handlers[m])
	}
	return out
}

// Descriptor returns the descriptor of c's handler method.
func (e *Engine) Descriptor(c Bindable, method string) (*HandlerDescriptor, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b := e.bindings[c.Base()]
	if b == nil {
		return nil, false
	}
	d, ok := b.handlers[method]
	return d, ok
}

// RenderView renders the named view to a string.
func (e *Engine) RenderView(name string, data any) (string, error) {
	return e.views.Render(name, data)
}

// Swap renders the named view and places it at every element matching
// selector. A view that cannot be loaded is replaced by a visible
// "View not found" box and its error is returned.
func (e *Engine) Swap(name, selector string, mode SwapMode, data any) error {
	doc := e.Document()
	if doc == nil {
		return ErrNotBooted
	}
	out, viewErr := e.views.Render(name, data)
	if viewErr != nil {
		e.logger.Warn("view unavailable", zap.String("view", name), zap.Error(viewErr))
		out = view.NotFoundHTML(view.Path(name))
	}
	for _, el := range doc.Query(selector) {
		if err := mode.apply(el, out); err != nil {
			return fmt.Errorf("larafront: swap %s into %s: %w", name, selector, err)
		}
	}
	return viewErr
}

// showLoading renders the loading view into target, falling back to a
// built-in indicator.
func (e *Engine) showLoading(target string) {
	doc := e.Document()
	if doc == nil {
		return
	}
	comp := e.views.Component(LoadingView, nil)
	var sb strings.Builder
	if err := comp.Render(context.Background(), &sb); err != nil {
		sb.Reset()
		_ = loadingIndicator.Render(context.Background(), &sb)
	}
	for _, el := range doc.Query(target) {
		if err := el.SetHTML(sb.String()); err != nil {
			e.logger.Debug("loading view not applied", zap.String("target", target), zap.Error(err))
		}
	}
}

var loadingIndicator = templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, `<div class="ajax-loading" role="status" aria-busy="true">Loading...</div>`)
	return err
})

// deliver invokes a route's handler with its response. hc is the context
// of the dispatch that executed the route and may be nil.
func (e *Engine) deliver(route *Route, resp *Response, hc *Context) {
	d, owner := e.routeDescriptor(route)
	if d == nil {
		e.logger.Warn("route handler not registered",
			zap.String("controller", route.Controller.Name()),
			zap.String("handler", route.Handler))
		return
	}

	stub := dom.NewEvent(routeEventType(d))
	stub.Detail = map[string]any{
		"method": route.Method,
		"url":    route.URL,
		"status": resp.Status,
	}

	c := &Context{
		Event:      stub,
		Response:   resp,
		Data:       resp.Data,
		ctx:        context.Background(),
		engine:     e,
		controller: owner,
		handler:    d,
		Params:     d.Params,
	}
	if hc != nil {
		c.Target = hc.Target
		c.Request = hc.Request
		c.Args = append([]any(nil), hc.Args...)
		c.fields = hc.fields
		c.vars = hc.vars
		if hc.ctx != nil {
			c.ctx = hc.ctx
		}
	}
	if len(c.Args) < len(d.Params) {
		c.Args = append(c.Args, make([]any, len(d.Params)-len(c.Args))...)
	}
	if d.EventIndex >= 0 {
		c.Args[d.EventIndex] = stub
	}
	e.invoke(d, c)
}

// routeDescriptor finds the descriptor a route targets: by controller
// value first, then by controller name.
func (e *Engine) routeDescriptor(route *Route) (*HandlerDescriptor, *Controller) {
	if d, ok := e.Descriptor(route.Controller, route.Handler); ok {
		return d, route.Controller
	}
	c, err := e.registry.Lookup(route.Controller.Name())
	if err != nil {
		return nil, nil
	}
	if d, ok := e.Descriptor(c, route.Handler); ok {
		return d, c.Base()
	}
	return nil, nil
}

func routeEventType(d *HandlerDescriptor) string {
	if f := strings.Fields(d.Events); len(f) > 0 {
		return f[0]
	}
	return "route"
}

// invoke runs a handler, recovering and logging a panic.
func (e *Engine) invoke(d *HandlerDescriptor, c *Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler failed",
				zap.String("handler", d.Method),
				zap.Error(fmt.Errorf("%w: %v", ErrHandlerPanic, r)))
		}
	}()
	if d.fn != nil {
		d.fn(c)
	}
}
