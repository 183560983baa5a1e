package larafront

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pthm/larafront/lib/cache"
	"github.com/pthm/larafront/lib/eventloop"
	"github.com/pthm/larafront/lib/transport"
)

// HandlerRef names a controller handler as a route target.
type HandlerRef struct {
	Controller Bindable
	Method     string
}

// Handle builds a HandlerRef.
//
//	routes.Get("/posts/1", larafront.Handle(posts, "onClick"), "#result")
func Handle(c Bindable, method string) HandlerRef {
	return HandlerRef{Controller: c, Method: method}
}

// Route maps an HTTP method and URL to a controller handler.
type Route struct {
	Method     string
	URL        string
	Controller *Controller
	Handler    string
	// Target is a selector that shows the ajax-loading view while the
	// request is in flight. Optional.
	Target string
}

var routeMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// RouteTable holds routes keyed by method and URL and executes them.
//
// Registration normally happens before the engine boots. Executing a
// route sends the request on a background goroutine and posts the handler
// invocation back to the event loop exactly once. In-flight requests are
// not cancelled: a late response is still delivered.
type RouteTable struct {
	mu     sync.RWMutex
	routes map[string]map[string]*Route

	client transport.Doer
	loop   *eventloop.Loop
	cache  *cache.Store
	logger *zap.Logger
	engine *Engine
}

// NewRouteTable creates an empty table using the default HTTP client and
// its own event loop. An engine replaces both with its own.
func NewRouteTable() *RouteTable {
	return &RouteTable{
		routes: make(map[string]map[string]*Route),
		client: transport.New(),
		loop:   eventloop.New(),
		logger: zap.NewNop(),
	}
}

// Register stores a route, replacing any route with the same method and
// URL. A ref without a controller or method is ignored; an unsupported
// method is logged with ErrUnsupportedMethod and ignored.
func (t *RouteTable) Register(method, url string, ref HandlerRef, target ...string) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if !routeMethods[method] {
		t.logger.Warn("route ignored", zap.String("url", url),
			zap.Error(fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)))
		return
	}
	if ref.Controller == nil || ref.Controller.Base() == nil || ref.Method == "" {
		return
	}

	r := &Route{
		Method:     method,
		URL:        url,
		Controller: ref.Controller.Base(),
		Handler:    ref.Method,
	}
	if len(target) > 0 {
		r.Target = target[0]
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.routes[method] == nil {
		t.routes[method] = make(map[string]*Route)
	}
	t.routes[method][url] = r
}

// Get registers a GET route.
func (t *RouteTable) Get(url string, ref HandlerRef, target ...string) {
	t.Register(http.MethodGet, url, ref, target...)
}

// Post registers a POST route.
func (t *RouteTable) Post(url string, ref HandlerRef, target ...string) {
	t.Register(http.MethodPost, url, ref, target...)
}

// Put registers a PUT route.
func (t *RouteTable) Put(url string, ref HandlerRef, target ...string) {
	t.Register(http.MethodPut, url, ref, target...)
}

// Delete registers a DELETE route.
func (t *RouteTable) Delete(url string, ref HandlerRef, target ...string) {
	t.Register(http.MethodDelete, url, ref, target...)
}

// Patch registers a PATCH route.
func (t *RouteTable) Patch(url string, ref HandlerRef, target ...string) {
	t.Register(http.MethodPatch, url, ref, target...)
}

// Lookup returns the route for method and url.
func (t *RouteTable) Lookup(method, url string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.routes[strings.ToUpper(method)][url]
	return r, ok
}

// All returns every route sorted by method, then URL.
func (t *RouteTable) All() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Route
	for _, byURL := range t.routes {
		for _, r := range byURL {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// FindByController returns the route targeting c's handler method. Routes
// registered with the same controller value match first; failing that, a
// route whose controller has the same name matches.
func (t *RouteTable) FindByController(c Bindable, method string) *Route {
	if c == nil || c.Base() == nil {
		return nil
	}
	base := c.Base()
	routes := t.All()
	for _, r := range routes {
		if r.Controller == base && r.Handler == method {
			return r
		}
	}
	for _, r := range routes {
		if r.Controller.Name() != "" && r.Controller.Name() == base.Name() && r.Handler == method {
			return r
		}
	}
	return nil
}

// Execute runs the route registered for method and url. The outgoing
// payload is data with the dispatching request's fields merged over it.
// If the route has a target, the ajax-loading view is shown there before
// the request is sent. The handler runs on the event loop once the
// request completes, successful or not.
//
// hc is the context of the dispatching handler and may be nil.
func (t *RouteTable) Execute(ctx context.Context, method, url string, data map[string]any, hc *Context) (*Call, error) {
	method = strings.ToUpper(method)
	if !routeMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	route, ok := t.Lookup(method, url)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, url)
	}

	payload := Merge(data)
	if hc != nil && hc.Request != nil {
		payload = Merge(data, hc.Request.Fields())
	}

	call := &Call{Route: route, done: make(chan struct{})}
	if route.Target != "" && t.engine != nil {
		t.engine.showLoading(route.Target)
	}

	var key string
	if method == http.MethodGet && t.cache != nil {
		key = cache.Key(method, route.URL, payload)
		entry, hit, err := t.cache.Get(key)
		if err != nil {
			t.logger.Warn("response cache read failed", zap.Error(err))
		}
		if hit {
			resp := NewSuccess(entry.Data, entry.Status)
			resp.Cached = true
			t.post(call, resp, hc)
			return call, nil
		}
	}

	t.loop.Go(func() {
		reply, err := t.client.Do(ctx, method, route.URL, payload)
		resp := responseFromReply(reply, err)
		if err != nil {
			t.logger.Debug("route request failed",
				zap.String("method", method), zap.String("url", route.URL), zap.Error(err))
		} else if key != "" {
			if err := t.cache.Put(key, resp.Status, resp.Data); err != nil {
				t.logger.Warn("response cache write failed", zap.Error(err))
			}
		}
		t.post(call, resp, hc)
	})
	return call, nil
}

func (t *RouteTable) post(call *Call, resp *Response, hc *Context) {
	complete := func() {
		call.finish(resp, func() {
			if t.engine != nil {
				t.engine.deliver(call.Route, resp, hc)
			}
		})
	}
	if !t.loop.Post(complete) {
		call.finish(resp, nil)
	}
}

// Call is a pending route execution.
type Call struct {
	Route *Route

	once sync.Once
	done chan struct{}
	resp *Response
}

// finish records resp and runs deliver exactly once.
func (c *Call) finish(resp *Response, deliver func()) {
	c.once.Do(func() {
		c.resp = resp
		if deliver != nil {
			deliver()
		}
		close(c.done)
	})
}

// Done is closed after the handler has run.
func (c *Call) Done() <-chan struct{} { return c.done }

// Response returns the response, or nil before Done is closed.
func (c *Call) Response() *Response {
	select {
	case <-c.done:
		return c.resp
	default:
		return nil
	}
}

// Wait blocks until the handler has run or ctx is done. Do not call it
// from the event loop goroutine.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
