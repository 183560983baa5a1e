package larafront

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pthm/larafront/lib/validation"
)

// RequestFactory creates a fresh form request.
type RequestFactory func() validation.FormRequest

// Registry holds the form request types and controllers known to an
// engine. Build it once at startup and pass it to New.
//
//	reg := larafront.NewRegistry()
//	reg.Request("UserRequest", func() validation.FormRequest { return &UserRequest{} })
//	reg.Request("Auth/LoginRequest", func() validation.FormRequest { return &LoginRequest{} })
type Registry struct {
	mu          sync.RWMutex
	requests    map[string]RequestFactory
	names       []string
	controllers map[string]Bindable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requests:    make(map[string]RequestFactory),
		controllers: make(map[string]Bindable),
	}
}

// Request registers a form request under name. A name with a path such as
// "Auth/LoginRequest" is also reachable by its last segment. Registering
// the same name again replaces the factory.
func (reg *Registry) Request(name string, factory RequestFactory) *Registry {
	if name == "" || factory == nil {
		return reg
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.requests[name]; !exists {
		reg.names = append(reg.names, name)
	}
	reg.requests[name] = factory
	if base := path.Base(name); base != name {
		reg.requests[base] = factory
	}
	return reg
}

// Requests returns the registered request names in registration order.
func (reg *Registry) Requests() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return append([]string(nil), reg.names...)
}

// ResolveRequest finds the request a parameter name refers to, trying
// Name, NameRequest, Auth/Name and Auth/NameRequest in that order. Only
// names containing "Request" are considered.
func (reg *Registry) ResolveRequest(param string) (string, RequestFactory, bool) {
	param = strings.TrimSpace(param)
	if !strings.Contains(param, "Request") {
		return "", nil, false
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, candidate := range []string{
		param,
		param + "Request",
		"Auth/" + param,
		"Auth/" + param + "Request",
	} {
		if f, ok := reg.requests[candidate]; ok {
			return candidate, f, true
		}
		if f, ok := reg.requests[path.Base(candidate)]; ok {
			return path.Base(candidate), f, true
		}
	}
	return "", nil, false
}

// Controller registers controllers by name. Panics if two different
// controllers share a name.
func (reg *Registry) Controller(controllers ...Bindable) *Registry {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, c := range controllers {
		name := c.Base().Name()
		if existing, ok := reg.controllers[name]; ok && existing.Base() != c.Base() {
			panic(fmt.Sprintf("larafront: controller name collision: %q", name))
		}
		reg.controllers[name] = c
	}
	return reg
}

// Lookup returns the controller registered under name.
func (reg *Registry) Lookup(name string) (Bindable, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	c, ok := reg.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrControllerNotFound, name)
	}
	return c, nil
}

// Controllers returns registered controllers sorted by name.
func (reg *Registry) Controllers() []Bindable {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Bindable, 0, len(reg.controllers))
	for _, c := range reg.controllers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Base().Name() < out[j].Base().Name()
	})
	return out
}
