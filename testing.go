package larafront

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing/fstest"
	"time"

	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/transport"
	"github.com/pthm/larafront/lib/view"
)

// settleTimeout bounds how long the test helpers wait for queued work.
const settleTimeout = 5 * time.Second

// FakeCall is one request seen by a FakeTransport.
type FakeCall struct {
	Method  string
	URL     string
	Payload map[string]any
}

// FakeReply is a canned outcome. Status 400 and above is returned as a
// *transport.StatusError carrying Data.
type FakeReply struct {
	Status int
	Data   any
}

// FakeTransport is a transport.Doer that answers from canned replies and
// records every call. Requests without a reply fail with 404.
//
//	ft := larafront.NewFakeTransport()
//	ft.Reply("GET", "/posts/1", 200, map[string]any{"id": 1})
//	e, err := larafront.NewTestEngine(page, larafront.WithTransport(ft))
type FakeTransport struct {
	mu      sync.Mutex
	replies map[string]FakeReply
	calls   []FakeCall
}

// NewFakeTransport creates a transport with no replies.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{replies: make(map[string]FakeReply)}
}

// Reply sets the outcome for method and url.
func (f *FakeTransport) Reply(method, url string, status int, data any) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[strings.ToUpper(method)+" "+url] = FakeReply{Status: status, Data: data}
	return f
}

// Do implements transport.Doer.
func (f *FakeTransport) Do(_ context.Context, method, url string, payload map[string]any) (*transport.Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Method: method, URL: url, Payload: payload})
	r, ok := f.replies[strings.ToUpper(method)+" "+url]
	f.mu.Unlock()

	if !ok {
		r = FakeReply{Status: http.StatusNotFound}
	}
	if r.Status >= 400 {
		return nil, &transport.StatusError{
			Status:     r.Status,
			StatusText: http.StatusText(r.Status),
			Message:    http.StatusText(r.Status),
			Data:       r.Data,
		}
	}
	return &transport.Reply{Status: r.Status, Header: make(http.Header), Data: r.Data}, nil
}

// Calls returns the recorded calls in order.
func (f *FakeTransport) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// NewTestEngine parses page, creates an engine with a FakeTransport and
// in-memory views (override either with opts) and boots it. Register
// controllers afterwards; they bind immediately.
func NewTestEngine(page string, opts ...Option) (*Engine, error) {
	doc, err := dom.ParseString(page)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithTransport(NewFakeTransport()),
		WithViews(view.New(fstest.MapFS{})),
	}
	e := New(append(base, opts...)...)
	if err := e.Boot(doc); err != nil {
		return nil, err
	}
	return e, nil
}

// TestResult is the page after a simulated interaction.
type TestResult struct {
	HTML string
	// Event is the dispatched event, or nil when nothing matched.
	Event *dom.Event
}

// HTMLContains checks if the page contains substr.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the page contains all substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the page contains any of the substrings.
func (r *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.HTML, s) {
			return true
		}
	}
	return false
}

// DefaultPrevented reports whether a handler cancelled the event.
func (r *TestResult) DefaultPrevented() bool {
	return r.Event != nil && r.Event.DefaultPrevented()
}

// Trigger dispatches an event of type typ on the first element matching
// selector and settles the engine, so route responses have been delivered
// when it returns.
func Trigger(e *Engine, selector, typ string) (*TestResult, error) {
	doc := e.Document()
	if doc == nil {
		return nil, ErrNotBooted
	}
	el := doc.First(selector)
	if el == nil {
		return nil, fmt.Errorf("larafront: no element matches %q", selector)
	}

	var ev *dom.Event
	e.loop.Post(func() { ev = el.Trigger(typ) })

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	if err := e.Settle(ctx); err != nil {
		return nil, err
	}
	return &TestResult{HTML: doc.HTML(), Event: ev}, nil
}

// Click dispatches a click on the first element matching selector.
func Click(e *Engine, selector string) (*TestResult, error) {
	return Trigger(e, selector, "click")
}

// Submit dispatches a submit on the first element matching selector.
func Submit(e *Engine, selector string) (*TestResult, error) {
	return Trigger(e, selector, "submit")
}

// Fill sets the value of the first form control matching selector.
func Fill(e *Engine, selector, value string) error {
	doc := e.Document()
	if doc == nil {
		return ErrNotBooted
	}
	el := doc.First(selector)
	if el == nil {
		return fmt.Errorf("larafront: no element matches %q", selector)
	}
	el.SetValue(value)
	return nil
}
