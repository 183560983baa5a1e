package larafront

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pthm/larafront/lib/transport"
)

func TestRouteRegister(t *testing.T) {
	posts := NewController("PostController", "#posts")
	other := NewController("OtherController", "#other")

	rt := NewRouteTable()
	rt.Get("/posts", Handle(posts, "index"))
	rt.Post("/posts", Handle(posts, "store"), "#result")
	rt.Register("patch", "/posts/1", Handle(posts, "update"))
	rt.Put("/posts/1", Handle(posts, "replace"))
	rt.Delete("/posts/1", Handle(posts, "destroy"))
	rt.Register("OPTIONS", "/posts", Handle(posts, "options"))
	rt.Get("/nil", HandlerRef{})
	rt.Get("/empty", Handle(posts, ""))

	var got []string
	for _, r := range rt.All() {
		got = append(got, r.Method+" "+r.URL+" "+r.Handler)
	}
	want := []string{
		"DELETE /posts/1 destroy",
		"GET /posts index",
		"PATCH /posts/1 update",
		"POST /posts store",
		"PUT /posts/1 replace",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	r, ok := rt.Lookup("post", "/posts")
	if !ok || r.Target != "#result" {
		t.Errorf("Lookup(post, /posts) = %+v, %v, want target #result", r, ok)
	}

	rt.Get("/posts", Handle(other, "list"))
	if r, _ := rt.Lookup("GET", "/posts"); r.Controller != other || r.Handler != "list" {
		t.Errorf("re-registration did not overwrite: %+v", r)
	}
}

func TestRegisterUnsupportedMethodLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rt := NewRouteTable()
	rt.logger = zap.New(core)

	rt.Register("OPTIONS", "/posts", Handle(NewController("PostController", "#posts"), "options"))

	if n := len(rt.All()); n != 0 {
		t.Errorf("All() has %d routes, want 0", n)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	msg, _ := entries[0].ContextMap()["error"].(string)
	if msg != "larafront: unsupported HTTP method: OPTIONS" {
		t.Errorf("logged error = %q, want unsupported method", msg)
	}
}

func TestFindByController(t *testing.T) {
	posts := NewController("PostController", "#posts")
	twin := NewController("PostController", "#twin")
	users := NewController("UserController", "#users")

	rt := NewRouteTable()
	rt.Get("/posts", Handle(posts, "onClick"))
	rt.Get("/twin", Handle(twin, "onChange"))

	tests := []struct {
		name   string
		c      Bindable
		method string
		want   string
	}{
		{"same value", posts, "onClick", "/posts"},
		{"same name", posts, "onChange", "/twin"},
		{"name fallback", twin, "onClick", "/posts"},
		{"no route", users, "onClick", ""},
		{"no method", posts, "onSubmit", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rt.FindByController(tt.c, tt.method)
			got := ""
			if r != nil {
				got = r.URL
			}
			if got != tt.want {
				t.Errorf("FindByController() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseFromReply(t *testing.T) {
	tests := []struct {
		name  string
		reply *transport.Reply
		err   error
		want  *Response
	}{
		{
			name:  "success",
			reply: &transport.Reply{Status: 201, Data: "ok"},
			want:  &Response{Data: "ok", Status: 201, Success: true},
		},
		{
			name:  "success default status",
			reply: &transport.Reply{Data: nil},
			want:  &Response{Status: 200, Success: true},
		},
		{
			name: "status error",
			err:  &transport.StatusError{Status: 404, StatusText: "Not Found", Message: "gone", Data: map[string]any{"message": "gone"}},
			want: &Response{Data: map[string]any{"message": "gone"}, Status: 404, Error: true, Message: "gone"},
		},
		{
			name: "other error",
			err:  errors.New("dial failed"),
			want: &Response{Status: 500, Error: true, Message: "dial failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, responseFromReply(tt.reply, tt.err)); diff != "" {
				t.Errorf("responseFromReply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
