package larafront

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm/larafront/lib/dom"
)

func TestContextValue(t *testing.T) {
	ev := dom.NewEvent("click")
	req := newRequest("", nil, &RequestContext{Fields: map[string]any{"title": "from request"}}, "en")
	c := &Context{
		Event:    ev,
		Request:  req,
		Response: NewSuccess(map[string]any{"id": 1}, 201),
		Params:   []Param{{Name: "e"}, {Name: "id"}},
		Args:     []any{ev, int64(5)},
		fields:   map[string]any{"page": int64(2)},
	}
	c.Set("local", "v")

	want := map[string]any{
		"local":   "v",
		"id":      int64(5),
		"e":       ev,
		"status":  201,
		"success": true,
		"error":   false,
		"data":    map[string]any{"id": 1},
		"title":   "from request",
		"page":    int64(2),
	}
	got := c.Compact("local", "id", "e", "status", "success", "error", "data", "title", "page", "absent")
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b *dom.Event) bool { return a == b })); diff != "" {
		t.Errorf("Compact() mismatch (-want +got):\n%s", diff)
	}

	if v, ok := c.Value("response"); !ok || v != c.Response {
		t.Errorf("Value(response) = %v, %v", v, ok)
	}
	if got := c.Arg("id"); got != int64(5) {
		t.Errorf("Arg(id) = %v, want 5", got)
	}
}

func TestContextWithoutEngine(t *testing.T) {
	c := &Context{}
	if err := c.View("x", "#y", nil); err != ErrNotBooted {
		t.Errorf("View() error = %v, want ErrNotBooted", err)
	}
	if c.Document() != nil {
		t.Error("Document() != nil")
	}
	if c.Method() != "" {
		t.Errorf("Method() = %q, want empty", c.Method())
	}
	c.Logger().Info("discarded")
}

func TestCompactAndMerge(t *testing.T) {
	src := map[string]any{"a": 1, "b": 2}
	if diff := cmp.Diff(map[string]any{"a": 1}, Compact(src, "a", "z")); diff != "" {
		t.Errorf("Compact() mismatch (-want +got):\n%s", diff)
	}
	got := Merge(src, map[string]any{"b": 3, "c": 4}, nil)
	if diff := cmp.Diff(map[string]any{"a": 1, "b": 3, "c": 4}, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
	if src["b"] != 2 {
		t.Error("Merge() modified its input")
	}
}
