package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openTest(t *testing.T, opts ...Option) (*Store, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clk.now), WithTTL(time.Minute)}, opts...)
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), []byte("secret"), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clk
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		url     string
		payload map[string]any
		want    string
	}{
		{"no payload", "get", "/posts", nil, "GET /posts"},
		{"sorted payload", "GET", "/posts", map[string]any{"b": 2, "a": 1}, `GET /posts {"a":1,"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.method, tt.url, tt.payload); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPutGet(t *testing.T) {
	for _, sealed := range []bool{false, true} {
		var opts []Option
		if sealed {
			opts = append(opts, WithSealed())
		}
		s, _ := openTest(t, opts...)

		data := map[string]any{"title": "Hello", "tags": []any{"a", "b"}}
		if err := s.Put("GET /posts/1", 200, data); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		e, ok, err := s.Get("GET /posts/1")
		if err != nil || !ok {
			t.Fatalf("Get() = %v, %v, want hit", ok, err)
		}
		if e.Status != 200 {
			t.Errorf("Status = %d, want 200", e.Status)
		}
		if diff := cmp.Diff(any(data), e.Data); diff != "" {
			t.Errorf("sealed=%v Data mismatch (-want +got):\n%s", sealed, diff)
		}

		if _, ok, _ := s.Get("GET /missing"); ok {
			t.Error("Get(missing) hit, want miss")
		}
	}
}

func TestExpiryAndPurge(t *testing.T) {
	s, clk := openTest(t)
	_ = s.Put("old", 200, "a")
	clk.t = clk.t.Add(45 * time.Second)
	_ = s.Put("new", 200, "b")

	clk.t = clk.t.Add(30 * time.Second)
	if _, ok, _ := s.Get("old"); ok {
		t.Error("Get(old) hit after TTL")
	}
	if _, ok, _ := s.Get("new"); !ok {
		t.Error("Get(new) miss before TTL")
	}

	n, err := s.Purge()
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Purge() = %d, want 1", n)
	}
	if l, _ := s.Len(); l != 1 {
		t.Errorf("Len() = %d, want 1", l)
	}
}

func TestDelete(t *testing.T) {
	s, _ := openTest(t)
	_ = s.Put("k", 200, "v")
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("Get() hit after Delete")
	}
}

func TestWrongKeyIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Put("k", 200, "v")
	s.Close()

	s, err = Open(path, []byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, err := s.Get("k"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss without error", ok, err)
	}
}
