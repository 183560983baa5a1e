package view

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

func TestViewsLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"auth/login.html": {Data: []byte(`<h1>{{ title }}</h1>`)},
		"docs/intro.md":   {Data: []byte("# {{ title }}\n")},
		"broken.html":     {Data: []byte(`@if(a)`)},
	}
	v := New(fsys)

	tests := []struct {
		name    string
		view    string
		want    string
		wantErr error
	}{
		{"dotted name", "auth.login", "<h1>Hello</h1>", nil},
		{"markdown fallback", "docs.intro", "<h1>Hello</h1>\n", nil},
		{"missing", "nope", "", ErrNotFound},
		{"syntax error", "broken", "", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Render(tt.view, map[string]any{"title": "Hello"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Render() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithMarkdown(t *testing.T) {
	fsys := fstest.MapFS{"notes.md": {Data: []byte("~~old~~ {{ n }}\n")}}

	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"default converter", nil, "<p>~~old~~ 3</p>\n"},
		{"strikethrough extension", []Option{WithMarkdown(goldmark.New(goldmark.WithExtensions(extension.Strikethrough)))}, "<p><del>old</del> 3</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(fsys, tt.opts...).Render("notes", map[string]any{"n": 3})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewsCache(t *testing.T) {
	fsys := fstest.MapFS{"a.html": {Data: []byte("one")}}
	v := New(fsys)

	if got, _ := v.Render("a", nil); got != "one" {
		t.Fatalf("Render() = %q, want one", got)
	}
	fsys["a.html"] = &fstest.MapFile{Data: []byte("two")}
	if got, _ := v.Render("a", nil); got != "one" {
		t.Errorf("Render() after file change = %q, want cached one", got)
	}

	v.Invalidate("a")
	if v.Cached("a") {
		t.Fatal("Cached() true after Invalidate")
	}
	if got, _ := v.Render("a", nil); got != "two" {
		t.Errorf("Render() after Invalidate = %q, want two", got)
	}
}

func TestRenderOrPlaceholder(t *testing.T) {
	v := New(fstest.MapFS{})
	got := v.RenderOrPlaceholder("users.index", nil)
	want := `<div class="error">View not found: users/index.html</div>`
	if got != want {
		t.Errorf("RenderOrPlaceholder() = %q, want %q", got, want)
	}
}

func TestComponent(t *testing.T) {
	v := New(fstest.MapFS{"card.html": {Data: []byte(`<p>{{ n }}</p>`)}})
	var buf bytes.Buffer
	if err := v.Component("card", map[string]any{"n": 5}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.String() != "<p>5</p>" {
		t.Errorf("Component output = %q", buf.String())
	}
}

func TestRawComponentValue(t *testing.T) {
	v := New(fstest.MapFS{
		"inner.html": {Data: []byte(`<i>{{ x }}</i>`)},
		"outer.html": {Data: []byte(`<div>{!! slot !!}</div>`)},
	})
	got, err := v.Render("outer", map[string]any{"slot": v.Component("inner", map[string]any{"x": "&"})})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "<div><i>&amp;</i></div>" {
		t.Errorf("Render() = %q", got)
	}
}

func TestNameFor(t *testing.T) {
	tests := []struct {
		rel    string
		want   string
		wantOK bool
	}{
		{"auth/login.html", "auth.login", true},
		{"intro.md", "intro", true},
		{"style.css", "", false},
	}
	for _, tt := range tests {
		got, ok := NameFor(tt.rel)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NameFor(%q) = %q, %v, want %q, %v", tt.rel, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "home.html")
	if err := os.WriteFile(file, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := Dir(dir)
	if got, _ := v.Render("home", nil); got != "v1" {
		t.Fatalf("Render() = %q, want v1", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Watch(ctx, dir) }()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := os.WriteFile(file, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
		if !v.Cached("home") {
			break
		}
	}

	got, err := v.Render("home", nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasPrefix(got, "v2") {
		t.Errorf("Render() after change = %q, want v2", got)
	}
}
