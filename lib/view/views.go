package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/fsnotify/fsnotify"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no file exists for a view name.
var ErrNotFound = errors.New("view: not found")

// Views loads named templates from a file system and caches them.
//
// A view name uses dots as path separators: "auth.login" resolves to
// auth/login.html, falling back to auth/login.md, which is converted from
// Markdown before compiling.
type Views struct {
	fsys   fs.FS
	md     goldmark.Markdown
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*Template
}

// Option configures Views.
type Option func(*Views)

// WithLogger sets the logger used for load and watch failures.
func WithLogger(l *zap.Logger) Option {
	return func(v *Views) { v.logger = l }
}

// WithMarkdown replaces the Markdown converter used for .md views.
func WithMarkdown(md goldmark.Markdown) Option {
	return func(v *Views) { v.md = md }
}

// New creates a loader reading from fsys.
func New(fsys fs.FS, opts ...Option) *Views {
	v := &Views{
		fsys:   fsys,
		md:     goldmark.New(),
		logger: zap.NewNop(),
		cache:  make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Dir creates a loader over a directory on disk.
func Dir(dir string, opts ...Option) *Views {
	return New(os.DirFS(dir), opts...)
}

// Path returns the .html file path for a view name.
func Path(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".html"
}

// Load returns the compiled template for name, reading it on first use.
func (v *Views) Load(name string) (*Template, error) {
	v.mu.RLock()
	t, ok := v.cache[name]
	v.mu.RUnlock()
	if ok {
		return t, nil
	}

	src, err := v.read(name)
	if err != nil {
		return nil, err
	}
	t, err = Compile(name, src)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.cache[name] = t
	v.mu.Unlock()
	return t, nil
}

func (v *Views) read(name string) (string, error) {
	p := Path(name)
	b, err := fs.ReadFile(v.fsys, p)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	mdPath := strings.TrimSuffix(p, ".html") + ".md"
	b, err = fs.ReadFile(v.fsys, mdPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := v.md.Convert(b, &buf); err != nil {
		return "", fmt.Errorf("view: markdown %s: %w", mdPath, err)
	}
	return buf.String(), nil
}

// Render loads and executes the named view.
func (v *Views) Render(name string, data any) (string, error) {
	t, err := v.Load(name)
	if err != nil {
		return "", err
	}
	return t.Execute(data), nil
}

// RenderOrPlaceholder renders the view, substituting a visible error box
// when the view cannot be loaded.
func (v *Views) RenderOrPlaceholder(name string, data any) string {
	out, err := v.Render(name, data)
	if err != nil {
		v.logger.Warn("view unavailable", zap.String("view", name), zap.Error(err))
		return NotFoundHTML(Path(name))
	}
	return out
}

// NotFoundHTML is the fragment shown in place of a missing view.
func NotFoundHTML(p string) string {
	return `<div class="error">View not found: ` + html.EscapeString(p) + `</div>`
}

// Component adapts a named view to a templ.Component.
func (v *Views) Component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := v.Render(name, data)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

// Invalidate drops cached templates. With no names the whole cache is
// cleared.
func (v *Views) Invalidate(names ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(names) == 0 {
		v.cache = make(map[string]*Template)
		return
	}
	for _, name := range names {
		delete(v.cache, name)
	}
}

// Cached reports whether name is in the cache.
func (v *Views) Cached(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.cache[name]
	return ok
}

// NameFor maps a file path relative to the views root back to a view name.
func NameFor(rel string) (string, bool) {
	rel = filepath.ToSlash(rel)
	ext := path.Ext(rel)
	if ext != ".html" && ext != ".md" {
		return "", false
	}
	return strings.ReplaceAll(strings.TrimSuffix(rel, ext), "/", "."), true
}

// Watch invalidates cached views when files under dir change. It blocks
// until ctx is done. dir must be the directory backing the loader.
func (v *Views) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.Add(ev.Name)
					continue
				}
			}
			rel, err := filepath.Rel(dir, ev.Name)
			if err != nil {
				continue
			}
			if name, ok := NameFor(rel); ok {
				v.Invalidate(name)
				v.logger.Debug("view changed", zap.String("view", name), zap.String("op", ev.Op.String()))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			v.logger.Warn("view watcher error", zap.Error(err))
		}
	}
}
