// Package translation resolves dotted message keys ("validation.required")
// against per-locale YAML files with a fallback locale.
//
// Files live at <locale>/<file>.yaml. The first key segment names the file
// and the rest walks nested maps inside it. Placeholders of the form :name
// are replaced from the arguments passed to Get; :attribute is first looked
// up under validation.attributes.
package translation

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed lang
var builtin embed.FS

// Translator holds loaded message files for several locales.
type Translator struct {
	mu       sync.RWMutex
	locale   string
	fallback string
	files    map[string]map[string]any // "<locale>.<file>" -> tree
}

// New creates an empty translator.
func New(locale, fallback string) *Translator {
	return &Translator{
		locale:   locale,
		fallback: fallback,
		files:    make(map[string]map[string]any),
	}
}

// Default returns a translator preloaded with the bundled en and ar files.
func Default(locale, fallback string) *Translator {
	t := New(locale, fallback)
	if err := t.LoadFS(builtin, "lang"); err != nil {
		panic(fmt.Sprintf("translation: bundled files: %v", err))
	}
	return t
}

// LoadFS loads every <root>/<locale>/<file>.yaml found in fsys. Files for
// a locale and name that is already loaded are merged, later keys winning.
func (t *Translator) LoadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := path.Ext(p)
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		rel := strings.TrimPrefix(p, strings.TrimSuffix(root, "/")+"/")
		locale, file, ok := strings.Cut(strings.TrimSuffix(rel, ext), "/")
		if !ok || strings.Contains(file, "/") {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		var lines map[string]any
		if err := yaml.Unmarshal(b, &lines); err != nil {
			return fmt.Errorf("translation: %s: %w", p, err)
		}
		t.AddLines(locale, file, lines)
		return nil
	})
}

// AddLines merges lines into the given locale file.
func (t *Translator) AddLines(locale, file string, lines map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := locale + "." + file
	dst := t.files[key]
	if dst == nil {
		dst = make(map[string]any)
		t.files[key] = dst
	}
	mergeTree(dst, lines)
}

func mergeTree(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeTree(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// Locales returns the loaded locales, sorted.
func (t *Translator) Locales() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for key := range t.files {
		locale, _, _ := strings.Cut(key, ".")
		if !seen[locale] {
			seen[locale] = true
			out = append(out, locale)
		}
	}
	sort.Strings(out)
	return out
}

// SetLocale switches the active locale. A regional tag such as "ar-EG"
// selects the closest loaded locale; unknown tags are kept as given.
func (t *Translator) SetLocale(locale string) {
	resolved := t.Match(locale)
	t.mu.Lock()
	t.locale = resolved
	t.mu.Unlock()
}

// Match returns the loaded locale closest to tag, or tag itself when no
// loaded locale is a reasonable match.
func (t *Translator) Match(tag string) string {
	locales := t.Locales()
	if len(locales) == 0 {
		return tag
	}
	want, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = language.Make(l)
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return tag
	}
	return locales[idx]
}

// Locale returns the active locale.
func (t *Translator) Locale() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale
}

// Fallback returns the fallback locale.
func (t *Translator) Fallback() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fallback
}

// Lookup returns the raw message for key in the active locale, then the
// fallback locale.
func (t *Translator) Lookup(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	file, rest, ok := strings.Cut(key, ".")
	if !ok {
		return "", false
	}
	if msg, ok := t.lookupIn(t.locale, file, rest); ok {
		return msg, true
	}
	if t.fallback != t.locale {
		return t.lookupIn(t.fallback, file, rest)
	}
	return "", false
}

func (t *Translator) lookupIn(locale, file, rest string) (string, bool) {
	var v any = t.files[locale+"."+file]
	for _, part := range strings.Split(rest, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		v = m[part]
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Has reports whether key resolves to a message.
func (t *Translator) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// Get returns the message for key with placeholders replaced. A key that
// does not resolve is returned unchanged.
func (t *Translator) Get(key string, replace map[string]string) string {
	msg, ok := t.Lookup(key)
	if !ok {
		return key
	}
	return t.Replace(msg, replace)
}

// Replace substitutes :name placeholders in msg. Longer names are replaced
// first so :min does not clobber :minutes.
func (t *Translator) Replace(msg string, replace map[string]string) string {
	if attr, ok := replace["attribute"]; ok && attr != "" {
		if translated, ok := t.Lookup("validation.attributes." + attr); ok {
			attr = translated
		}
		msg = strings.ReplaceAll(msg, ":attribute", attr)
	}
	keys := make([]string, 0, len(replace))
	for k := range replace {
		if k != "attribute" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		msg = strings.ReplaceAll(msg, ":"+k, replace[k])
	}
	return msg
}
