package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

// ErrExists is returned when the file to generate is already present.
var ErrExists = errors.New("scaffold: file already exists")

// ModulePath is the import path used in generated controllers.
const ModulePath = "github.com/pthm/larafront"

// Field is a form request field and its rule string.
type Field struct {
	Name  string
	Rules string
}

// ParseFields parses "name:required|min:3" arguments. The first colon
// separates the field from its rules.
func ParseFields(args []string) ([]Field, error) {
	fields := make([]Field, 0, len(args))
	for _, a := range args {
		name, rules, ok := strings.Cut(a, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(rules) == "" {
			return nil, fmt.Errorf("scaffold: field %q: want name:rules", a)
		}
		fields = append(fields, Field{Name: name, Rules: strings.TrimSpace(rules)})
	}
	return fields, nil
}

// MakeController writes a controller skeleton into dir and returns its
// path. name gets a "Controller" suffix if missing; an empty selector
// defaults to "#" plus the kebab-cased resource name.
func (s *Scaffolder) MakeController(dir, name, selector string) (string, error) {
	typeName := withSuffix(name, "Controller")
	if selector == "" {
		selector = "#" + kebab(strings.TrimSuffix(typeName, "Controller"))
	}
	data := struct {
		Package  string
		Module   string
		Type     string
		Selector string
	}{
		Package:  packageName(dir),
		Module:   ModulePath,
		Type:     typeName,
		Selector: selector,
	}
	return s.write(dir, typeName, controllerTemplate, data)
}

// MakeRequest writes a form request skeleton into dir and returns its
// path. name gets a "Request" suffix if missing.
func (s *Scaffolder) MakeRequest(dir, name string, fields []Field) (string, error) {
	typeName := withSuffix(name, "Request")
	data := struct {
		Package string
		Type    string
		Fields  []Field
	}{
		Package: packageName(dir),
		Type:    typeName,
		Fields:  fields,
	}
	return s.write(dir, typeName, requestTemplate, data)
}

func (s *Scaffolder) write(dir, typeName, tmplText string, data any) (string, error) {
	out := filepath.Join(dir, snake(typeName)+".go")
	if _, err := os.Stat(out); err == nil {
		return out, fmt.Errorf("%w: %s", ErrExists, out)
	}

	tmpl, err := template.New(typeName).Parse(tmplText)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	code, err := format.Source(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("format source: %w", err)
	}

	fmt.Fprintf(s.opts.Out, "generating %s\n", out)
	if s.opts.DryRun {
		return out, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return out, os.WriteFile(out, code, 0o644)
}

func withSuffix(name, suffix string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return suffix
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	name = string(r)
	if strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}

// packageName derives a package clause from the target directory.
func packageName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	base := strings.ToLower(filepath.Base(abs))
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || (b.Len() > 0 && unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "controllers"
	}
	return b.String()
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			words = append(words, string(cur))
			cur = nil
		}
		cur = append(cur, unicode.ToLower(r))
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func snake(s string) string { return strings.Join(splitWords(s), "_") }

func kebab(s string) string { return strings.Join(splitWords(s), "-") }

const controllerTemplate = `package {{.Package}}

import "{{.Module}}"

// {{.Type}} handles events on {{.Selector}}.
type {{.Type}} struct {
	*larafront.Controller
}

// New{{.Type}} creates the controller and declares its handlers.
func New{{.Type}}() *{{.Type}} {
	c := &{{.Type}}{
		Controller: larafront.NewController("{{.Type}}", "{{.Selector}}"),
	}
	c.On("onClick", "e", c.click)
	c.On("onSubmit", "e, request", c.submit)
	return c
}

func (c *{{.Type}}) click(ctx *larafront.Context) {
	if ctx.Response != nil && ctx.Response.Error {
		ctx.Logger().Warn(ctx.Method() + " failed")
	}
}

func (c *{{.Type}}) submit(ctx *larafront.Context) {
	_ = ctx.Request.All()
}
`

const requestTemplate = `package {{.Package}}

// {{.Type}} validates its form before the handler runs.
type {{.Type}} struct{}

// Rules returns the validation rules keyed by field.
func ({{.Type}}) Rules() map[string]string {
	return map[string]string{
{{- range .Fields}}
		{{printf "%q" .Name}}: {{printf "%q" .Rules}},
{{- end}}
	}
}

// Messages overrides messages, keyed "field.rule".
func ({{.Type}}) Messages() map[string]string {
	return map[string]string{}
}

// Attributes names fields in messages.
func ({{.Type}}) Attributes() map[string]string {
	return map[string]string{}
}

// Authorize reports whether the request may be submitted.
func ({{.Type}}) Authorize() bool {
	return true
}
`
