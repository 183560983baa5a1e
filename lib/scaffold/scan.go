// Package scaffold generates controller and form request files and scans
// Go sources for handler and route declarations.
package scaffold

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Options configures the scaffolder.
type Options struct {
	DryRun bool
	// Out receives progress lines. Defaults to os.Stdout.
	Out io.Writer
}

// Scaffolder scans and generates larafront sources.
type Scaffolder struct {
	opts Options
	fset *token.FileSet
}

// New creates a scaffolder.
func New(opts Options) *Scaffolder {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Scaffolder{
		opts: opts,
		fset: token.NewFileSet(),
	}
}

// ControllerInfo is a controller type found in source.
type ControllerInfo struct {
	SourceFile string
	TypeName   string
	// Name and Selector come from the NewController call, when literal.
	Name     string
	Selector string
	Handlers []HandlerInfo
}

// HandlerInfo is one c.On registration.
type HandlerInfo struct {
	Method    string // e.g. "onSubmit"
	Signature string // e.g. "e, UserRequest"
	Func      string // handler method name, when a method value
	Line      int
}

// RouteInfo is one route registration with a Handle reference.
type RouteInfo struct {
	SourceFile string
	Line       int
	Verb       string
	URL        string
	Controller string // expression text of the controller argument
	Handler    string
	Target     string
}

// Scan finds controllers and routes in the packages matched by patterns.
func (s *Scaffolder) Scan(patterns ...string) ([]*ControllerInfo, []RouteInfo, error) {
	packages, err := s.findPackages(patterns)
	if err != nil {
		return nil, nil, err
	}

	var (
		controllers []*ControllerInfo
		routes      []RouteInfo
	)
	for _, pkgPath := range packages {
		pkgs, err := parser.ParseDir(s.fset, pkgPath, func(info os.FileInfo) bool {
			return !strings.HasSuffix(info.Name(), "_test.go")
		}, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("package %s: %w", pkgPath, err)
		}
		for _, pkg := range pkgs {
			files := make([]string, 0, len(pkg.Files))
			for name := range pkg.Files {
				files = append(files, name)
			}
			sort.Strings(files)
			for _, name := range files {
				file := pkg.Files[name]
				controllers = append(controllers, s.findControllers(name, file)...)
				routes = append(routes, s.findRoutes(name, file)...)
			}
		}
	}
	return controllers, routes, nil
}

// findPackages resolves package patterns to directory paths.
func (s *Scaffolder) findPackages(patterns []string) ([]string, error) {
	var packages []string

	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, "/...") {
			packages = append(packages, pattern)
			continue
		}
		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".go") && !strings.HasSuffix(entry.Name(), "_test.go") {
					packages = append(packages, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return packages, nil
}

// findControllers finds struct types embedding *larafront.Controller and
// the handlers registered in the same file.
func (s *Scaffolder) findControllers(filename string, file *ast.File) []*ControllerInfo {
	var out []*ControllerInfo
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok || !embedsController(structType) {
				continue
			}
			info := &ControllerInfo{
				SourceFile: filename,
				TypeName:   typeSpec.Name.Name,
			}
			info.Name, info.Selector = s.findNewController(file)
			info.Handlers = s.findHandlers(file)
			out = append(out, info)
		}
	}
	return out
}

// embedsController checks for an anonymous *larafront.Controller field.
func embedsController(st *ast.StructType) bool {
	for _, field := range st.Fields.List {
		if len(field.Names) != 0 {
			continue
		}
		star, ok := field.Type.(*ast.StarExpr)
		if !ok {
			continue
		}
		switch x := star.X.(type) {
		case *ast.SelectorExpr:
			if ident, ok := x.X.(*ast.Ident); ok && ident.Name == "larafront" && x.Sel.Name == "Controller" {
				return true
			}
		case *ast.Ident:
			if x.Name == "Controller" {
				return true
			}
		}
	}
	return false
}

// findNewController returns the literal arguments of the first
// NewController call in file.
func (s *Scaffolder) findNewController(file *ast.File) (name, selector string) {
	ast.Inspect(file, func(n ast.Node) bool {
		if name != "" {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok || calleeName(call) != "NewController" || len(call.Args) < 2 {
			return true
		}
		name, _ = stringLit(call.Args[0])
		selector, _ = stringLit(call.Args[1])
		return false
	})
	return name, selector
}

// findHandlers finds c.On("method", "signature", fn) calls.
func (s *Scaffolder) findHandlers(file *ast.File) []HandlerInfo {
	var handlers []HandlerInfo
	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Body == nil {
			continue
		}
		ast.Inspect(funcDecl.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "On" || len(call.Args) < 3 {
				return true
			}
			method, ok := stringLit(call.Args[0])
			if !ok {
				return true
			}
			h := HandlerInfo{
				Method: method,
				Line:   s.fset.Position(call.Pos()).Line,
			}
			h.Signature, _ = stringLit(call.Args[1])
			if fn, ok := call.Args[2].(*ast.SelectorExpr); ok {
				h.Func = fn.Sel.Name
			}
			handlers = append(handlers, h)
			return true
		})
	}
	return handlers
}

var routeVerbs = map[string]string{
	"Get":    "GET",
	"Post":   "POST",
	"Put":    "PUT",
	"Delete": "DELETE",
	"Patch":  "PATCH",
}

// findRoutes finds x.Get("/url", larafront.Handle(c, "method"), "#target")
// style registrations.
func (s *Scaffolder) findRoutes(filename string, file *ast.File) []RouteInfo {
	var routes []RouteInfo
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		var (
			verb string
			args = call.Args
		)
		if v, ok := routeVerbs[sel.Sel.Name]; ok {
			verb = v
		} else if sel.Sel.Name == "Register" && len(args) >= 3 {
			lit, ok := stringLit(args[0])
			if !ok {
				return true
			}
			verb, args = strings.ToUpper(lit), args[1:]
		} else {
			return true
		}
		if len(args) < 2 {
			return true
		}

		url, ok := stringLit(args[0])
		if !ok {
			return true
		}
		ref, ok := args[1].(*ast.CallExpr)
		if !ok || calleeName(ref) != "Handle" || len(ref.Args) != 2 {
			return true
		}
		handler, ok := stringLit(ref.Args[1])
		if !ok {
			return true
		}

		r := RouteInfo{
			SourceFile: filename,
			Line:       s.fset.Position(call.Pos()).Line,
			Verb:       verb,
			URL:        url,
			Controller: exprString(ref.Args[0]),
			Handler:    handler,
		}
		if len(args) > 2 {
			r.Target, _ = stringLit(args[2])
		}
		routes = append(routes, r)
		return true
	})
	return routes
}

// calleeName returns the function name of a call: "F" for F(...) and
// pkg.F(...).
func calleeName(call *ast.CallExpr) string {
	switch f := call.Fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	}
	return ""
}

func stringLit(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// exprString renders simple identifier and selector expressions.
func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.UnaryExpr:
		return e.Op.String() + exprString(e.X)
	}
	return "?"
}
