package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pthm/larafront"
	"github.com/pthm/larafront/lib/config"
	"github.com/pthm/larafront/lib/logging"
	"github.com/pthm/larafront/lib/scaffold"
	"github.com/pthm/larafront/lib/view"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "make:controller":
		err = runMakeController(args)
	case "make:request":
		err = runMakeRequest(args)
	case "handlers":
		err = runHandlers(args)
	case "routes":
		err = runRoutes(args)
	case "render":
		err = runRender(args)
	case "cache:purge":
		err = runCachePurge(args)
	case "version":
		fmt.Printf("larafront version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`larafront - Laravel-style controllers for HTML documents

Usage:
  larafront <command> [arguments]

Commands:
  make:controller <Name> [--dir d] [--selector s]   Generate a controller
  make:request <Name> [--dir d] [field:rules ...]    Generate a form request
  handlers [packages]                                List controller handlers
  routes [packages]                                  List route registrations
  render <view> [data]                               Render a view to stdout
  cache:purge [--config f]                           Drop expired response cache entries
  version                                            Print version
  help                                               Show this help

Options:
  --dry-run             Show what would be generated without writing files

Examples:
  larafront make:controller User --selector "#user-form"
  larafront make:request Auth/Login "email:required|email" "password:required|min:8"
  larafront handlers ./...
  larafront render posts.show '{"post": {"title": "Hello"}}'`)
}

// flags splits "--name value" options and "--dry-run" from positional
// arguments.
func flags(args []string, names ...string) (map[string]string, []string, bool, error) {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	opts := make(map[string]string)
	var (
		rest   []string
		dryRun bool
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--dry-run":
			dryRun = true
		case strings.HasPrefix(arg, "--"):
			name, val, hasVal := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			if !known[name] {
				return nil, nil, false, fmt.Errorf("unknown option --%s", name)
			}
			if !hasVal {
				if i+1 >= len(args) {
					return nil, nil, false, fmt.Errorf("--%s needs a value", name)
				}
				i++
				val = args[i]
			}
			opts[name] = val
		default:
			rest = append(rest, arg)
		}
	}
	return opts, rest, dryRun, nil
}

func runMakeController(args []string) error {
	opts, rest, dryRun, err := flags(args, "dir", "selector")
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.New("make:controller needs exactly one name")
	}
	dir := opts["dir"]
	if dir == "" {
		dir = "controllers"
	}
	_, err = scaffold.New(scaffold.Options{DryRun: dryRun}).MakeController(dir, rest[0], opts["selector"])
	return err
}

func runMakeRequest(args []string) error {
	opts, rest, dryRun, err := flags(args, "dir")
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return errors.New("make:request needs a name")
	}
	name := rest[0]
	dir := opts["dir"]
	if dir == "" {
		dir = "requests"
	}
	// Auth/LoginRequest goes to requests/auth.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		dir = dir + "/" + strings.ToLower(name[:i])
		name = name[i+1:]
	}
	fields, err := scaffold.ParseFields(rest[1:])
	if err != nil {
		return err
	}
	_, err = scaffold.New(scaffold.Options{DryRun: dryRun}).MakeRequest(dir, name, fields)
	return err
}

func scan(args []string) ([]*scaffold.ControllerInfo, []scaffold.RouteInfo, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	return scaffold.New(scaffold.Options{}).Scan(patterns...)
}

func runHandlers(args []string) error {
	controllers, _, err := scan(args)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTROLLER\tSELECTOR\tHANDLER\tSIGNATURE\tFUNC")
	for _, c := range controllers {
		name := c.Name
		if name == "" {
			name = c.TypeName
		}
		for _, h := range c.Handlers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, c.Selector, h.Method, h.Signature, h.Func)
		}
	}
	return w.Flush()
}

func runRoutes(args []string) error {
	_, routes, err := scan(args)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tURL\tCONTROLLER\tHANDLER\tTARGET")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Verb, r.URL, r.Controller, r.Handler, r.Target)
	}
	return w.Flush()
}

func runRender(args []string) error {
	opts, rest, _, err := flags(args, "config", "views")
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		return errors.New("render needs a view name and optional data")
	}

	cfg, err := config.Load(opts["config"])
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dir := cfg.Views.Dir
	if opts["views"] != "" {
		dir = opts["views"]
	}

	// JSON is valid YAML, so either works here.
	var data map[string]any
	if len(rest) == 2 {
		if err := yaml.Unmarshal([]byte(rest[1]), &data); err != nil {
			return fmt.Errorf("parse data: %w", err)
		}
	}

	logger.Debug("rendering view", zap.String("view", rest[0]), zap.String("dir", dir))
	out, err := view.Dir(dir, view.WithLogger(logger)).Render(rest[0], data)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runCachePurge(args []string) error {
	opts, _, _, err := flags(args, "config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts["config"])
	if err != nil {
		return err
	}
	store, err := larafront.OpenCache(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Purge()
	if err != nil {
		return err
	}
	left, err := store.Len()
	if err != nil {
		return err
	}
	fmt.Printf("purged %d entries from %s, %d left\n", n, cfg.Cache.Path, left)
	return nil
}
