package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pthm/larafront"
	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/logging"
	"github.com/pthm/larafront/lib/transport"
	"github.com/pthm/larafront/lib/validation"
	"github.com/pthm/larafront/lib/view"
)

//go:embed views
var viewFiles embed.FS

const page = `<!DOCTYPE html>
<html><body>
<div id="flash"></div>
<form id="todo-form" class="d-none">
  <input name="title" value="">
  <button type="submit">Add</button>
</form>
<div id="todo-list" class="d-none"></div>
</body></html>`

func main() {
	logger := logging.Must("debug", "console")
	defer func() { _ = logger.Sync() }()

	// Serve the store API on a local port.
	store := NewStore()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	srv := &http.Server{Handler: store.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	views, err := fs.Sub(viewFiles, "views")
	if err != nil {
		log.Fatal(err)
	}

	reg := larafront.NewRegistry().
		Request("TodoRequest", func() validation.FormRequest { return TodoRequest{} })

	e := larafront.New(
		larafront.WithRegistry(reg),
		larafront.WithLogger(logger),
		larafront.WithViews(view.New(views, view.WithLogger(logger))),
		larafront.WithTransport(transport.New(
			transport.WithBaseURL("http://"+ln.Addr().String()),
			transport.WithLogger(logger),
		)),
		larafront.WithSuccessClass("is-valid"),
	)
	defer e.Close()

	form := NewTodoFormController()
	list := NewTodoListController()
	e.Register(form, list)
	e.Routes().Post("/todos", larafront.Handle(form, "onSubmit"), "#flash")
	e.Routes().Post("/todos/toggle", larafront.Handle(list, "onClick"))

	doc, err := dom.ParseString(page)
	if err != nil {
		log.Fatal(err)
	}
	if err := e.Boot(doc); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	step := func(name string, fn func()) {
		e.Loop().Post(fn)
		if err := e.Settle(ctx); err != nil {
			log.Fatal(err)
		}
		logger.Info("step done", zap.String("step", name))
	}

	// Empty submit fails validation and never reaches the server.
	step("submit empty", func() { doc.First("#todo-form").Trigger("submit") })

	step("submit", func() {
		doc.First(`input[name="title"]`).SetValue("Write the release notes")
		doc.First("#todo-form").Trigger("submit")
	})

	step("toggle", func() {
		if btn := doc.First(`#todo-list button[data-id="todo-1"]`); btn != nil {
			btn.Trigger("click")
		}
	})

	fmt.Println(doc.HTML())
}
