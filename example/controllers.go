package main

import (
	"go.uber.org/zap"

	"github.com/pthm/larafront"
)

// TodoRequest validates the new-todo form.
type TodoRequest struct{}

func (TodoRequest) Rules() map[string]string {
	return map[string]string{"title": "required|max:80"}
}

func (TodoRequest) Attributes() map[string]string {
	return map[string]string{"title": "todo title"}
}

// TodoFormController submits new todos.
type TodoFormController struct {
	*larafront.Controller
}

func NewTodoFormController() *TodoFormController {
	c := &TodoFormController{Controller: larafront.NewController("TodoFormController", "#todo-form")}
	c.On("onSubmit", "e, TodoRequest", c.store)
	return c
}

func (c *TodoFormController) store(ctx *larafront.Context) {
	renderList(ctx)
}

// TodoListController toggles todos.
type TodoListController struct {
	*larafront.Controller
}

func NewTodoListController() *TodoListController {
	c := &TodoListController{Controller: larafront.NewController("TodoListController", "#todo-list")}
	c.On("onClick", "e, id", c.toggle)
	return c
}

func (c *TodoListController) toggle(ctx *larafront.Context) {
	renderList(ctx)
}

func renderList(ctx *larafront.Context) {
	if ctx.Response == nil {
		return
	}
	if ctx.Response.Error {
		ctx.Logger().Warn("todo request failed",
			zap.Int("status", ctx.Response.Status),
			zap.String("message", ctx.Response.Message))
		_ = ctx.View("todos.error", "#flash", ctx.Compact("status", "data"))
		return
	}
	if err := ctx.View("todos.list", "#todo-list", ctx.Response.Data); err != nil {
		ctx.Logger().Error("render todos", zap.Error(err))
	}
}
