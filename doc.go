// Package larafront provides a Laravel-style controller layer for an HTML
// document: controllers bind event handlers to elements, routes send those
// events to a server, form requests validate submitted forms and views
// render the results back into the page.
//
// # Controllers
//
// Controllers embed *Controller and declare their handlers with the
// parameters each handler reads:
//
//	type UserController struct {
//	    *larafront.Controller
//	}
//
//	func NewUserController() *UserController {
//	    c := &UserController{Controller: larafront.NewController("UserController", "#user-form")}
//	    c.On("onSubmit", "e, UserRequest", c.submit)
//	    c.On("onClick", "e, id, page = 1", c.open)
//	    return c
//	}
//
// The handler name picks the DOM event (onClick, onSubmit, onChange,
// onHover and so on). The signature is parsed once at registration:
//   - a name containing "Request" that resolves in the Registry receives a
//     validated *Request
//   - "request" receives every field and file, unvalidated
//   - "e" or "event" receives the *dom.Event
//   - any other name receives the data attribute or form field of that
//     name, its default literal, or nil
//
// # Routes
//
// A route ties a URL to a handler. When the handler's event fires, the
// request is sent first and the handler runs afterwards on the event loop
// with Context.Response set:
//
//	e.Routes().Get("/posts/1", larafront.Handle(posts, "onClick"), "#result")
//
//	func (c *PostController) show(ctx *larafront.Context) {
//	    ctx.View("ajax-result", "#result", ctx.Compact("success", "status", "error", "data"))
//	}
//
// Failures reach the handler the same way, with Response.Error set.
//
// # Validation
//
// Form requests implement validation.FormRequest and optionally messages,
// attribute names and authorization. On submit the form is validated before
// the handler runs; failing fields get the error class and an inline
// error-message span, and the handler is not called.
//
// # Concurrency
//
// Document access and handler calls happen on one goroutine, the engine's
// event loop. Network requests run in the background and post their
// completion back to it. Use Run in applications and Settle in tests.
package larafront
