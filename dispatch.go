package larafront

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/validation"
)

// listener adapts a handler to a DOM listener on el. Panics are recovered
// and logged; nothing escapes the listener.
func (e *Engine) listener(c *Controller, d *HandlerDescriptor, el *dom.Element) dom.Listener {
	return func(ev *dom.Event) {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("dispatch failed",
					zap.String("controller", c.Name()),
					zap.String("handler", d.Method),
					zap.Error(fmt.Errorf("%w: %v", ErrHandlerPanic, r)))
			}
		}()

		// A form's submit button and file inputs keep their native click.
		if ev.Type == "click" && el.Tag() == "form" && ev.Target != nil &&
			(ev.Target.IsSubmitButton() || ev.Target.IsFileInput()) {
			return
		}
		if preventsDefault(d.Method) {
			ev.PreventDefault()
		}
		e.dispatch(c, d, el, ev)
	}
}

// dispatch builds the handler context for ev and either executes the
// handler's route or invokes the handler directly.
func (e *Engine) dispatch(c *Controller, d *HandlerDescriptor, el *dom.Element, ev *dom.Event) {
	target := ev.Target
	if target == nil {
		target = el
	}
	rc := BuildRequestContextWithin(target, el)

	hc := &Context{
		Event:      ev,
		Target:     target,
		Params:     d.Params,
		Args:       make([]any, len(d.Params)),
		ctx:        context.Background(),
		engine:     e,
		controller: c,
		handler:    d,
		fields:     rc.Fields,
	}

	locale := e.validator.Translator().Locale()
	switch d.Kind {
	case RequestValidated:
		form := d.factory()
		if ev.Type == "submit" {
			if !e.validateForm(form, rc, target, el) {
				return
			}
		}
		hc.Request = newRequest(d.RequestName, form, rc, locale)
	case RequestPassthrough:
		hc.Request = newRequest("", nil, rc, locale)
	}
	e.bindArgs(hc, d, rc)

	if isHover(d.Method) {
		e.invoke(d, hc)
		return
	}

	if route := e.routes.FindByController(c, d.Method); route != nil {
		if _, err := e.routes.Execute(hc.ctx, route.Method, route.URL, rc.Fields, hc); err != nil {
			e.logger.Warn("route execution failed", zap.Error(err))
		}
		return
	}

	e.openModal(c.Selector(), el, target)
	e.invoke(d, hc)
}

// bindArgs fills one argument per declared parameter.
func (e *Engine) bindArgs(hc *Context, d *HandlerDescriptor, rc *RequestContext) {
	for i, p := range d.Params {
		switch i {
		case d.RequestIndex:
			if hc.Request != nil {
				hc.Args[i] = hc.Request
			}
			continue
		case d.EventIndex:
			hc.Args[i] = hc.Event
			continue
		}
		if v, ok := lookupFold(rc.Fields, p.Name); ok {
			hc.Args[i] = v
		} else if p.HasDefault {
			hc.Args[i] = p.Default
		}
	}
}

// validateForm validates rc against form and renders the result into the
// owning form element. It reports whether the request passed.
func (e *Engine) validateForm(form validation.FormRequest, rc *RequestContext, target, el *dom.Element) bool {
	res := e.validator.Validate(form, validation.Input{Data: rc.Fields, Files: rc.Files})

	formEl := target.Form()
	if formEl == nil {
		formEl = el.Form()
	}
	if formEl != nil {
		res.Apply(formEl, e.errorClass)
		e.markFields(formEl, form, res)
	}
	if !res.Valid() {
		e.logger.Debug("validation failed", zap.Strings("fields", res.Fields()))
		return false
	}
	return true
}

// markFields swaps the success class onto every ruled field that passed
// and off every field that failed.
func (e *Engine) markFields(formEl *dom.Element, form validation.FormRequest, res *validation.Result) {
	if e.successClass == "" {
		return
	}
	for field := range form.Rules() {
		fieldEl := formEl.Field(field)
		if fieldEl == nil {
			continue
		}
		if res.Has(field) {
			fieldEl.RemoveClass(e.successClass)
			continue
		}
		if e.errorClass != "" {
			fieldEl.RemoveClass(e.errorClass)
		}
		fieldEl.AddClass(e.successClass)
	}
}
