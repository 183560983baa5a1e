package validation

import (
	"html"

	"github.com/pthm/larafront/lib/dom"
)

// ErrorMessageClass marks the inline error spans inserted after fields.
const ErrorMessageClass = "error-message"

// Result collects error messages per field in the order fields failed.
type Result struct {
	errors map[string][]string
	order  []string
}

// NewResult returns an empty, valid result.
func NewResult() *Result {
	return &Result{errors: make(map[string][]string)}
}

// Add records a message for field.
func (r *Result) Add(field, msg string) {
	if _, ok := r.errors[field]; !ok {
		r.order = append(r.order, field)
	}
	r.errors[field] = append(r.errors[field], msg)
}

// Valid reports whether no errors were recorded.
func (r *Result) Valid() bool { return len(r.order) == 0 }

// Fields returns the failing fields in order.
func (r *Result) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Errors returns a copy of every message by field.
func (r *Result) Errors() map[string][]string {
	out := make(map[string][]string, len(r.errors))
	for k, v := range r.errors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// First returns the first message of the first failing field, or "".
func (r *Result) First() string {
	for _, f := range r.order {
		if msgs := r.errors[f]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Get returns the messages for field.
func (r *Result) Get(field string) []string {
	return r.errors[field]
}

// Has reports whether field has at least one message.
func (r *Result) Has(field string) bool {
	return len(r.errors[field]) > 0
}

// Clear removes inline error markup from a form: every error-message span
// and errorClass on its fields.
func Clear(form *dom.Element, errorClass string) {
	for _, span := range form.Find("." + ErrorMessageClass) {
		span.Remove()
	}
	if errorClass == "" {
		return
	}
	for _, el := range form.Find("." + errorClass) {
		el.RemoveClass(errorClass)
	}
}

// Apply clears previous markup, then marks each failing field with
// errorClass and inserts its first message in a span after it. Errors for
// fields not present in the form are not rendered.
func (r *Result) Apply(form *dom.Element, errorClass string) {
	Clear(form, errorClass)
	for _, field := range r.order {
		el := form.Field(field)
		if el == nil || len(r.errors[field]) == 0 {
			continue
		}
		if errorClass != "" {
			el.AddClass(errorClass)
		}
		_ = el.After(`<span class="` + ErrorMessageClass + `">` + html.EscapeString(r.errors[field][0]) + `</span>`)
	}
}
