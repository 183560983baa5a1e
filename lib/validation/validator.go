// Package validation checks submitted form data against Laravel-style rule
// strings and produces per-field, localized error messages.
//
//	rules := map[string]string{
//	    "name":   "required|min:3",
//	    "email":  "required|email",
//	    "avatar": "image|mimes:png,jpg|max:2048",
//	}
//
// A field that carries any file rule (file, files, image, images, video,
// videos, mimes, dimensions) is a file field: required checks that a file
// was selected, min and max compare the first file's size in kilobytes,
// and file rules inspect the first file.
package validation

import (
	"sort"
	"strings"

	"github.com/pthm/larafront/lib/dom"
	"github.com/pthm/larafront/lib/translation"
)

// FormRequest declares the rules for a request.
type FormRequest interface {
	Rules() map[string]string
}

// MessageProvider supplies custom messages keyed "field.rule".
type MessageProvider interface {
	Messages() map[string]string
}

// AttributeProvider supplies display names for fields.
type AttributeProvider interface {
	Attributes() map[string]string
}

// Authorizer gates a request. A false result adds an "_authorize" error.
type Authorizer interface {
	Authorize() bool
}

// AuthorizeField is the error key used when Authorize returns false.
const AuthorizeField = "_authorize"

// Input is the data a request is validated against.
type Input struct {
	Data  map[string]any
	Files map[string][]*dom.File
}

// Validator holds a rule registry and a translator for messages.
type Validator struct {
	rules map[string]RuleFunc
	trans *translation.Translator
}

// Option configures a Validator.
type Option func(*Validator)

// WithTranslator sets the translator used for default messages.
func WithTranslator(t *translation.Translator) Option {
	return func(v *Validator) { v.trans = t }
}

// WithRule registers a custom rule.
func WithRule(name string, fn RuleFunc) Option {
	return func(v *Validator) { v.rules[name] = fn }
}

// New creates a validator with the built-in rules and the bundled
// English translations.
func New(opts ...Option) *Validator {
	v := &Validator{rules: builtinRules()}
	for _, opt := range opts {
		opt(v)
	}
	if v.trans == nil {
		v.trans = translation.Default("en", "en")
	}
	return v
}

// AddRule registers or replaces a rule.
func (v *Validator) AddRule(name string, fn RuleFunc) {
	v.rules[name] = fn
}

// HasRule reports whether a rule is registered.
func (v *Validator) HasRule(name string) bool {
	_, ok := v.rules[name]
	return ok
}

// Translator returns the translator used for messages.
func (v *Validator) Translator() *translation.Translator {
	return v.trans
}

// Validate runs req's rules against in. Fields are checked in sorted order.
// A field absent from in.Data is skipped unless one of its rules starts
// with "required".
func (v *Validator) Validate(req FormRequest, in Input) *Result {
	res := NewResult()
	rules := req.Rules()

	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		tokens := ParseRules(rules[field])
		value, present := in.Data[field]
		if !present {
			if !hasRequired(tokens) {
				continue
			}
			value = ""
		}
		for _, msg := range v.validateField(req, field, value, tokens, in) {
			res.Add(field, msg)
		}
	}

	if a, ok := req.(Authorizer); ok && !a.Authorize() {
		res.Add(AuthorizeField, v.trans.Get("validation.authorize", nil))
	}
	return res
}

// ValidateRules validates against a bare rule map.
func (v *Validator) ValidateRules(rules map[string]string, in Input) *Result {
	return v.Validate(ruleMap(rules), in)
}

type ruleMap map[string]string

func (r ruleMap) Rules() map[string]string { return r }

func hasRequired(tokens []Token) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t.Name, "required") {
			return true
		}
	}
	return false
}

func (v *Validator) validateField(req FormRequest, field string, value any, tokens []Token, in Input) []string {
	fileField := false
	for _, t := range tokens {
		if IsFileRule(t.Name) {
			fileField = true
			break
		}
	}
	var first *dom.File
	if files := in.Files[field]; len(files) > 0 {
		first = files[0]
	}

	var errs []string
	for _, t := range tokens {
		name := t.Name
		check := Check{Field: field, Value: value, Param: t.Param, Data: in.Data}
		if fileField {
			switch {
			case name == "required":
				if first == nil {
					errs = append(errs, v.message(req, field, t, name))
				}
				continue
			case name == "max" || name == "min":
				if first == nil {
					continue
				}
				name = "fileMax"
				if t.Name == "min" {
					name = "fileMin"
				}
				check.Value = first
			case IsFileRule(name):
				check.Value = first
			}
		}

		fn, ok := v.rules[name]
		if !ok {
			continue
		}
		if !fn(check) {
			errs = append(errs, v.message(req, field, t, name))
		}
	}
	return errs
}

// message resolves the error text for a failed rule. Custom messages are
// keyed by the rule as written; translations by the effective rule, which
// differs for min and max on file fields.
func (v *Validator) message(req FormRequest, field string, t Token, effective string) string {
	attr := v.attributeName(req, field)
	replace := placeholders(effective, t.Param)

	if mp, ok := req.(MessageProvider); ok {
		if msg := usable(mp.Messages()[field+"."+t.Name]); msg != "" {
			msg = strings.ReplaceAll(msg, ":attribute", attr)
			for k, val := range replace {
				msg = strings.ReplaceAll(msg, ":"+k, val)
			}
			return msg
		}
	}

	key := "validation." + effective
	if !v.trans.Has(key) {
		return key
	}
	replace["attribute"] = attr
	return v.trans.Get(key, replace)
}

// attributeName prefers a custom attribute, then the translated
// validation.attributes entry, then the raw field name.
func (v *Validator) attributeName(req FormRequest, field string) string {
	if ap, ok := req.(AttributeProvider); ok {
		if name := usable(ap.Attributes()[field]); name != "" {
			return name
		}
	}
	if name, ok := v.trans.Lookup("validation.attributes." + field); ok {
		return name
	}
	return field
}

// usable discards blank and commented-out ("//") entries.
func usable(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return ""
	}
	return s
}

func placeholders(rule, param string) map[string]string {
	out := map[string]string{}
	if param == "" {
		return out
	}
	switch rule {
	case "min", "max", "fileMin", "fileMax", "minLength", "maxLength":
		out["min"] = param
		out["max"] = param
	case "mimes", "in":
		out["values"] = param
	}
	return out
}
