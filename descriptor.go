package larafront

import "strings"

// RequestKind classifies how a handler receives request data.
type RequestKind int

const (
	// RequestNone means no request parameter; named values are bound.
	RequestNone RequestKind = iota
	// RequestPassthrough is a lowercase "request" parameter: all fields
	// and files, never validated.
	RequestPassthrough
	// RequestValidated is a registered form request, validated on submit.
	RequestValidated
)

func (k RequestKind) String() string {
	switch k {
	case RequestPassthrough:
		return "passthrough"
	case RequestValidated:
		return "validated"
	}
	return "none"
}

// HandlerDescriptor is the classification of one handler, derived once
// when its controller is bound.
type HandlerDescriptor struct {
	Method    string
	Signature string
	Params    []Param
	// EventIndex is the position of the e/event parameter, or -1.
	EventIndex int
	// RequestIndex is the position of the request parameter, or -1.
	RequestIndex int
	Kind         RequestKind
	// RequestName is the registry name of a validated request.
	RequestName string
	// Events lists the DOM events bound, space separated. Empty for
	// handlers that are only route targets.
	Events string
	// Err is the signature parse error, if any. The handler is still
	// bound with no parameters.
	Err error

	factory RequestFactory
	fn      HandlerFunc
}

// Describe classifies a handler signature against reg.
//
// A parameter containing "Request" that resolves in reg makes the handler
// validated. A parameter named "request" in any case makes it a
// passthrough unless a validated request was found. "e" or "event" in any
// case marks the event slot. Everything else is a named value.
func Describe(method, signature string, reg *Registry) *HandlerDescriptor {
	d := &HandlerDescriptor{
		Method:       method,
		Signature:    signature,
		EventIndex:   -1,
		RequestIndex: -1,
	}
	d.Events, _ = eventTypes(method)

	params, err := ParseSignature(signature)
	if err != nil {
		d.Err = err
		return d
	}
	d.Params = params

	passthrough := -1
	for i, p := range params {
		if reg != nil && d.Kind != RequestValidated {
			if name, f, ok := reg.ResolveRequest(p.Name); ok {
				d.Kind = RequestValidated
				d.RequestIndex = i
				d.RequestName = name
				d.factory = f
				continue
			}
		}
		switch strings.ToLower(p.Name) {
		case "request":
			if passthrough < 0 {
				passthrough = i
			}
		case "e", "event":
			d.EventIndex = i
		}
	}
	if d.Kind != RequestValidated && passthrough >= 0 {
		d.Kind = RequestPassthrough
		d.RequestIndex = passthrough
	}
	return d
}
