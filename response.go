package larafront

import (
	"net/http"

	"github.com/pthm/larafront/lib/transport"
)

// Response is the outcome of a route's round trip, handed to the handler
// in Context.Response. Handlers branch on Success or Error; a failed
// request is never reported as a Go error.
//
//	func (c *PostController) show(ctx *larafront.Context) {
//	    if ctx.Response.Error {
//	        ctx.View("errors.load", "#result", ctx.Response)
//	        return
//	    }
//	    ctx.View("posts.show", "#result", ctx.Response.Data)
//	}
type Response struct {
	Data    any  `json:"data" msgpack:"data"`
	Status  int  `json:"status" msgpack:"status"`
	Success bool `json:"success" msgpack:"success"`
	Error   bool `json:"error" msgpack:"error"`
	// Message is the transport's error message for failures.
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
	// Cached is set when the response came from the response cache.
	Cached bool `json:"-" msgpack:"-"`
}

// NewSuccess builds a successful response. A zero status becomes 200.
func NewSuccess(data any, status int) *Response {
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Data: data, Status: status, Success: true}
}

// NewError builds a failed response. A zero status becomes 500.
func NewError(data any, status int) *Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Response{Data: data, Status: status, Error: true}
}

// responseFromReply converts a transport outcome.
func responseFromReply(reply *transport.Reply, err error) *Response {
	if err == nil {
		return NewSuccess(reply.Data, reply.Status)
	}
	if se, ok := transport.AsStatusError(err); ok {
		resp := NewError(se.Data, se.Status)
		resp.Message = se.Message
		return resp
	}
	resp := NewError(nil, 0)
	resp.Message = err.Error()
	return resp
}

// Fields returns the response as a map, for compact and views.
func (r *Response) Fields() map[string]any {
	return map[string]any{
		"data":    r.Data,
		"status":  r.Status,
		"success": r.Success,
		"error":   r.Error,
	}
}
