package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Timing records when a request started and how long it took.
type Timing struct {
	StartTime time.Time
	Total     time.Duration
}

// Status is an HTTP status code and text.
type Status struct {
	code int
	text string
}

// NewStatus creates a new status.
func NewStatus(code int, text string) *Status {
	return &Status{code: code, text: text}
}

func (s *Status) Code() int    { return s.code }
func (s *Status) Text() string { return s.text }

func (s *Status) IsSuccess() bool {
	return s.code >= 200 && s.code < 300
}

// Response is the result of sending a Request.
type Response struct {
	requestID string
	status    *Status
	header    http.Header
	body      Body
	timing    Timing
}

// NewResponse creates a response for the request with the given id.
func NewResponse(requestID string, status *Status) *Response {
	return &Response{
		requestID: requestID,
		status:    status,
		header:    make(http.Header),
		body:      NewEmptyBody(),
	}
}

func (r *Response) RequestID() string   { return r.requestID }
func (r *Response) Status() *Status     { return r.status }
func (r *Response) Header() http.Header { return r.header }
func (r *Response) Body() Body          { return r.body }
func (r *Response) Timing() Timing      { return r.timing }

// WithHeader sets the response header and returns the response for chaining.
func (r *Response) WithHeader(h http.Header) *Response {
	r.header = h
	return r
}

// WithBody sets the response body and returns the response for chaining.
func (r *Response) WithBody(b Body) *Response {
	r.body = b
	return r
}

// WithTiming sets the timing info and returns the response for chaining.
func (r *Response) WithTiming(t Timing) *Response {
	r.timing = t
	return r
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if r.body.IsEmpty() {
		return fmt.Errorf("failed to decode response: empty body")
	}
	if err := json.Unmarshal(r.body.Bytes(), v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrorMessage returns the "message" field of a JSON error body, if any.
func (r *Response) ErrorMessage() string {
	var payload struct {
		Message string `json:"message"`
	}
	if r.body.IsEmpty() || json.Unmarshal(r.body.Bytes(), &payload) != nil {
		return ""
	}
	return payload.Message
}
