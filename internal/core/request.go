package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Request is an outbound REST call to one of the upstream services.
type Request struct {
	id       string
	method   string
	endpoint string
	header   http.Header
	body     Body
}

// NewRequest creates a new request for method and endpoint.
func NewRequest(method, endpoint string) (*Request, error) {
	if method == "" {
		return nil, errors.New("method cannot be empty")
	}
	if endpoint == "" {
		return nil, errors.New("endpoint cannot be empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	return &Request{
		id:       uuid.New().String(),
		method:   method,
		endpoint: endpoint,
		header:   make(http.Header),
		body:     NewEmptyBody(),
	}, nil
}

func (r *Request) ID() string {
	return r.id
}

func (r *Request) Method() string {
	return r.method
}

func (r *Request) Endpoint() string {
	return r.endpoint
}

func (r *Request) Header() http.Header {
	return r.header
}

func (r *Request) Body() Body {
	return r.body
}

func (r *Request) SetHeader(key, value string) {
	r.header.Set(key, value)
}

// SetBearer sets an "Authorization: Bearer" header.
func (r *Request) SetBearer(token string) {
	r.header.Set("Authorization", "Bearer "+token)
}

// SetToken sets an "Authorization: token" header (GitHub classic style).
func (r *Request) SetToken(token string) {
	r.header.Set("Authorization", "token "+token)
}

func (r *Request) SetBody(body Body) {
	r.body = body
}

// SetJSONBody encodes v as the request body and sets Content-Type.
func (r *Request) SetJSONBody(v any) error {
	body, err := NewJSONBody(v)
	if err != nil {
		return err
	}
	r.body = body
	r.header.Set("Content-Type", body.ContentType())
	return nil
}

// Body represents a request or response body.
type Body interface {
	ContentType() string
	IsEmpty() bool
	Bytes() []byte
	String() string
	Reader() io.Reader
}

type emptyBody struct{}

// NewEmptyBody creates an empty body.
func NewEmptyBody() Body {
	return emptyBody{}
}

func (emptyBody) ContentType() string { return "" }
func (emptyBody) IsEmpty() bool       { return true }
func (emptyBody) Bytes() []byte       { return nil }
func (emptyBody) String() string      { return "" }
func (emptyBody) Reader() io.Reader   { return bytes.NewReader(nil) }

// rawBody holds already-encoded content.
type rawBody struct {
	content     []byte
	contentType string
}

// NewRawBody creates a body with the given content and content type.
func NewRawBody(content []byte, contentType string) Body {
	return rawBody{content: content, contentType: contentType}
}

// NewJSONBody marshals v into a JSON body.
func NewJSONBody(v any) (Body, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON body: %w", err)
	}
	return rawBody{content: encoded, contentType: "application/json"}, nil
}

func (b rawBody) ContentType() string { return b.contentType }
func (b rawBody) IsEmpty() bool       { return len(b.content) == 0 }
func (b rawBody) Bytes() []byte       { return b.content }
func (b rawBody) String() string      { return string(b.content) }
func (b rawBody) Reader() io.Reader   { return bytes.NewReader(b.content) }
