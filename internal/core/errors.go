package core

import "fmt"

// APIError is a non-2xx answer from an upstream service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s API error: %d", e.Service, e.StatusCode)
}

// CheckResponse returns nil for 2xx responses and an *APIError otherwise.
// The body's "message" field is used when withMessage is set and present.
func CheckResponse(service string, resp *Response, withMessage bool) error {
	if resp.Status().IsSuccess() {
		return nil
	}
	apiErr := &APIError{Service: service, StatusCode: resp.Status().Code()}
	if withMessage {
		apiErr.Message = resp.ErrorMessage()
	}
	return apiErr
}
