package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is returned when the backend answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// SerializedBody returns the response body as compact JSON. Bodies that are not
// JSON are serialized as a JSON string. It returns false when there is no body.
func (e *APIError) SerializedBody() (string, bool) {
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return "", false
	}
	if json.Valid(body) {
		var compacted bytes.Buffer
		if err := json.Compact(&compacted, body); err == nil {
			return compacted.String(), true
		}
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return "", false
	}
	return string(quoted), true
}

// TransportError is returned when no response was received at all
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a network level failure
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// ErrorMessage converts an action error to the string stored in State.Error.
// The server response body is preferred when there is one.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if body, ok := apiErr.SerializedBody(); ok {
			return body
		}
	}
	return err.Error()
}
