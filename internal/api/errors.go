package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error taxonomy for the REST boundary. Every failed call is classified as
// exactly one of NetworkError, AuthError, ValidationError or ServerError.
// The server's error payload is kept verbatim so views can render whatever
// shape is present (string or JSON object).

// NetworkError means the request never reached the server or no response
// came back (DNS failure, connection refused, timeout, open circuit).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError covers 401 and 403 responses. Not retried here; token refresh
// is delegated to the API boundary.
type AuthError struct {
	Status  int
	Payload json.RawMessage
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", summary(e.Status, e.Payload))
}

// ValidationError covers the remaining 4xx responses, typically with a
// field-level payload (checkout form, registration).
type ValidationError struct {
	Status  int
	Payload json.RawMessage
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", summary(e.Status, e.Payload))
}

// ServerError covers 5xx responses.
type ServerError struct {
	Status  int
	Payload json.RawMessage
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", summary(e.Status, e.Payload))
}

func errorFromResponse(status int, body []byte) error {
	payload := json.RawMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Status: status, Payload: payload}
	case status >= 500:
		return &ServerError{Status: status, Payload: payload}
	default:
		return &ValidationError{Status: status, Payload: payload}
	}
}

// Detail returns the server's error payload decoded into its natural shape:
// a map for JSON objects, a string otherwise. For errors without a payload
// it falls back to the error message itself.
func Detail(err error) any {
	var payload json.RawMessage
	switch e := err.(type) {
	case *AuthError:
		payload = e.Payload
	case *ValidationError:
		payload = e.Payload
	case *ServerError:
		payload = e.Payload
	default:
		if err == nil {
			return nil
		}
		return err.Error()
	}

	var decoded any
	if len(payload) > 0 && json.Unmarshal(payload, &decoded) == nil {
		return decoded
	}
	if len(payload) > 0 {
		return string(payload)
	}
	return err.Error()
}

func summary(status int, payload json.RawMessage) string {
	if len(payload) > 0 {
		return fmt.Sprintf("status %d: %s", status, payload)
	}
	return fmt.Sprintf("status %d", status)
}
