package nordpool

import "fmt"

// ArgumentError is returned before any request is made when a required
// argument is missing or malformed.
type ArgumentError struct {
	Endpoint string
	Argument string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument %s: %s", e.Endpoint, e.Argument, e.Reason)
}

// TransportError means the request never completed (DNS, connect, cancelled context).
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError carries the status code and raw body of a non-success response.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: unexpected status code %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// DecodeError is returned when a success response does not hold valid JSON.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type PersistError struct {
	Endpoint string
	Path     string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: failed to save response to %s: %v", e.Endpoint, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
