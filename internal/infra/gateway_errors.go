package infra

import "fmt"

// NetworkError covers connection failures, timeouts and non-2xx HTTP answers.
// Callers may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway %s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError means the gateway answered with something that is not a JSON object.
type ProtocolError struct {
	Op   string
	Body string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("gateway %s: malformed response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

type RejectionError struct {
	Status string
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("gateway rejected request: status %s", e.Status)
	}
	return fmt.Sprintf("gateway rejected request: status %s: %s", e.Status, e.Reason)
}
