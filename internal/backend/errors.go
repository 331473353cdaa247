package backend

import "fmt"

// UnavailableError reports that no backend implementation could be loaded
// for a profile kind: nothing is registered for it, or construction failed.
// This is a capability-tier failure, eligible for silent fallback.
type UnavailableError struct {
	Kind string
	Err  error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend for kind %q unavailable: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("no backend registered for kind %q", e.Kind)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ConnectionError reports that a backend client was constructed but the
// configured server is unreachable or the named model is not present on it.
// This is a capability-tier failure, eligible for silent fallback.
type ConnectionError struct {
	Server string
	Model  string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend at %s not usable for model %q: %v", e.Server, e.Model, e.Err)
	}
	return fmt.Sprintf("backend at %s not usable for model %q", e.Server, e.Model)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InvocationError reports a transport or protocol failure during a backend
// call, after a transformer was already selected. It is never silently
// degraded: the caller committed to a transformed result and must see why
// it didn't get one.
type InvocationError struct {
	Timeout bool
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("backend invocation timed out: %v", e.Err)
	}
	return fmt.Sprintf("backend invocation failed: %v", e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
