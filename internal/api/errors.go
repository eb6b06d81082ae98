package api

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError wraps a request that never produced a usable response:
// connection failures, timeouts and retryable HTTP statuses.
type TransportError struct {
	Op     string
	Status int // 0 when the request never reached the server
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: http %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request may succeed.
func (e *TransportError) Transient() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Transient()
}

// RemoteRejection is a non-transient refusal from the platform. When the
// platform returned per-record detail for a batch, Result carries it.
type RemoteRejection struct {
	Op     string
	Status int
	Body   string
	Result *BatchResult
}

func (e *RemoteRejection) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: http %d", e.Op, e.Status)
}
