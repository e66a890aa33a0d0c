package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors returned by the executor. Callers match them with errors.Is.
var (
	// ErrRetryExhausted is returned when a request kept failing with
	// retryable faults until the attempt ceiling was reached.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context ends while
	// the executor is waiting out a backoff delay or mid-request.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass buckets request faults for retry decisions, logs and metrics.
type ErrorClass string

const (
	// ClassServer covers the retryable status codes 500, 502, 503 and 504.
	ClassServer ErrorClass = "server"
	// ClassTimeout covers connect and read timeouts, including the overall
	// request deadline.
	ClassTimeout ErrorClass = "timeout"
	// ClassClient covers every other non-2xx status. Never retried.
	ClassClient ErrorClass = "client"
	// ClassNetwork covers transport failures that are not timeouts, such as
	// connection refused or DNS errors. Never retried.
	ClassNetwork ErrorClass = "network"
)

// retryStatus is the fixed set of status codes worth another attempt.
var retryStatus = map[int]bool{
	500: true,
	502: true,
	503: true,
	504: true,
}

// APIError describes a single failed request. It carries enough context to
// log the failure and decide whether to retry it.
type APIError struct {
	StatusCode int // zero when the request never produced a response
	Class      ErrorClass
	Endpoint   string
	Message    string
	Err        error // underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error %d (%s) on %s: %s", e.StatusCode, e.Class, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("api %s error on %s: %s", e.Class, e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the fault class is worth another attempt.
func (e *APIError) Retryable() bool {
	return e.Class == ClassServer || e.Class == ClassTimeout
}

// classify buckets a failed exchange. A nil error with a 2xx status is not a
// fault and never reaches this function.
func classify(status int, err error) ErrorClass {
	if err != nil {
		if isTimeout(err) {
			return ClassTimeout
		}
		return ClassNetwork
	}
	if retryStatus[status] {
		return ClassServer
	}
	return ClassClient
}

// isTimeout reports whether err is a connect or read timeout, including the
// deadline enforced by http.Client.Timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
