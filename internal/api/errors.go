// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindTimeout
	KindServiceUnavailable
	KindServer
	KindNotFound
	KindInvalidRequest
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindServer:
		return "server error"
	case KindNotFound:
		return "not found"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by *Error through errors.Is.
var (
	// ErrValidation indicates input rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrTimeout indicates the call exceeded its fixed time bound.
	ErrTimeout = errors.New("request timed out")

	// ErrServiceUnavailable indicates the backend could not be reached or
	// reported that it is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrServer indicates the backend was reached but failed (HTTP 500).
	ErrServer = errors.New("server error")

	// ErrNotFound indicates the backend does not know the addressed id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest indicates the backend or client rejected the request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknown covers every other failure.
	ErrUnknown = errors.New("request failed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTimeout:
		return ErrTimeout
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindServer:
		return ErrServer
	case KindNotFound:
		return ErrNotFound
	case KindInvalidRequest:
		return ErrInvalidRequest
	default:
		return ErrUnknown
	}
}

// Error is returned by every Client method.
type Error struct {
	Kind   ErrorKind
	Op     string // e.g. "send message"
	Status int    // HTTP status, 0 when no response was received
	Reason string // reason reported by the server, if any
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// validationError builds an error for input rejected locally.
func validationError(op, reason string) *Error {
	return &Error{Kind: KindValidation, Op: op, Reason: reason}
}

// kindForStatus maps an HTTP status to an ErrorKind.
func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusInternalServerError:
		return KindServer
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// transportError classifies a failure that produced no HTTP response.
func transportError(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindServiceUnavailable, Op: op, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindServiceUnavailable, Op: op, Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

// User-facing messages.
const (
	MsgTimeout            = "The server took too long to respond. Please try again."
	MsgNotFound           = "The requested chat no longer exists."
	MsgServerError        = "The server ran into a problem. If this keeps happening, please contact support."
	MsgServiceUnavailable = "Cannot reach the server. Check your connection and try again."
)

// UserMessage converts err into the single string shown to the user. A
// reason reported by the server wins; timeouts, 404, 500 and unreachable
// servers get their own wording; everything else gets fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if apiErr.Reason != "" {
		return apiErr.Reason
	}
	switch apiErr.Kind {
	case KindTimeout:
		return MsgTimeout
	case KindNotFound:
		return MsgNotFound
	case KindServer:
		return MsgServerError
	case KindServiceUnavailable:
		return MsgServiceUnavailable
	default:
		return fallback
	}
}
