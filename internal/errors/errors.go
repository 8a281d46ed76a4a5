package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	NotFound              = fmt.Errorf("not found")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password") // 401
	ErrNotSignedIn        = fmt.Errorf("not signed in")             // 401
	ErrNotImplemented     = fmt.Errorf("not implemented")           // 501
	ErrCleanupDisabled    = fmt.Errorf("legacy cleanup is disabled")
	ErrInvalidProperty    = fmt.Errorf("invalid property") // 400
	ErrAlreadyExists      = fmt.Errorf("already exists")   // 409

	// ErrSubscriptionClosed is reported when a live listener ends without an error of its own.
	ErrSubscriptionClosed = fmt.Errorf("subscription closed")
)

// Code is the coarse classification of a backend failure surfaced to callers.
type Code string

const (
	CodeNone             Code = ""
	CodePermissionDenied Code = "permission-denied"
	CodeUnauthenticated  Code = "unauthenticated"
	CodeUnavailable      Code = "unavailable"
	CodeNotFound         Code = "not-found"
	CodeCanceled         Code = "canceled"
	CodeUnknown          Code = "unknown"
)

func Classify(err error) Code {
	if err == nil {
		return CodeNone
	}

	if errors.Is(err, NotFound) {
		return CodeNotFound
	}

	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrSubscriptionClosed) {
		return CodeUnavailable
	}

	switch status.Code(err) {
	case codes.PermissionDenied:
		return CodePermissionDenied
	case codes.Unauthenticated:
		return CodeUnauthenticated
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return CodeUnavailable
	case codes.NotFound:
		return CodeNotFound
	case codes.Canceled:
		return CodeCanceled
	}

	return CodeUnknown
}

// IsConnectivity reports whether err is recoverable by re-subscribing once the network is back.
func IsConnectivity(err error) bool {
	return Classify(err) == CodeUnavailable
}

// Message turns a backend failure into text that can be shown to a user as is.
func Message(err error) string {
	switch Classify(err) {
	case CodeNone:
		return ""
	case CodePermissionDenied:
		return "You do not have permission to view this data."
	case CodeUnauthenticated:
		return "Your session has expired. Please sign in again."
	case CodeUnavailable:
		return "Unable to reach the server. Check your connection and retry."
	case CodeNotFound:
		return "The requested data could not be found."
	case CodeCanceled:
		return "The request was cancelled."
	}
	return fmt.Sprintf("Something went wrong: %s", status.Convert(err).Message())
}
