package core

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrInvalidCredentials is returned by Authenticate when the backend
// rejects the configured token or username/password. It is never retried.
var ErrInvalidCredentials = errors.New("invalid credentials")

// FetchKind classifies a backend fetch failure.
type FetchKind int

const (
	// FetchTimeout: the request exceeded its deadline.
	FetchTimeout FetchKind = iota
	// FetchConnection: the backend could not be reached at all.
	FetchConnection
	// FetchServer: the backend answered with a 5xx.
	FetchServer
	// FetchUnreachable: all retry attempts were exhausted.
	FetchUnreachable
)

func (k FetchKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchConnection:
		return "connection"
	case FetchServer:
		return "server"
	case FetchUnreachable:
		return "unreachable"
	}
	return "unknown"
}

// FetchError wraps a backend fetch failure with its classification.
// Timeout, Connection and Server are transient; Unreachable means the
// bounded retries are already spent and the cycle should abort.
type FetchError struct {
	Kind FetchKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying.
func (e *FetchError) Transient() bool {
	return e.Kind != FetchUnreachable
}

// NewFetchError builds a FetchError, classifying err when it carries
// net.Error timeout information.
func NewFetchError(op string, kind FetchKind, err error) *FetchError {
	var nerr net.Error
	if kind == FetchConnection && errors.As(err, &nerr) && nerr.Timeout() {
		kind = FetchTimeout
	}
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// FormatError marks a session that cannot be formatted at all - typically
// one with no now-playing item. Callers skip the session and continue.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "format session: " + e.Reason
}

// PublishKind classifies a chat-platform publish failure.
type PublishKind int

const (
	// PublishRateLimited: the platform asked us to slow down; RetryAfter
	// carries its minimum wait when provided.
	PublishRateLimited PublishKind = iota
	// PublishForbidden: missing permissions, never retried.
	PublishForbidden
	// PublishNotFound: the dashboard message no longer exists.
	PublishNotFound
	// PublishOther: anything else.
	PublishOther
)

func (k PublishKind) String() string {
	switch k {
	case PublishRateLimited:
		return "rate limited"
	case PublishForbidden:
		return "forbidden"
	case PublishNotFound:
		return "not found"
	}
	return "publish error"
}

// PublishError wraps a failure from the chat platform message API.
type PublishError struct {
	Kind       PublishKind
	RetryAfter time.Duration // only meaningful for PublishRateLimited
	Err        error
}

func (e *PublishError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsPublishKind reports whether err is a PublishError of the given kind.
func IsPublishKind(err error, kind PublishKind) bool {
	var pe *PublishError
	return errors.As(err, &pe) && pe.Kind == kind
}
