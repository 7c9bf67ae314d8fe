package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failed query. The relay keeps only a boolean flag on the
// wire, so the kind exists for logs and for callers inside the process.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"     // network/DNS/TLS failure reaching upstream
	KindAuth         ErrorKind = "auth"          // rejected credentials or token exchange failure
	KindQuota        ErrorKind = "quota"         // 429 from upstream
	KindBadQuery     ErrorKind = "bad_query"     // upstream rejected the query (400)
	KindUpstream     ErrorKind = "upstream"      // any other non-2xx from upstream
	KindDecode       ErrorKind = "decode"        // upstream body could not be parsed
	KindCanceled     ErrorKind = "canceled"      // caller went away or deadline hit
	KindInvalidInput ErrorKind = "invalid_input" // inbound request failed validation
)

// Sentinel errors, one per kind - use with errors.Is()
var (
	ErrTransport    = errors.New("discovery unreachable")
	ErrAuth         = errors.New("discovery authentication failed")
	ErrQuota        = errors.New("discovery quota exceeded")
	ErrBadQuery     = errors.New("discovery rejected query")
	ErrUpstream     = errors.New("discovery error")
	ErrDecode       = errors.New("discovery response malformed")
	ErrCanceled     = errors.New("query canceled")
	ErrInvalidInput = errors.New("invalid query request")
)

var sentinels = map[ErrorKind]error{
	KindTransport:    ErrTransport,
	KindAuth:         ErrAuth,
	KindQuota:        ErrQuota,
	KindBadQuery:     ErrBadQuery,
	KindUpstream:     ErrUpstream,
	KindDecode:       ErrDecode,
	KindCanceled:     ErrCanceled,
	KindInvalidInput: ErrInvalidInput,
}

// QueryError describes why a query could not be answered.
type QueryError struct {
	Kind ErrorKind

	// Status is the upstream HTTP status, 0 when no response was received.
	Status int

	// Message is the upstream error text, if the upstream sent one.
	Message string

	Err error
}

// NewQueryError wraps err with the given kind.
func NewQueryError(kind ErrorKind, err error) *QueryError {
	return &QueryError{Kind: kind, Err: err}
}

func (e *QueryError) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match the kind sentinel.
func (e *QueryError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind carried by err. Errors that were never classified
// are reported as upstream failures.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUpstream
}
