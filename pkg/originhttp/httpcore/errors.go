package httpcore

import "errors"

// ParseError values are the only errors the parser ever returns. A
// ParseError is recovered locally: the connection state machine maps it to
// a status-only response and terminates.
var (
	ErrMalformedRequest  = errors.New("httpcore: malformed request")
	ErrUnsupported       = errors.New("httpcore: unsupported method or version")
	ErrInvalidMethodName = errors.New("httpcore: invalid method name")
	ErrUriTooLong        = errors.New("httpcore: request target too long")
	ErrHeaderTooLong     = errors.New("httpcore: header name or value too long")
	ErrLimitExceeded     = errors.New("httpcore: too many headers or query pairs")
)

// ErrHandler is returned by a handler to signal a failure the connection
// state machine should translate into a 500 response.
var ErrHandler = errors.New("httpcore: handler error")
