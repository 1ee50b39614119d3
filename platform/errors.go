package platform

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is returned, never panicked, by platform services when an operation
// cannot be served. Code classifies it using the gRPC code space so callers
// behind a gRPC or HTTP edge can map it without a translation table.
type Error struct {
	Code    codes.Code
	Op      string
	Message string
	Cause   error
}

// NewError builds a platform error for operation op.
func NewError(c codes.Code, op, msg string, cause error) *Error {
	return &Error{Code: c, Op: op, Message: msg, Cause: cause}
}

// Unsupported is the error returned when the current platform has no
// implementation of op.
func Unsupported(op string, kind Kind) *Error {
	return &Error{
		Code:    codes.Unimplemented,
		Op:      op,
		Message: fmt.Sprintf("%s is not supported on %s", op, kind),
	}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// GRPCStatus lets status.FromError and status.Code understand platform errors.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// Is matches another *Error with the same code and operation, so sentinel
// values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code && (t.Op == "" || e.Op == t.Op)
}

// CodeOf returns the code of the first platform error in err's chain. Other
// errors that carry a gRPC status report its code; the rest are codes.Unknown.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}
