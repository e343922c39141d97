package client

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/gorilla/websocket"
)

// Error codes reported by the transport client.
const (
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeTransport        = "TRANSPORT_FAILURE"
	ErrCodeEncode           = "ENCODE_FAILURE"
	ErrCodeDecode           = "DECODE_FAILURE"
	ErrCodeClosed           = "CLIENT_CLOSED"
)

// Sentinels for errors.Is. They match any *Error carrying the same code.
var (
	ErrTimeout          = &Error{Code: ErrCodeTimeout, Message: "exchange timed out"}
	ErrConnectionClosed = &Error{Code: ErrCodeConnectionClosed, Message: "connection closed by peer"}
	ErrTransport        = &Error{Code: ErrCodeTransport, Message: "transport failure"}
	ErrEncode           = &Error{Code: ErrCodeEncode, Message: "failed to encode command"}
	ErrDecode           = &Error{Code: ErrCodeDecode, Message: "failed to decode response"}
	ErrClosed           = &Error{Code: ErrCodeClosed, Message: "client is closed"}
)

// Error is a failed exchange.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// ioError classifies a failure of a socket operation performed under ctx.
// The context is checked first so a caller cancellation is never reported
// as a peer timeout.
func ioError(ctx context.Context, op string, err error) *Error {
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return newError(ErrCodeTimeout, op+" timed out", err)
	case ctxErr != nil:
		return newError(ErrCodeTransport, op+" canceled", errors.Join(ctxErr, err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(ErrCodeTimeout, op+" timed out", err)
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return newError(ErrCodeConnectionClosed, op+" failed: connection closed", err)
	}

	return newError(ErrCodeTransport, op+" failed", err)
}
