package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
)

// Kind classifies why a transfer failed. The client only ever sees one message,
// the kind is for logs, metrics and tests.
type Kind int

const (
	KindNotFound Kind = iota
	KindPermission
	KindIO
	KindSocket
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindIO:
		return "io"
	case KindSocket:
		return "socket"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TransferError is any failure while opening, reading or sending the requested file
type TransferError struct {
	Kind Kind
	Op   string // "receive", "open", "read", "send"
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q failed (%s): %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// BindError means the listening endpoint could not be claimed. It is fatal.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Classify maps an error to its transfer Kind
func Classify(err error) Kind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, net.ErrClosed):
		return KindSocket
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindSocket
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindSocket
	}
	return KindIO
}

// NewTransferError wraps err with the given operation, classifying it
func NewTransferError(op, path string, err error) *TransferError {
	return &TransferError{Kind: Classify(err), Op: op, Path: path, Err: err}
}

// NewSocketError wraps a connection failure. Socket failures are never classified
// from the error value alone since a closed peer may surface as a plain io error.
func NewSocketError(op string, err error) *TransferError {
	return &TransferError{Kind: KindSocket, Op: op, Err: err}
}
