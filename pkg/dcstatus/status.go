// Package dcstatus defines the error kinds shared by the protocol
// engine and its transport backends. Every error returned across a
// package boundary wraps exactly one of these sentinels, so callers
// can classify failures with errors.Is without parsing messages.
package dcstatus

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported marks an operation the device or backend cannot
	// perform, including exchanges attempted without a transport.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrTypeMismatch marks a device that answered as a different model
	// than the one the caller asked for.
	ErrTypeMismatch = errors.New("device type mismatch")

	// ErrGeneric marks an internal invariant violation or a request
	// that is malformed on the host side.
	ErrGeneric = errors.New("device error")

	// ErrIO marks a failure of the underlying byte stream.
	ErrIO = errors.New("input/output error")

	// ErrMemory marks a destination buffer too small for the data.
	ErrMemory = errors.New("insufficient buffer space")

	// ErrProtocol marks a malformed frame or inconsistent on-device
	// data, such as a corrupted ring-buffer linkage.
	ErrProtocol = errors.New("protocol error")

	// ErrTimeout marks a device that did not answer in time.
	ErrTimeout = errors.New("timeout")
)

// Wrap attaches formatted context to a status kind. The result matches
// the kind under errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}

// IsTransient reports whether err is worth retrying. Timeouts and
// corrupted packets are transient: the computer occasionally drops an
// exchange, and every command is an idempotent fixed-address read or
// write, so reissuing it is always safe.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProtocol)
}
