// Package suunto2 implements the serial protocol shared by the second
// generation of Suunto dive computers (D4, D6, D9, Vyper2, Cobra2 and
// friends).
//
// The protocol is a plain command/answer exchange over a byte stream.
// The engine layers three things on top of it: a transfer loop with
// bounded retry, a chunked byte-addressable view of the 32 KiB device
// memory, and a backward traversal of the circular profile region that
// yields stored dives most recent first, stopping at a previously
// downloaded fingerprint.
//
// The physical link is supplied from outside through the Transport
// interface; see the device package for implementations.
package suunto2

import (
	"io"

	"github.com/loopholelabs/logging/types"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
)

// Command opcodes of the generation-2 frame format.
const (
	CmdVersion       = 0x0F
	CmdRead          = 0x05
	CmdWrite         = 0x06
	CmdResetMaxDepth = 0x20
)

// Transport performs one framed exchange with the device: it sends the
// command frame and fills answer with exactly len(answer) reply bytes.
// Errors must wrap a dcstatus kind; timeout and protocol kinds are
// treated as transient and retried by the engine.
type Transport interface {
	SendReceive(command, answer []byte) error
}

// Config carries the protocol constants. The defaults describe the
// real instrument family; tests inject smaller synthetic values.
type Config struct {
	// PacketSize is the maximum data payload of a single packet.
	PacketSize int
	// MinimumRead is the smallest reliable read on this link. Shorter
	// reads are widened with leading bytes which are then discarded.
	MinimumRead int
	// MaxRetries bounds the retries after a transient packet failure.
	MaxRetries int
	// MemorySize is the total byte-addressable memory.
	MemorySize int
	// ProfileBegin and ProfileEnd delimit the circular profile region
	// [ProfileBegin, ProfileEnd) holding the dive records.
	ProfileBegin int
	ProfileEnd   int
	// HeaderAddress locates the 8-byte ring-buffer header.
	HeaderAddress int
	// SerialAddress locates the serial number.
	SerialAddress int
	// FingerprintOffset locates the fingerprint window inside a dive
	// record; FingerprintSize is its (and the handle fingerprint's)
	// length.
	FingerprintOffset int
	FingerprintSize   int
}

// DefaultConfig returns the constants of the D9 family.
func DefaultConfig() Config {
	return Config{
		PacketSize:        120,
		MinimumRead:       8,
		MaxRetries:        2,
		MemorySize:        0x8000,
		ProfileBegin:      0x019A,
		ProfileEnd:        0x8000 - 2,
		HeaderAddress:     0x0190,
		SerialAddress:     0x0023,
		FingerprintOffset: 0x15,
		FingerprintSize:   7,
	}
}

func (c Config) validate() error {
	switch {
	case c.PacketSize <= 0:
		return dcstatus.Wrap(dcstatus.ErrGeneric, "packet size %d must be positive", c.PacketSize)
	case c.MinimumRead <= 0 || c.MinimumRead > c.PacketSize:
		return dcstatus.Wrap(dcstatus.ErrGeneric, "minimum read %d must be in 1..%d", c.MinimumRead, c.PacketSize)
	case c.MaxRetries < 0:
		return dcstatus.Wrap(dcstatus.ErrGeneric, "retry bound %d must not be negative", c.MaxRetries)
	case c.ProfileBegin < 0 || c.ProfileBegin >= c.ProfileEnd || c.ProfileEnd > c.MemorySize:
		return dcstatus.Wrap(dcstatus.ErrGeneric, "profile region 0x%04X..0x%04X does not fit memory of %d bytes",
			c.ProfileBegin, c.ProfileEnd, c.MemorySize)
	case c.FingerprintOffset < 0 || c.FingerprintSize <= 0:
		return dcstatus.Wrap(dcstatus.ErrGeneric, "fingerprint window %d+%d is invalid", c.FingerprintOffset, c.FingerprintSize)
	}
	return nil
}

// Device is a handle to an opened dive computer. It is not safe for
// concurrent use: the fingerprint and the traversal state are
// unsynchronized by design, matching the single serial link below.
type Device struct {
	transport   Transport
	cfg         Config
	log         types.Logger
	events      EventSink
	fingerprint []byte
	closed      bool
}

// Option adjusts a Device during Open.
type Option func(*Device)

// WithConfig replaces the default protocol constants.
func WithConfig(cfg Config) Option {
	return func(d *Device) { d.cfg = cfg }
}

// WithLogger attaches a logger. A nil logger disables logging.
func WithLogger(log types.Logger) Option {
	return func(d *Device) { d.log = log }
}

// WithEvents attaches a sink for progress and device-info events.
func WithEvents(sink EventSink) Option {
	return func(d *Device) { d.events = sink }
}

// Open creates a device handle on top of a transport. The fingerprint
// starts out cleared, so a Foreach downloads every stored dive.
func Open(t Transport, opts ...Option) (*Device, error) {
	d := &Device{
		transport: t,
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.cfg.validate(); err != nil {
		return nil, err
	}
	d.fingerprint = make([]byte, d.cfg.FingerprintSize)
	return d, nil
}

// Config returns the protocol constants the handle was opened with.
func (d *Device) Config() Config {
	return d.cfg
}

// SetFingerprint stores the marker of the most recently downloaded
// dive. Foreach stops when it reaches a dive carrying these bytes. An
// empty fingerprint clears the marker, so every dive is downloaded.
func (d *Device) SetFingerprint(fp []byte) error {
	if len(fp) != 0 && len(fp) != d.cfg.FingerprintSize {
		return dcstatus.Wrap(dcstatus.ErrGeneric, "fingerprint must be %d bytes, got %d", d.cfg.FingerprintSize, len(fp))
	}
	if len(fp) == 0 {
		for i := range d.fingerprint {
			d.fingerprint[i] = 0
		}
		return nil
	}
	copy(d.fingerprint, fp)
	return nil
}

// Close releases the handle. If the transport owns an underlying
// stream it is closed as well.
func (d *Device) Close() error {
	if d.closed {
		return dcstatus.Wrap(dcstatus.ErrGeneric, "device already closed")
	}
	d.closed = true
	if c, ok := d.transport.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return dcstatus.Wrap(dcstatus.ErrIO, "close transport: %v", err)
		}
	}
	return nil
}
