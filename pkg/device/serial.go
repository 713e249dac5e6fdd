// Package device provides transport backends for the suunto2 protocol
// engine: a real serial port and an in-memory simulator. Both perform
// one framed command/answer exchange per call and classify failures
// with dcstatus kinds, so the engine can decide what to retry.
package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/loopholelabs/logging/types"
	"github.com/tarm/serial"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/checksum"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
)

const (
	serialBaud        = 9600
	serialReadTimeout = 3 * time.Second
)

// Serial drives a generation-2 Suunto computer over a serial port.
type Serial struct {
	name string
	port io.ReadWriteCloser
	log  types.Logger
}

// NewSerial opens the named serial port with the fixed line settings
// of the instrument family (9600 baud, 8N1).
func NewSerial(name string, log types.Logger) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        serialBaud,
		ReadTimeout: serialReadTimeout,
	})
	if err != nil {
		return nil, dcstatus.Wrap(dcstatus.ErrIO, "open serial port %q: %v", name, err)
	}
	return &Serial{name: name, port: port, log: log}, nil
}

func (s *Serial) Name() string {
	return fmt.Sprintf("serial port %q", s.name)
}

// SendReceive writes the command frame and reads exactly len(answer)
// reply bytes. The reply must echo the command opcode and its XOR fold
// (trailing checksum included) must come out zero; violations are
// protocol errors, which the engine discards and retries.
func (s *Serial) SendReceive(command, answer []byte) error {
	if _, err := s.port.Write(command); err != nil {
		return dcstatus.Wrap(dcstatus.ErrIO, "write command: %v", err)
	}

	if err := s.readFull(answer); err != nil {
		return err
	}

	if answer[0] != command[0] {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "answer opcode 0x%02X does not echo command 0x%02X", answer[0], command[0])
	}
	if crc := checksum.Xor(answer, 0x00); crc != 0 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "answer checksum residue 0x%02X", crc)
	}

	if s.log != nil {
		s.log.Trace().Int("opcode", int(command[0])).Int("bytes", len(answer)).Msg("packet exchanged")
	}
	return nil
}

func (s *Serial) readFull(buf []byte) error {
	nbytes := 0
	for nbytes < len(buf) {
		n, err := s.port.Read(buf[nbytes:])
		if n > 0 {
			nbytes += n
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return dcstatus.Wrap(dcstatus.ErrIO, "read answer: %v", err)
		}
		// A zero-length read means the port timed out.
		return dcstatus.Wrap(dcstatus.ErrTimeout, "answer stalled after %d of %d bytes", nbytes, len(buf))
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
