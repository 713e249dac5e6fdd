package device

import (
	"github.com/loopholelabs/logging/types"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/checksum"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/suunto2"
)

// Simulator answers generation-2 frames from an in-memory image, the
// same way a real instrument answers them from its flash. It backs
// dctool's offline mode and the engine tests.
type Simulator struct {
	image   []byte
	version [suunto2.VersionSize]byte
	log     types.Logger

	// Fail, when set, is consulted before every exchange. Returning a
	// non-nil error makes the exchange fail with it, which is how the
	// tests inject timeouts and corrupted packets.
	Fail func(command []byte) error
}

// NewSimulator wraps a memory image. The image is used in place, so
// writes through the protocol modify the caller's slice.
func NewSimulator(image []byte, log types.Logger) *Simulator {
	return &Simulator{image: image, log: log}
}

// SetVersion sets the version block returned for version commands.
func (s *Simulator) SetVersion(version [suunto2.VersionSize]byte) {
	s.version = version
}

// Image exposes the backing memory image.
func (s *Simulator) Image() []byte {
	return s.image
}

func (s *Simulator) Name() string {
	return "simulated dive computer"
}

// SendReceive validates the command frame and synthesizes the answer
// the instrument family would produce.
func (s *Simulator) SendReceive(command, answer []byte) error {
	if s.Fail != nil {
		if err := s.Fail(command); err != nil {
			return err
		}
	}

	if len(command) < 4 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "command of %d bytes is too short", len(command))
	}
	if crc := checksum.Xor(command, 0x00); crc != 0 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "command checksum residue 0x%02X", crc)
	}

	switch command[0] {
	case suunto2.CmdVersion:
		return s.answerVersion(answer)
	case suunto2.CmdRead:
		return s.answerRead(command, answer)
	case suunto2.CmdWrite:
		return s.answerWrite(command, answer)
	case suunto2.CmdResetMaxDepth:
		if len(answer) != 4 {
			return dcstatus.Wrap(dcstatus.ErrProtocol, "reset answer buffer of %d bytes, want 4", len(answer))
		}
		copy(answer, []byte{suunto2.CmdResetMaxDepth, 0x00, 0x00, 0x20})
		return nil
	default:
		return dcstatus.Wrap(dcstatus.ErrUnsupported, "opcode 0x%02X", command[0])
	}
}

func (s *Simulator) answerVersion(answer []byte) error {
	if len(answer) != suunto2.VersionSize+4 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "version answer buffer of %d bytes, want %d", len(answer), suunto2.VersionSize+4)
	}
	answer[0] = suunto2.CmdVersion
	answer[1] = 0x00
	answer[2] = suunto2.VersionSize
	copy(answer[3:], s.version[:])
	answer[len(answer)-1] = checksum.Xor(answer[:len(answer)-1], 0x00)
	return nil
}

func (s *Simulator) answerRead(command, answer []byte) error {
	if len(command) != 7 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "read command of %d bytes, want 7", len(command))
	}
	address := int(command[3])<<8 | int(command[4])
	count := int(command[5])
	if len(answer) != count+7 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "read answer buffer of %d bytes, want %d", len(answer), count+7)
	}
	if address+count > len(s.image) {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "read of %d bytes at 0x%04X beyond %d-byte memory", count, address, len(s.image))
	}

	copy(answer[:6], command[:6])
	copy(answer[6:6+count], s.image[address:address+count])
	answer[count+6] = checksum.Xor(answer[:count+6], 0x00)

	if s.log != nil {
		s.log.Trace().Int("address", address).Int("bytes", count).Msg("simulated read")
	}
	return nil
}

func (s *Simulator) answerWrite(command, answer []byte) error {
	if len(command) < 7 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "write command of %d bytes is too short", len(command))
	}
	address := int(command[3])<<8 | int(command[4])
	count := int(command[5])
	if len(command) != count+7 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "write command of %d bytes, want %d", len(command), count+7)
	}
	if len(answer) != 7 {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "write answer buffer of %d bytes, want 7", len(answer))
	}
	if address+count > len(s.image) {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "write of %d bytes at 0x%04X beyond %d-byte memory", count, address, len(s.image))
	}

	copy(s.image[address:], command[6:6+count])

	copy(answer[:6], command[:6])
	answer[6] = checksum.Xor(answer[:6], 0x00)

	if s.log != nil {
		s.log.Trace().Int("address", address).Int("bytes", count).Msg("simulated write")
	}
	return nil
}
