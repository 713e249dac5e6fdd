package suunto2

import (
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
)

// VersionSize is the length of the version block: the model number in
// byte 0 followed by the firmware version, most significant byte
// first.
const VersionSize = 4

// ReadVersion fills data with the 4-byte version block. It fails with
// a memory error before any exchange when data is too small.
func (d *Device) ReadVersion(data []byte) error {
	if len(data) < VersionSize {
		return dcstatus.Wrap(dcstatus.ErrMemory, "version buffer holds %d bytes, need %d", len(data), VersionSize)
	}

	command := []byte{CmdVersion, 0x00, 0x00, 0x0F}
	answer := make([]byte, VersionSize+4)
	if err := d.transfer(command, answer); err != nil {
		return err
	}

	copy(data[:VersionSize], answer[3:3+VersionSize])
	return nil
}

// ResetMaxDepth clears the maximum depth stored on the instrument.
func (d *Device) ResetMaxDepth() error {
	command := []byte{CmdResetMaxDepth, 0x00, 0x00, 0x20}
	answer := make([]byte, 4)
	return d.transfer(command, answer)
}
