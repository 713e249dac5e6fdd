package suunto2

import (
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/checksum"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
)

// Answer frames to a read echo the six command header bytes before the
// payload and append a trailing checksum.
const readHeaderSize = 6

// read transfers len(data) bytes starting at address, splitting the
// exchange into packets of at most cfg.PacketSize payload bytes. When
// progress is non-nil, every completed chunk advances it and emits an
// event.
func (d *Device) read(address int, data []byte, progress *progressState) error {
	nbytes := 0
	for nbytes < len(data) {
		length := len(data) - nbytes
		if length > d.cfg.PacketSize {
			length = d.cfg.PacketSize
		}

		command := []byte{
			CmdRead, 0x00, 0x03,
			byte(address >> 8),
			byte(address),
			byte(length),
			0x00,
		}
		command[6] = checksum.Xor(command[:6], 0x00)

		answer := make([]byte, length+readHeaderSize+1)
		if err := d.transfer(command, answer); err != nil {
			return err
		}
		copy(data[nbytes:], answer[readHeaderSize:readHeaderSize+length])

		if progress != nil {
			progress.advance(d, uint(length))
		}

		nbytes += length
		address += length
	}
	return nil
}

// Read copies len(data) bytes of device memory starting at address.
// A zero-length read is a no-op.
func (d *Device) Read(address int, data []byte) error {
	return d.read(address, data, nil)
}

// Write stores data in device memory starting at address, in packets
// of at most cfg.PacketSize payload bytes. A zero-length write is a
// no-op. Writes are not transactional: chunks completed before a
// failure stay written on the device.
func (d *Device) Write(address int, data []byte) error {
	nbytes := 0
	for nbytes < len(data) {
		length := len(data) - nbytes
		if length > d.cfg.PacketSize {
			length = d.cfg.PacketSize
		}

		command := make([]byte, length+7)
		command[0] = CmdWrite
		command[1] = 0x00
		command[2] = byte(length + 3)
		command[3] = byte(address >> 8)
		command[4] = byte(address)
		command[5] = byte(length)
		copy(command[6:], data[nbytes:nbytes+length])
		command[length+6] = checksum.Xor(command[:length+6], 0x00)

		answer := make([]byte, 7)
		if err := d.transfer(command, answer); err != nil {
			return err
		}

		nbytes += length
		address += length
	}
	return nil
}

// Dump reads the entire device memory into data and returns the number
// of bytes written. It fails with a memory error before any exchange
// when data cannot hold the full image.
func (d *Device) Dump(data []byte) (int, error) {
	if len(data) < d.cfg.MemorySize {
		return 0, dcstatus.Wrap(dcstatus.ErrMemory, "dump buffer holds %d bytes, device memory is %d", len(data), d.cfg.MemorySize)
	}

	progress := &progressState{maximum: uint(d.cfg.MemorySize)}
	progress.emit(d)

	if err := d.read(0x0000, data[:d.cfg.MemorySize], progress); err != nil {
		return 0, err
	}
	return d.cfg.MemorySize, nil
}
