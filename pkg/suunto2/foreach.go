package suunto2

import (
	"bytes"
	"encoding/binary"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/ringbuf"
)

// The ring-buffer header holds four little-endian 16-bit pointers:
// last, count, end, begin.
const headerSize = 8

// Every dive record starts with two little-endian 16-bit pointers:
// the start offset of the previous (older) record and the end offset
// of the record itself. Fetched backwards, they are the last bytes of
// the record to arrive.
const pointerSize = 4

func uint24be(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// serialReadSize returns how many bytes the serial-number read covers.
// The number itself is 4 bytes, but never less than the minimum
// reliable read is requested.
func (d *Device) serialReadSize() int {
	if d.cfg.MinimumRead > 4 {
		return d.cfg.MinimumRead
	}
	return 4
}

// readDeviceInfo reads the version block and the serial number and
// emits a device-info event. When progress is non-nil, both reads
// advance it.
func (d *Device) readDeviceInfo(progress *progressState) (DevInfo, error) {
	version := make([]byte, VersionSize)
	if err := d.ReadVersion(version); err != nil {
		return DevInfo{}, err
	}
	if progress != nil {
		progress.advance(d, uint(len(version)))
	}

	serial := make([]byte, d.serialReadSize())
	if err := d.read(d.cfg.SerialAddress, serial, nil); err != nil {
		return DevInfo{}, err
	}
	if progress != nil {
		progress.advance(d, uint(len(serial)))
	}

	info := DevInfo{
		Model:    uint32(version[0]),
		Firmware: uint24be(version[1:4]),
		Serial:   binary.BigEndian.Uint32(serial),
	}
	d.emitDevInfo(info)
	return info, nil
}

// ReadDeviceInfo identifies the connected instrument with two fixed
// exchanges and emits a device-info event.
func (d *Device) ReadDeviceInfo() (DevInfo, error) {
	return d.readDeviceInfo(nil)
}

// Foreach reads every dive stored on the instrument and hands each one
// to cb, most recent first. Enumeration stops early, without error,
// when a dive matches the fingerprint set with SetFingerprint or when
// cb returns false.
//
// The profile region is traversed backwards so that new dives come out
// before old ones. Packets are kept as large as possible to cut down
// on round trips, which means the last packet of a dive usually
// carries leading bytes belonging to the next (older) dive; those are
// kept in the buffer and consumed by the following iteration.
func (d *Device) Foreach(cb DiveCallback) error {
	cfg := d.cfg
	rbSize := cfg.ProfileEnd - cfg.ProfileBegin

	progress := &progressState{
		maximum: uint(rbSize + headerSize + VersionSize + d.serialReadSize()),
	}
	progress.emit(d)

	if _, err := d.readDeviceInfo(progress); err != nil {
		return err
	}

	header := make([]byte, headerSize)
	if err := d.read(cfg.HeaderAddress, header, nil); err != nil {
		return err
	}

	last := int(binary.LittleEndian.Uint16(header[0:]))
	count := int(binary.LittleEndian.Uint16(header[2:]))
	end := int(binary.LittleEndian.Uint16(header[4:]))
	begin := int(binary.LittleEndian.Uint16(header[6:]))

	if !ringbuf.Contains(begin, cfg.ProfileBegin, cfg.ProfileEnd) ||
		!ringbuf.Contains(end, cfg.ProfileBegin, cfg.ProfileEnd) {
		return dcstatus.Wrap(dcstatus.ErrProtocol, "header pointers 0x%04X/0x%04X outside profile region 0x%04X..0x%04X",
			begin, end, cfg.ProfileBegin, cfg.ProfileEnd)
	}

	remaining := ringbuf.Distance(begin, end, cfg.ProfileBegin, cfg.ProfileEnd)

	progress.maximum -= uint(rbSize - remaining)
	progress.advance(d, uint(headerSize))

	if d.log != nil {
		d.log.Debug().Int("dives", count).Int("bytes", remaining).Msg("profile header read")
	}

	// The buffer covers the whole profile region plus spare room below
	// it, so reads widened to the minimum size cannot underflow.
	data := make([]byte, cfg.MinimumRead+rbSize)

	available := 0
	ndives := 0
	current := end
	previous := last
	for current != begin {
		if !ringbuf.Contains(previous, cfg.ProfileBegin, cfg.ProfileEnd) {
			return dcstatus.Wrap(dcstatus.ErrProtocol, "dive pointer 0x%04X outside profile region", previous)
		}

		size := ringbuf.Distance(previous, current, cfg.ProfileBegin, cfg.ProfileEnd)
		if size < pointerSize || size > remaining {
			return dcstatus.Wrap(dcstatus.ErrProtocol, "dive of %d bytes at 0x%04X outside %d..%d", size, current, pointerSize, remaining)
		}

		// Fill the buffer backwards until this dive is complete,
		// starting below any bytes carried over from the previous
		// iteration.
		nbytes := available
		address := current - available
		for nbytes < size {
			// Try the largest packet first, clamped at the low ring
			// boundary and at the end of the unread profile data.
			length := cfg.PacketSize
			if cfg.ProfileBegin+length > address {
				length = address - cfg.ProfileBegin
			}
			if nbytes+length > remaining {
				length = remaining - nbytes
			}

			// Reads below the minimum are unreliable on this link, so
			// widen them with extra leading bytes. The extras land in
			// the spare low part of the buffer and are never consumed.
			// On a wrapped ring the clamp can leave a zero-length
			// chunk right at the boundary; the widened read is then
			// discarded entirely and only the address wrap below has
			// an effect.
			extra := 0
			if length < cfg.MinimumRead {
				extra = cfg.MinimumRead - length
			}

			p := cfg.MinimumRead + remaining - nbytes
			if err := d.read(address-(length+extra), data[p-(length+extra):p], nil); err != nil {
				return err
			}

			progress.advance(d, uint(length))

			nbytes += length
			address -= length
			if address <= cfg.ProfileBegin {
				address = cfg.ProfileEnd
			}
		}

		remaining -= size
		available = nbytes - size

		// The four pointer bytes link the ring: the previous pointer
		// moves the traversal on, and the next pointer must point
		// back at this record's end.
		offset := cfg.MinimumRead + remaining
		oprevious := int(binary.LittleEndian.Uint16(data[offset:]))
		onext := int(binary.LittleEndian.Uint16(data[offset+2:]))
		if onext != current {
			return dcstatus.Wrap(dcstatus.ErrProtocol, "dive linkage corrupt: next pointer 0x%04X, record ends at 0x%04X", onext, current)
		}

		current = previous
		previous = oprevious
		ndives++

		if fp := cfg.FingerprintOffset + cfg.FingerprintSize; fp <= size &&
			bytes.Equal(data[offset+cfg.FingerprintOffset:offset+fp], d.fingerprint) {
			if d.log != nil {
				d.log.Debug().Int("dives", ndives).Msg("fingerprint reached, stopping download")
			}
			return nil
		}

		if cb != nil && !cb(data[offset+pointerSize:offset+size]) {
			return nil
		}
	}

	if remaining != 0 || available != 0 || ndives != count {
		return dcstatus.Wrap(dcstatus.ErrGeneric, "traversal inconsistent: %d profile bytes and %d carried bytes left after %d of %d dives",
			remaining, available, ndives, count)
	}

	return nil
}
