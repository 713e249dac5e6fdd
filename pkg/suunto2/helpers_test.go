package suunto2_test

import (
	"encoding/binary"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/device"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/suunto2"
)

// countingTransport counts exchanges on their way to the backend.
type countingTransport struct {
	inner suunto2.Transport
	calls int
}

func (t *countingTransport) SendReceive(command, answer []byte) error {
	t.calls++
	return t.inner.SendReceive(command, answer)
}

// eventRecorder keeps every emitted event for inspection.
type eventRecorder struct {
	progress []suunto2.Progress
	devinfo  []suunto2.DevInfo
}

func (r *eventRecorder) OnProgress(p suunto2.Progress) {
	r.progress = append(r.progress, p)
}

func (r *eventRecorder) OnDevInfo(info suunto2.DevInfo) {
	r.devinfo = append(r.devinfo, info)
}

// fillByte produces deterministic, never-all-zero record content.
func fillByte(dive, i int) byte {
	return byte(1 + dive*31 + i)
}

// ringImage builds a memory image holding a linked ring of dive
// records laid out oldest first from begin, plus the matching header.
// It returns a simulator over the image and the expected dive
// payloads, newest first.
func ringImage(cfg suunto2.Config, begin int, sizes []int) (*device.Simulator, [][]byte) {
	image := make([]byte, cfg.MemorySize)
	rbSize := cfg.ProfileEnd - cfg.ProfileBegin

	wrap := func(addr int) int {
		if addr >= cfg.ProfileEnd {
			return addr - rbSize
		}
		return addr
	}

	var payloads [][]byte
	prevStart := begin
	start := begin
	end := begin
	last := begin
	for n, size := range sizes {
		end = wrap(start + size)

		record := make([]byte, size)
		binary.LittleEndian.PutUint16(record[0:], uint16(prevStart))
		binary.LittleEndian.PutUint16(record[2:], uint16(end))
		for i := 4; i < size; i++ {
			record[i] = fillByte(n, i)
		}
		for i, b := range record {
			image[wrap(start+i)] = b
		}

		payloads = append(payloads, record[4:])
		prevStart = start
		last = start
		start = end
	}

	// Newest first, the order Foreach emits them.
	for i, j := 0, len(payloads)-1; i < j; i, j = i+1, j-1 {
		payloads[i], payloads[j] = payloads[j], payloads[i]
	}

	header := image[cfg.HeaderAddress:]
	binary.LittleEndian.PutUint16(header[0:], uint16(last))
	binary.LittleEndian.PutUint16(header[2:], uint16(len(sizes)))
	binary.LittleEndian.PutUint16(header[4:], uint16(end))
	binary.LittleEndian.PutUint16(header[6:], uint16(begin))

	return device.NewSimulator(image, nil), payloads
}
