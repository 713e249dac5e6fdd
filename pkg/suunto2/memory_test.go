package suunto2_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/device"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/suunto2"
)

func patternImage(size int) []byte {
	image := make([]byte, size)
	for i := range image {
		image[i] = byte(i*7 + 3)
	}
	return image
}

func openSimulated(t *testing.T, image []byte, opts ...suunto2.Option) (*suunto2.Device, *countingTransport) {
	t.Helper()
	transport := &countingTransport{inner: device.NewSimulator(image, nil)}
	dev, err := suunto2.Open(transport, opts...)
	require.NoError(t, err)
	return dev, transport
}

// A read of L bytes must issue exactly ceil(L/PacketSize) exchanges
// and reconstruct the bytes in order.
func TestReadChunking(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	image := patternImage(cfg.MemorySize)

	testCases := []struct {
		desc      string
		address   int
		length    int
		wantCalls int
	}{
		{desc: "single partial packet", address: 0x0100, length: 17, wantCalls: 1},
		{desc: "exactly one packet", address: 0x0000, length: 120, wantCalls: 1},
		{desc: "one packet plus one byte", address: 0x2000, length: 121, wantCalls: 2},
		{desc: "several packets", address: 0x0123, length: 300, wantCalls: 3},
		{desc: "zero length is a no-op", address: 0x4000, length: 0, wantCalls: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			dev, transport := openSimulated(t, image)

			data := make([]byte, tc.length)
			require.NoError(t, dev.Read(tc.address, data))
			assert.Equal(t, tc.wantCalls, transport.calls)
			assert.Equal(t, image[tc.address:tc.address+tc.length], data)
		})
	}
}

func TestWriteChunking(t *testing.T) {
	cfg := suunto2.DefaultConfig()

	testCases := []struct {
		desc      string
		address   int
		length    int
		wantCalls int
	}{
		{desc: "single partial packet", address: 0x0100, length: 17, wantCalls: 1},
		{desc: "several packets", address: 0x2000, length: 250, wantCalls: 3},
		{desc: "zero length is a no-op", address: 0x4000, length: 0, wantCalls: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			image := make([]byte, cfg.MemorySize)
			dev, transport := openSimulated(t, image)

			data := make([]byte, tc.length)
			for i := range data {
				data[i] = byte(i + 1)
			}
			require.NoError(t, dev.Write(tc.address, data))
			assert.Equal(t, tc.wantCalls, transport.calls)
			assert.Equal(t, data, image[tc.address:tc.address+tc.length])
		})
	}
}

// A chunk failure aborts the whole operation; earlier chunks stay
// written on the device.
func TestWriteNotTransactional(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	image := make([]byte, cfg.MemorySize)
	sim := device.NewSimulator(image, nil)

	exchanges := 0
	sim.Fail = func(command []byte) error {
		exchanges++
		if exchanges == 2 {
			return dcstatus.Wrap(dcstatus.ErrIO, "injected failure")
		}
		return nil
	}

	dev, err := suunto2.Open(sim)
	require.NoError(t, err)

	data := make([]byte, 200)
	for i := range data {
		data[i] = 0xA5
	}
	err = dev.Write(0x1000, data)
	require.ErrorIs(t, err, dcstatus.ErrIO)

	// The first 120-byte chunk made it, the rest did not.
	assert.Equal(t, data[:120], image[0x1000:0x1078])
	assert.Equal(t, make([]byte, 80), image[0x1078:0x10C8])
}

func TestDump(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	image := patternImage(cfg.MemorySize)

	events := &eventRecorder{}
	dev, transport := openSimulated(t, image, suunto2.WithEvents(events))

	data := make([]byte, cfg.MemorySize)
	n, err := dev.Dump(data)
	require.NoError(t, err)

	assert.Equal(t, cfg.MemorySize, n)
	assert.Equal(t, image, data)
	// ceil(32768 / 120) exchanges.
	assert.Equal(t, 274, transport.calls)

	require.NotEmpty(t, events.progress)
	last := suunto2.Progress{}
	for _, p := range events.progress {
		assert.GreaterOrEqual(t, p.Current, last.Current)
		assert.Equal(t, uint(cfg.MemorySize), p.Maximum)
		last = p
	}
	assert.Equal(t, uint(cfg.MemorySize), last.Current)
}

func TestDumpBufferTooSmall(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	dev, transport := openSimulated(t, make([]byte, cfg.MemorySize))

	_, err := dev.Dump(make([]byte, cfg.MemorySize-1))
	assert.ErrorIs(t, err, dcstatus.ErrMemory)
	// The check runs before any exchange.
	assert.Equal(t, 0, transport.calls)
}

func TestReadVersion(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	sim := device.NewSimulator(make([]byte, cfg.MemorySize), nil)
	sim.SetVersion([4]byte{0x0E, 0x01, 0x02, 0x03})

	dev, err := suunto2.Open(sim)
	require.NoError(t, err)

	version := make([]byte, suunto2.VersionSize)
	require.NoError(t, dev.ReadVersion(version))
	assert.Equal(t, []byte{0x0E, 0x01, 0x02, 0x03}, version)
}

func TestReadVersionBufferTooSmall(t *testing.T) {
	dev, transport := openSimulated(t, make([]byte, suunto2.DefaultConfig().MemorySize))

	err := dev.ReadVersion(make([]byte, suunto2.VersionSize-1))
	assert.ErrorIs(t, err, dcstatus.ErrMemory)
	assert.Equal(t, 0, transport.calls)
}

func TestResetMaxDepth(t *testing.T) {
	dev, transport := openSimulated(t, make([]byte, suunto2.DefaultConfig().MemorySize))

	require.NoError(t, dev.ResetMaxDepth())
	assert.Equal(t, 1, transport.calls)
}

func TestReadDeviceInfo(t *testing.T) {
	cfg := suunto2.DefaultConfig()
	image := make([]byte, cfg.MemorySize)
	copy(image[cfg.SerialAddress:], []byte{0x12, 0x34, 0x56, 0x78})

	sim := device.NewSimulator(image, nil)
	sim.SetVersion([4]byte{0x0E, 0x01, 0x02, 0x03})

	events := &eventRecorder{}
	dev, err := suunto2.Open(sim, suunto2.WithEvents(events))
	require.NoError(t, err)

	info, err := dev.ReadDeviceInfo()
	require.NoError(t, err)

	want := suunto2.DevInfo{Model: 0x0E, Firmware: 0x010203, Serial: 0x12345678}
	assert.Equal(t, want, info)
	assert.Equal(t, []suunto2.DevInfo{want}, events.devinfo)
}
