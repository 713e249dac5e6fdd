package suunto2

// Progress reports how far a long-running download has advanced, in
// bytes. Counters are monotonic within one operation and reset per
// call.
type Progress struct {
	Current uint
	Maximum uint
}

// DevInfo identifies the connected instrument.
type DevInfo struct {
	Model    uint32
	Firmware uint32
	Serial   uint32
}

// EventSink receives notifications during long-running operations. The
// callbacks run on the calling goroutine and must not block.
type EventSink interface {
	OnProgress(Progress)
	OnDevInfo(DevInfo)
}

// DiveCallback receives one dive, most recent first. The bytes exclude
// the record's previous/next pointers and are only valid for the
// duration of the call. Returning false stops the enumeration cleanly.
type DiveCallback func(dive []byte) bool

func (d *Device) emitProgress(p Progress) {
	if d.events != nil {
		d.events.OnProgress(p)
	}
}

func (d *Device) emitDevInfo(info DevInfo) {
	if d.events != nil {
		d.events.OnDevInfo(info)
	}
}

// progressState tracks one operation's byte counters and pushes every
// change to the event sink.
type progressState struct {
	current uint
	maximum uint
}

func (p *progressState) emit(d *Device) {
	d.emitProgress(Progress{Current: p.current, Maximum: p.maximum})
}

func (p *progressState) advance(d *Device, n uint) {
	p.current += n
	p.emit(d)
}
