// Package ringbuf provides address arithmetic for the circular profile
// region of a generation-2 Suunto memory map. The region [begin, end)
// stores concatenated dive records; once full, the oldest data is
// overwritten first, so offsets wrap around at the region boundary.
package ringbuf

// Distance returns the number of bytes from a forward to b inside the
// circular range [begin, end). Callers must ensure that both a and b
// lie inside the range.
func Distance(a, b, begin, end int) int {
	if b >= a {
		return b - a
	}
	return (end - a) + (b - begin)
}

// Contains reports whether addr lies inside [begin, end).
func Contains(addr, begin, end int) bool {
	return addr >= begin && addr < end
}
