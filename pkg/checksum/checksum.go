// Package checksum implements the XOR checksum used by generation-2
// Suunto command and answer frames.
package checksum

// Xor folds data byte-wise with XOR, starting from seed.
//
// Outgoing frames carry Xor(frame_without_crc, 0x00) as their last
// byte, so a well-formed frame including its own trailing checksum
// folds back to zero.
func Xor(data []byte, seed byte) byte {
	crc := seed
	for _, b := range data {
		crc ^= b
	}
	return crc
}
