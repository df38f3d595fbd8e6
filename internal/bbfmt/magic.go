package bbfmt

// Magic signatures, in the file's native (unswapped) byte order.
var (
	BigBedMagic = [4]byte{0x87, 0x89, 0xF2, 0xEB}
	BPlusMagic  = [4]byte{0x78, 0xCA, 0x8C, 0x91}
	CIRTreeMagic = [4]byte{0x24, 0x68, 0xAC, 0xE0}
)

// reversed returns sig with its bytes in the opposite order.
func reversed(sig [4]byte) [4]byte {
	return [4]byte{sig[3], sig[2], sig[1], sig[0]}
}

// DetectSwap compares the 4 bytes at data[0:4] against want. A direct
// match means the file is big-endian; a byte-reversed match means the
// file is byte-swapped (little-endian), whatever the host's byte order.
// Any other value is ErrSignatureMismatch.
func DetectSwap(data []byte, want [4]byte) (swapped bool, err error) {
	if len(data) < 4 {
		return false, ErrTruncated
	}
	sig := [4]byte(data[:4])
	switch {
	case sig == want:
		return false, nil
	case sig == reversed(want):
		return true, nil
	default:
		return false, ErrSignatureMismatch
	}
}
