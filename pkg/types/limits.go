package types

// Sanity limits guard against malformed or adversarial files causing
// unbounded allocation or recursion. None of these are part of the
// BigBed format; they are defensive ceilings a well-formed file never
// approaches.
const (
	// MaxKeySize bounds a B+ tree's declared keySize. Real chromosome
	// B+ trees use keySize in the tens of bytes.
	MaxKeySize = 1 << 16

	// MaxChildCount bounds a single B+/CIR tree node's declared child
	// count. The count is stored as a uint16 on disk, so every decoded
	// count is below this ceiling and the check never rejects a node.
	MaxChildCount = 1 << 16

	// MaxUncompressBufSize bounds the per-block decompression target
	// size taken from the file header, to avoid a hostile header
	// requesting gigabytes of scratch space for a tiny compressed block.
	MaxUncompressBufSize = 1 << 30

	// MaxTreeDepth bounds recursive tree descent so a cyclic or
	// self-referential offset graph in a corrupt file can't recurse
	// forever instead of failing with ErrCorruptNode.
	MaxTreeDepth = 64
)
