package bbfmt

import (
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbio"
)

// CIRHeaderSize is the on-disk size of the CIR-tree (chromosome interval R
// tree) header.
const CIRHeaderSize = 4 + 4 + 8 + 4 + 4 + 4 + 4 + 8 + 4 + 4

// CIRHeader is the R-tree header guarding the block index. The root node
// starts immediately after it, at headerOffset+CIRHeaderSize.
type CIRHeader struct {
	Swapped      bool
	BlockSize    uint32
	ItemCount    uint64
	StartChromIx uint32
	StartBase    uint32
	EndChromIx   uint32
	EndBase      uint32
	FileSize     uint64
	ItemsPerSlot uint32
}

// ParseCIRHeader validates the CIR-tree magic and decodes its header.
func ParseCIRHeader(data []byte, offset int64) (CIRHeader, error) {
	if !bbio.Has(data, int(offset), CIRHeaderSize) {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	sigSlice, _ := bbio.Slice(data, int(offset), 4)
	swapped, err := DetectSwap(sigSlice, CIRTreeMagic)
	if err != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", err)
	}

	r := bbio.NewReader(data, offset+4, swapped)
	h := CIRHeader{Swapped: swapped}
	var readErr error

	h.BlockSize, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.ItemCount, readErr = r.ReadU64()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.StartChromIx, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.StartBase, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.EndChromIx, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.EndBase, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.FileSize, readErr = r.ReadU64()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	h.ItemsPerSlot, readErr = r.ReadU32()
	if readErr != nil {
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}
	if _, readErr = r.ReadU32(); readErr != nil { // reserved
		return CIRHeader{}, fmt.Errorf("cirtree header: %w", ErrTruncated)
	}

	return h, nil
}

// CIRNodeHeaderSize is the on-disk size of a CIR-tree node header:
// isLeaf, reserved, childCount.
const CIRNodeHeaderSize = 1 + 1 + 2

// CIRNodeHeader precedes a node's list of leaf or internal items.
type CIRNodeHeader struct {
	IsLeaf     bool
	ChildCount uint16
}

// ParseCIRNodeHeader decodes the node header at offset.
func ParseCIRNodeHeader(data []byte, offset int64, swapped bool) (CIRNodeHeader, error) {
	r := bbio.NewReader(data, offset, swapped)
	isLeaf, err := r.ReadByte()
	if err != nil {
		return CIRNodeHeader{}, fmt.Errorf("cirtree node header: %w", ErrTruncated)
	}
	if _, err := r.ReadByte(); err != nil { // reserved
		return CIRNodeHeader{}, fmt.Errorf("cirtree node header: %w", ErrTruncated)
	}
	childCount, err := r.ReadU16()
	if err != nil {
		return CIRNodeHeader{}, fmt.Errorf("cirtree node header: %w", ErrTruncated)
	}
	return CIRNodeHeader{IsLeaf: isLeaf != 0, ChildCount: childCount}, nil
}

// cirSpan is the (chromIxStart, baseStart, chromIxEnd, baseEnd) interval
// common to both leaf and internal items. A span overlaps a query
// [qChrom:qStart-qEnd) when it is not entirely before or entirely after it
// under chromosome-then-base ordering.
type cirSpan struct {
	StartChromIx uint32
	StartBase    uint32
	EndChromIx   uint32
	EndBase      uint32
}

// Overlaps reports whether s overlaps the half-open query interval
// [qStart, qEnd) on chromosome qChromIx, comparing (chromIx, base) pairs
// lexicographically as the original R-tree search does.
func (s cirSpan) Overlaps(qChromIx, qStart, qEnd uint32) bool {
	// s is entirely before the query if s.end <= q.start.
	if cmpChromBase(s.EndChromIx, s.EndBase, qChromIx, qStart) <= 0 {
		return false
	}
	// s is entirely after the query if s.start >= q.end.
	if cmpChromBase(s.StartChromIx, s.StartBase, qChromIx, qEnd) >= 0 {
		return false
	}
	return true
}

// cmpChromBase orders two (chromIx, base) pairs, chromosome first.
func cmpChromBase(aChrom, aBase, bChrom, bBase uint32) int {
	switch {
	case aChrom < bChrom:
		return -1
	case aChrom > bChrom:
		return 1
	case aBase < bBase:
		return -1
	case aBase > bBase:
		return 1
	default:
		return 0
	}
}

// CIRLeafItemSize is the on-disk size of a leaf item: span (16B) plus
// dataOffset and dataSize (8B each).
const CIRLeafItemSize = 16 + 8 + 8

// CIRLeafItem is one block reference in a leaf node.
type CIRLeafItem struct {
	Span       cirSpan
	DataOffset uint64
	DataSize   uint64
}

// CIRInternalItemSize is the on-disk size of an internal item: span (16B)
// plus a childOffset (8B).
const CIRInternalItemSize = 16 + 8

// CIRInternalItem is one child pointer in an internal node.
type CIRInternalItem struct {
	Span        cirSpan
	ChildOffset uint64
}

func parseCIRSpan(r *bbio.Reader) (cirSpan, error) {
	startChromIx, err := r.ReadU32()
	if err != nil {
		return cirSpan{}, err
	}
	startBase, err := r.ReadU32()
	if err != nil {
		return cirSpan{}, err
	}
	endChromIx, err := r.ReadU32()
	if err != nil {
		return cirSpan{}, err
	}
	endBase, err := r.ReadU32()
	if err != nil {
		return cirSpan{}, err
	}
	return cirSpan{
		StartChromIx: startChromIx,
		StartBase:    startBase,
		EndChromIx:   endChromIx,
		EndBase:      endBase,
	}, nil
}

// ParseCIRLeafItems decodes count leaf items starting at offset.
func ParseCIRLeafItems(data []byte, offset int64, swapped bool, count uint16) ([]CIRLeafItem, error) {
	items := make([]CIRLeafItem, 0, count)
	r := bbio.NewReader(data, offset, swapped)
	for i := uint16(0); i < count; i++ {
		span, err := parseCIRSpan(r)
		if err != nil {
			return nil, fmt.Errorf("cirtree leaf item %d: %w", i, ErrTruncated)
		}
		dataOffset, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("cirtree leaf item %d: %w", i, ErrTruncated)
		}
		dataSize, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("cirtree leaf item %d: %w", i, ErrTruncated)
		}
		items = append(items, CIRLeafItem{Span: span, DataOffset: dataOffset, DataSize: dataSize})
	}
	return items, nil
}

// ParseCIRInternalItems decodes count internal items starting at offset.
func ParseCIRInternalItems(data []byte, offset int64, swapped bool, count uint16) ([]CIRInternalItem, error) {
	items := make([]CIRInternalItem, 0, count)
	r := bbio.NewReader(data, offset, swapped)
	for i := uint16(0); i < count; i++ {
		span, err := parseCIRSpan(r)
		if err != nil {
			return nil, fmt.Errorf("cirtree internal item %d: %w", i, ErrTruncated)
		}
		childOffset, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("cirtree internal item %d: %w", i, ErrTruncated)
		}
		items = append(items, CIRInternalItem{Span: span, ChildOffset: childOffset})
	}
	return items, nil
}
