package bbfmt

import (
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbio"
)

// BPlusHeaderSize is the on-disk size of the B+ tree header: magic,
// blockSize, keySize, valSize, itemCount and an 8-byte reserved field.
const BPlusHeaderSize = 4 + 4 + 4 + 4 + 8 + 8

// BPlusHeader is the chromosome B+ tree header. The root node starts
// immediately after it, at headerOffset+BPlusHeaderSize.
type BPlusHeader struct {
	Swapped   bool
	BlockSize uint32
	KeySize   uint32
	ValSize   uint32
	ItemCount uint64
}

// ParseBPlusHeader validates the B+ tree magic and decodes its header.
func ParseBPlusHeader(data []byte, offset int64) (BPlusHeader, error) {
	if !bbio.Has(data, int(offset), BPlusHeaderSize) {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}
	sigSlice, _ := bbio.Slice(data, int(offset), 4)
	swapped, err := DetectSwap(sigSlice, BPlusMagic)
	if err != nil {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", err)
	}

	r := bbio.NewReader(data, offset+4, swapped)
	blockSize, err := r.ReadU32()
	if err != nil {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}
	keySize, err := r.ReadU32()
	if err != nil {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}
	valSize, err := r.ReadU32()
	if err != nil {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}
	itemCount, err := r.ReadU64()
	if err != nil {
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}
	if _, err := r.ReadU64(); err != nil { // reserved
		return BPlusHeader{}, fmt.Errorf("bplus header: %w", ErrTruncated)
	}

	if keySize == 0 {
		return BPlusHeader{}, fmt.Errorf("bplus header: zero key size: %w", ErrCorruptNode)
	}

	return BPlusHeader{
		Swapped:   swapped,
		BlockSize: blockSize,
		KeySize:   keySize,
		ValSize:   valSize,
		ItemCount: itemCount,
	}, nil
}

// BPlusNodeHeaderSize is the on-disk size of a B+ tree node header:
// isLeaf, reserved, childCount.
const BPlusNodeHeaderSize = 1 + 1 + 2

// BPlusNodeHeader precedes a node's list of leaf or internal items.
type BPlusNodeHeader struct {
	IsLeaf     bool
	ChildCount uint16
}

// ParseBPlusNodeHeader decodes the node header at offset.
func ParseBPlusNodeHeader(data []byte, offset int64, swapped bool) (BPlusNodeHeader, error) {
	r := bbio.NewReader(data, offset, swapped)
	isLeaf, err := r.ReadByte()
	if err != nil {
		return BPlusNodeHeader{}, fmt.Errorf("bplus node header: %w", ErrTruncated)
	}
	if _, err := r.ReadByte(); err != nil { // reserved
		return BPlusNodeHeader{}, fmt.Errorf("bplus node header: %w", ErrTruncated)
	}
	childCount, err := r.ReadU16()
	if err != nil {
		return BPlusNodeHeader{}, fmt.Errorf("bplus node header: %w", ErrTruncated)
	}
	return BPlusNodeHeader{IsLeaf: isLeaf != 0, ChildCount: childCount}, nil
}

// BPlusLeafItem is one key/value pair in a leaf node: a chromosome name
// padded with NUL bytes to keySize, and its {chromId, chromSize} value.
type BPlusLeafItem struct {
	Key       []byte
	ChromID   uint32
	ChromSize uint32
}

// BPlusInternalItem is one key/child-offset pair in an internal node.
type BPlusInternalItem struct {
	Key          []byte
	ChildOffset  uint64
}

// ParseBPlusLeafItems decodes count leaf items starting at offset. keySize
// and valSize come from the tree header; valSize is expected to be 8
// (chromId u32 + chromSize u32) but is not itself validated here.
func ParseBPlusLeafItems(data []byte, offset int64, swapped bool, keySize, valSize uint32, count uint16) ([]BPlusLeafItem, error) {
	items := make([]BPlusLeafItem, 0, count)
	r := bbio.NewReader(data, offset, swapped)
	for i := uint16(0); i < count; i++ {
		key, err := r.ReadBytes(int(keySize))
		if err != nil {
			return nil, fmt.Errorf("bplus leaf item %d: %w", i, ErrTruncated)
		}
		keyCopy := append([]byte(nil), key...)
		chromID, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("bplus leaf item %d: %w", i, ErrTruncated)
		}
		chromSize, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("bplus leaf item %d: %w", i, ErrTruncated)
		}
		if valSize > 8 {
			if _, err := r.ReadBytes(int(valSize - 8)); err != nil {
				return nil, fmt.Errorf("bplus leaf item %d: %w", i, ErrTruncated)
			}
		}
		items = append(items, BPlusLeafItem{Key: keyCopy, ChromID: chromID, ChromSize: chromSize})
	}
	return items, nil
}

// ParseBPlusInternalItems decodes count internal items starting at offset.
func ParseBPlusInternalItems(data []byte, offset int64, swapped bool, keySize uint32, count uint16) ([]BPlusInternalItem, error) {
	items := make([]BPlusInternalItem, 0, count)
	r := bbio.NewReader(data, offset, swapped)
	for i := uint16(0); i < count; i++ {
		key, err := r.ReadBytes(int(keySize))
		if err != nil {
			return nil, fmt.Errorf("bplus internal item %d: %w", i, ErrTruncated)
		}
		keyCopy := append([]byte(nil), key...)
		childOffset, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("bplus internal item %d: %w", i, ErrTruncated)
		}
		items = append(items, BPlusInternalItem{Key: keyCopy, ChildOffset: childOffset})
	}
	return items, nil
}
