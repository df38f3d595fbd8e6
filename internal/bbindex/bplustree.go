// Package bbindex walks the two index trees a BigBed file carries (the
// chromosome B+ tree and the chromosome-interval R-tree) and runs the
// block fetch/merge/decompress/decode pipeline over what they find. Every
// call re-reads nodes from the container's memory-mapped byte slice; no
// tree state is cached across calls.
package bbindex

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/ngsfmt/bigbedkit/pkg/types"
)

// BPlusTree is the chromosome name index: name -> (chromId, chromSize).
type BPlusTree struct {
	data       []byte
	rootOffset int64
	swapped    bool
	keySize    uint32
	valSize    uint32
	itemCount  uint64
}

// OpenBPlusTree validates the tree header at headerOffset and returns a
// tree ready for Find/Traverse.
func OpenBPlusTree(data []byte, headerOffset int64) (*BPlusTree, error) {
	hdr, err := bbfmt.ParseBPlusHeader(data, headerOffset)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	if hdr.KeySize > types.MaxKeySize {
		return nil, types.ErrCorruptNode.WithMsg("bplus tree: keySize exceeds sanity limit")
	}
	return &BPlusTree{
		data:       data,
		rootOffset: headerOffset + bbfmt.BPlusHeaderSize,
		swapped:    hdr.Swapped,
		keySize:    hdr.KeySize,
		valSize:    hdr.ValSize,
		itemCount:  hdr.ItemCount,
	}, nil
}

// ItemCount returns the number of leaves the header declares.
func (t *BPlusTree) ItemCount() uint64 { return t.itemCount }

// Find looks up key, right-null-padding it to keySize first. A key longer
// than keySize is ErrKeyTooLong. A missing key is (ChromInfo{}, false, nil).
//
// Descent follows a single path: at each internal node the first key is a
// sentinel (discarded), and the target child is the last one whose key is
// not greater than the search key.
func (t *BPlusTree) Find(key []byte) (types.ChromInfo, bool, error) {
	if uint32(len(key)) > t.keySize {
		return types.ChromInfo{}, false, types.ErrKeyTooLong.WithMsg(
			fmt.Sprintf("bplus tree: key %q exceeds keySize %d", key, t.keySize))
	}
	padded := make([]byte, t.keySize)
	copy(padded, key)
	return t.findAt(t.rootOffset, 0, padded)
}

func (t *BPlusTree) findAt(offset int64, depth int, key []byte) (types.ChromInfo, bool, error) {
	if depth > types.MaxTreeDepth {
		return types.ChromInfo{}, false, types.ErrCorruptNode.WithMsg("bplus tree: max descent depth exceeded")
	}

	hdr, items, leaf, err := t.readNode(offset)
	if err != nil {
		return types.ChromInfo{}, false, err
	}

	if leaf != nil {
		for _, item := range leaf {
			if bytes.Equal(item.Key, key) {
				name := string(bytes.TrimRight(item.Key, "\x00"))
				return types.ChromInfo{Name: name, ID: item.ChromID, Size: item.ChromSize}, true, nil
			}
		}
		return types.ChromInfo{}, false, nil
	}

	if len(items) == 0 {
		return types.ChromInfo{}, false, types.ErrCorruptNode.WithMsg("bplus tree: internal node with no children")
	}
	target := items[0].ChildOffset
	for _, item := range items[1:] {
		if bytes.Compare(item.Key, key) > 0 {
			break
		}
		target = item.ChildOffset
	}
	_ = hdr
	return t.findAt(int64(target), depth+1, key)
}

// Traverse walks every leaf in left-to-right order, invoking visit once
// per (name, id, size).
func (t *BPlusTree) Traverse(visit func(types.ChromInfo) error) error {
	return t.traverseAt(t.rootOffset, 0, visit)
}

func (t *BPlusTree) traverseAt(offset int64, depth int, visit func(types.ChromInfo) error) error {
	if depth > types.MaxTreeDepth {
		return types.ErrCorruptNode.WithMsg("bplus tree: max descent depth exceeded")
	}

	_, items, leaf, err := t.readNode(offset)
	if err != nil {
		return err
	}

	if leaf != nil {
		for _, item := range leaf {
			name := string(bytes.TrimRight(item.Key, "\x00"))
			if err := visit(types.ChromInfo{Name: name, ID: item.ChromID, Size: item.ChromSize}); err != nil {
				return err
			}
		}
		return nil
	}

	for _, item := range items {
		if err := t.traverseAt(int64(item.ChildOffset), depth+1, visit); err != nil {
			return err
		}
	}
	return nil
}

// readNode decodes the node header at offset and its children, returning
// either leaf items or internal items (whichever applies) plus the raw
// header for callers that need ChildCount.
func (t *BPlusTree) readNode(offset int64) (bbfmt.BPlusNodeHeader, []bbfmt.BPlusInternalItem, []bbfmt.BPlusLeafItem, error) {
	hdr, err := bbfmt.ParseBPlusNodeHeader(t.data, offset, t.swapped)
	if err != nil {
		return bbfmt.BPlusNodeHeader{}, nil, nil, wrapFormatErr(err)
	}
	if hdr.ChildCount == 0 {
		return bbfmt.BPlusNodeHeader{}, nil, nil, types.ErrCorruptNode.WithMsg("bplus tree: zero child count")
	}
	if int(hdr.ChildCount) > types.MaxChildCount {
		return bbfmt.BPlusNodeHeader{}, nil, nil, types.ErrCorruptNode.WithMsg("bplus tree: child count exceeds sanity limit")
	}

	itemsOffset := offset + bbfmt.BPlusNodeHeaderSize
	if hdr.IsLeaf {
		leaf, err := bbfmt.ParseBPlusLeafItems(t.data, itemsOffset, t.swapped, t.keySize, t.valSize, hdr.ChildCount)
		if err != nil {
			return bbfmt.BPlusNodeHeader{}, nil, nil, wrapFormatErr(err)
		}
		return hdr, nil, leaf, nil
	}

	internal, err := bbfmt.ParseBPlusInternalItems(t.data, itemsOffset, t.swapped, t.keySize, hdr.ChildCount)
	if err != nil {
		return bbfmt.BPlusNodeHeader{}, nil, nil, wrapFormatErr(err)
	}
	return hdr, internal, nil, nil
}

// wrapFormatErr maps an internal bbfmt sentinel to the matching public
// error kind, preserving the distinction callers of Open/query see.
func wrapFormatErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bbfmt.ErrSignatureMismatch):
		return types.ErrBadMagic.WithErr(err)
	case errors.Is(err, bbfmt.ErrTruncated):
		return types.ErrTruncatedNode.WithErr(err)
	case errors.Is(err, bbfmt.ErrKeyTooLong):
		return types.ErrKeyTooLong.WithErr(err)
	default:
		return types.ErrCorruptNode.WithErr(err)
	}
}
