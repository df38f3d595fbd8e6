package bbindex

import (
	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/ngsfmt/bigbedkit/pkg/types"
)

// CIRTree is the chromosome-interval R-tree: maps (chromId, start, end)
// queries to the file regions holding matching BED records.
type CIRTree struct {
	data       []byte
	rootOffset int64
	swapped    bool
	itemCount  uint64
}

// OpenCIRTree validates the tree header at headerOffset and returns a tree
// ready for FindOverlapping.
func OpenCIRTree(data []byte, headerOffset int64) (*CIRTree, error) {
	hdr, err := bbfmt.ParseCIRHeader(data, headerOffset)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	return &CIRTree{
		data:       data,
		rootOffset: headerOffset + bbfmt.CIRHeaderSize,
		swapped:    hdr.Swapped,
		itemCount:  hdr.ItemCount,
	}, nil
}

// FindOverlapping returns every leaf block whose span overlaps the
// half-open interval [start, end) on chromIx, in pre-order traversal
// order. Within a subtree, leaf blocks are laid out by ascending file
// offset, so the result as a whole is offset-sorted per subtree visited.
func (t *CIRTree) FindOverlapping(chromIx, start, end uint32) ([]types.BlockRef, error) {
	var refs []types.BlockRef
	if err := t.search(t.rootOffset, 0, chromIx, start, end, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (t *CIRTree) search(offset int64, depth int, chromIx, start, end uint32, refs *[]types.BlockRef) error {
	if depth > types.MaxTreeDepth {
		return types.ErrCorruptNode.WithMsg("cirtree: max descent depth exceeded")
	}

	hdr, err := bbfmt.ParseCIRNodeHeader(t.data, offset, t.swapped)
	if err != nil {
		return wrapFormatErr(err)
	}
	if hdr.ChildCount == 0 {
		return types.ErrCorruptNode.WithMsg("cirtree: zero child count")
	}
	if int(hdr.ChildCount) > types.MaxChildCount {
		return types.ErrCorruptNode.WithMsg("cirtree: child count exceeds sanity limit")
	}

	itemsOffset := offset + bbfmt.CIRNodeHeaderSize
	if hdr.IsLeaf {
		items, err := bbfmt.ParseCIRLeafItems(t.data, itemsOffset, t.swapped, hdr.ChildCount)
		if err != nil {
			return wrapFormatErr(err)
		}
		for _, item := range items {
			if item.Span.Overlaps(chromIx, start, end) {
				*refs = append(*refs, types.BlockRef{Offset: item.DataOffset, Size: item.DataSize})
			}
		}
		return nil
	}

	items, err := bbfmt.ParseCIRInternalItems(t.data, itemsOffset, t.swapped, hdr.ChildCount)
	if err != nil {
		return wrapFormatErr(err)
	}
	for _, item := range items {
		if item.Span.Overlaps(chromIx, start, end) {
			if err := t.search(int64(item.ChildOffset), depth+1, chromIx, start, end, refs); err != nil {
				return err
			}
		}
	}
	return nil
}
