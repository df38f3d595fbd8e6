package bigbedkit

import (
	"bytes"
	"errors"
	"fmt"
	"iter"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/ngsfmt/bigbedkit/internal/bbindex"
	"github.com/ngsfmt/bigbedkit/internal/mmfile"
	"github.com/ngsfmt/bigbedkit/pkg/types"
)

// Container is an opened BigBed file, backed by a memory mapping held for
// the container's lifetime. The chromosome B+ tree is opened eagerly
// (Query needs it for every call); the CIR-tree is opened lazily on the
// first Query or ToBed call, since a caller that only wants ChromList
// never touches the data blocks at all.
type Container struct {
	data       []byte
	cleanup    func() error
	header     bbfmt.Header
	zoomLevels []types.ZoomLevel
	extension  *bbfmt.ExtensionHeader // nil when extensionOffset == 0
	bpt        *bbindex.BPlusTree
	cir        *bbindex.CIRTree // nil until first use
}

// Open maps path into memory, validates the file header, reads the
// zoom-level table and (if present) the extension header, and opens the
// chromosome B+ tree. The CIR-tree is not opened until the first Query.
func Open(path string) (*Container, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindIO, Msg: fmt.Sprintf("bigbedkit: mapping %s", path), Err: err}
	}

	hdr, err := bbfmt.ParseHeader(data)
	if err != nil {
		_ = cleanup()
		return nil, wrapOpenErr(err)
	}

	zoomRecords, err := bbfmt.ParseZoomLevels(data, bbfmt.HeaderSize, hdr.Swapped, hdr.ZoomLevels)
	if err != nil {
		_ = cleanup()
		return nil, wrapOpenErr(err)
	}
	zoomLevels := make([]types.ZoomLevel, len(zoomRecords))
	for i, z := range zoomRecords {
		zoomLevels[i] = types.ZoomLevel{
			ReductionLevel: z.ReductionLevel,
			DataOffset:     z.DataOffset,
			IndexOffset:    z.IndexOffset,
		}
	}

	var extension *bbfmt.ExtensionHeader
	if hdr.ExtensionOffset != 0 {
		ext, err := bbfmt.ParseExtensionHeader(data, int64(hdr.ExtensionOffset), hdr.Swapped)
		if err != nil {
			_ = cleanup()
			return nil, wrapOpenErr(err)
		}
		extension = &ext
	}

	bpt, err := bbindex.OpenBPlusTree(data, int64(hdr.ChromTreeOffset))
	if err != nil {
		_ = cleanup()
		return nil, err
	}

	return &Container{
		data:       data,
		cleanup:    cleanup,
		header:     hdr,
		zoomLevels: zoomLevels,
		extension:  extension,
		bpt:        bpt,
	}, nil
}

// ZoomLevels returns the file header's zoom-level table, in on-disk
// order. The core reads these at Open but never queries the zoom data or
// index either entry describes (spec Non-goals: "zoom-level summary
// queries").
func (c *Container) ZoomLevels() []types.ZoomLevel {
	return c.zoomLevels
}

// Close releases the file mapping. The Container must not be used
// afterward.
func (c *Container) Close() error {
	if c == nil || c.cleanup == nil {
		return nil
	}
	err := c.cleanup()
	c.cleanup = nil
	c.data = nil
	return err
}

func (c *Container) cirTree() (*bbindex.CIRTree, error) {
	if c.cir != nil {
		return c.cir, nil
	}
	tree, err := bbindex.OpenCIRTree(c.data, int64(c.header.UnzoomedIndexOffset))
	if err != nil {
		return nil, err
	}
	c.cir = tree
	return tree, nil
}

// resolveChrom looks up chrom, retrying with a leading "chr" stripped if
// the direct lookup misses. It never tries the inverse (adding "chr" to a
// name that lacks it); this asymmetry matches the reference reader. A name
// longer than the tree's keySize cannot be stored in it and counts as a
// miss rather than an error.
func (c *Container) resolveChrom(chrom []byte) (types.ChromInfo, bool, error) {
	info, ok, err := c.bpt.Find(chrom)
	if err != nil && !errors.Is(err, types.ErrKeyTooLong) {
		return types.ChromInfo{}, false, err
	}
	if ok {
		return info, true, nil
	}
	if bytes.HasPrefix(chrom, []byte("chr")) {
		info, ok, err = c.bpt.Find(chrom[3:])
		if errors.Is(err, types.ErrKeyTooLong) {
			return types.ChromInfo{}, false, nil
		}
		return info, ok, err
	}
	return types.ChromInfo{}, false, nil
}

// Query returns every BED record on chrom overlapping the half-open
// interval [start, end), bounded to maxItems records (0 means
// unbounded). An unresolvable chromosome is not an error: it yields an
// empty result.
//
// A zero-length interval (start == end) matches a zero-length insertion
// record at exactly that position; the query window is padded by one
// base on each side before the block search to capture insertions
// sitting on the boundary, then the unpadded start/end are used for the
// per-record filter.
func (c *Container) Query(chrom []byte, start, end, maxItems uint32) ([]types.BedLine, error) {
	info, ok, err := c.resolveChrom(chrom)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	cir, err := c.cirTree()
	if err != nil {
		return nil, err
	}

	paddedStart := start
	if start > 0 {
		paddedStart = start - 1
	}
	paddedEnd := end + 1

	blocks, err := cir.FindOverlapping(info.ID, paddedStart, paddedEnd)
	if err != nil {
		return nil, err
	}

	return bbindex.FetchRecords(c.data, blocks, c.header.Swapped, c.header.Compressed(), c.header.UncompressBufSize, info.ID, start, end, maxItems)
}

// ChromList returns every chromosome the B+ tree names, in tree-traversal
// (sorted-key) order.
func (c *Container) ChromList() ([]types.ChromInfo, error) {
	var out []types.ChromInfo
	err := c.bpt.Traverse(func(info types.ChromInfo) error {
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToBed enumerates every chromosome in tree order and yields each of its
// records in turn, bounded across the whole iteration by maxItems (0
// means unbounded). Each chromosome is queried over [0, size). Ranging
// over the result with a `break` stops the yielding of records and the
// chromosome enumeration early; no separate cancellation is offered.
func (c *Container) ToBed(maxItems uint32) iter.Seq2[string, types.BedLine] {
	return func(yield func(string, types.BedLine) bool) {
		chroms, err := c.ChromList()
		if err != nil {
			return
		}
		remaining := maxItems
		for _, info := range chroms {
			budget := remaining
			if maxItems == 0 {
				budget = 0
			} else if budget == 0 {
				return
			}
			lines, err := c.Query([]byte(info.Name), 0, info.Size, budget)
			if err != nil {
				return
			}
			for _, line := range lines {
				if !yield(info.Name, line) {
					return
				}
			}
			if maxItems != 0 {
				remaining -= uint32(len(lines))
			}
		}
	}
}

// wrapOpenErr maps the bbfmt sentinels the header, zoom-table and
// extension-header parsers return to the matching public error kind.
// Truncation maps to ErrTruncatedHeader, where bbindex uses
// ErrTruncatedNode for tree nodes.
func wrapOpenErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bbfmt.ErrSignatureMismatch):
		return types.ErrBadMagic.WithErr(err)
	case errors.Is(err, bbfmt.ErrTruncated):
		return types.ErrTruncatedHeader.WithErr(err)
	default:
		return types.ErrCorruptNode.WithErr(err)
	}
}
