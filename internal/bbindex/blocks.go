package bbindex

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/ngsfmt/bigbedkit/pkg/types"
)

// FetchRecords runs the block fetch/merge/decompress/decode pipeline over
// blocks (assumed offset-sorted, as FindOverlapping returns them), filters
// the decoded records to those matching (chromID, start, end), and stops
// once maxItems non-zero records have been kept.
//
// compressed selects whether each original block is a zlib stream; when
// it is, uncompressBufSize is the file header's declared bound on a
// block's inflated size (spec §3's "uncompressed length is ≤
// uncompressBufSize" invariant) and rejects any block that decompresses
// past it with ErrDecompress, independent of the sanity ceiling in
// pkg/types.MaxUncompressBufSize.
func FetchRecords(data []byte, blocks []types.BlockRef, swapped, compressed bool, uncompressBufSize, chromID, start, end, maxItems uint32) ([]types.BedLine, error) {
	var out []types.BedLine

	for len(blocks) > 0 {
		beforeGap, afterGap := coalesceRun(blocks)
		runStart := int(blocks[0].Offset)
		runEnd := int(blocks[beforeGap].Offset + blocks[beforeGap].Size)

		merged, ok := sliceRange(data, runStart, runEnd)
		if !ok {
			return nil, types.ErrTruncatedNode.WithMsg(
				fmt.Sprintf("block pipeline: run [%d,%d) exceeds file size", runStart, runEnd))
		}

		cursor := 0
		for i := 0; i <= beforeGap; i++ {
			blockSize := int(blocks[i].Size)
			var stream []byte
			if compressed {
				inflated, err := inflateBlock(merged, cursor, blockSize, uncompressBufSize)
				if err != nil {
					return nil, err
				}
				stream = inflated
			} else {
				raw, ok := sliceRange(merged, cursor, cursor+blockSize)
				if !ok {
					return nil, types.ErrTruncatedNode.WithMsg("block pipeline: raw block exceeds merged buffer")
				}
				stream = raw
			}

			records, err := bbfmt.DecodeRecords(stream, swapped)
			if err != nil {
				return nil, wrapFormatErr(err)
			}

			for _, rec := range records {
				if !matchesFilter(rec, chromID, start, end) {
					continue
				}
				out = append(out, rec)
				if maxItems > 0 && uint32(len(out)) >= maxItems {
					return out, nil
				}
			}

			cursor += blockSize
		}

		blocks = blocks[afterGap:]
	}

	return out, nil
}

// matchesFilter is the per-record acceptance test: the decoded chromosome
// must match, and either the record's interval truly overlaps [start,end)
// or the record is a zero-length insertion that either sits exactly at the
// query's end or is tested against a zero-length query (start == end), in
// which case any zero-length record is kept. A zero-length record at the
// start of a non-empty query is not kept.
func matchesFilter(rec types.BedLine, chromID, start, end uint32) bool {
	if rec.ChromID != chromID {
		return false
	}
	if rec.Start < end && rec.End > start {
		return true
	}
	if rec.Start == rec.End && (rec.Start == end || end == start) {
		return true
	}
	return false
}

// coalesceRun finds the longest run of blocks physically adjacent on disk
// (blocks[i+1].Offset == blocks[i].Offset+blocks[i].Size), returning the
// last index of the run (beforeGap) and the index just past it
// (afterGap).
func coalesceRun(blocks []types.BlockRef) (beforeGap, afterGap int) {
	beforeGap = 0
	for beforeGap+1 < len(blocks) {
		cur := blocks[beforeGap]
		next := blocks[beforeGap+1]
		if next.Offset != cur.Offset+cur.Size {
			break
		}
		beforeGap++
	}
	return beforeGap, beforeGap + 1
}

// inflateBlock zlib-decompresses the blockSize compressed bytes starting
// at cursor within merged. Slicing is relative to cursor, not absolute —
// the reference implementation this is ported from sliced to an absolute
// index here and silently corrupted every block but the first in a
// coalesced run.
//
// uncompressBufSize is the file header's declared per-block inflated-size
// bound; a block that decompresses past it violates spec §3's invariant
// and is rejected with ErrDecompress before the global sanity ceiling is
// ever consulted.
func inflateBlock(merged []byte, cursor, blockSize int, uncompressBufSize uint32) ([]byte, error) {
	compBytes, ok := sliceRange(merged, cursor, cursor+blockSize)
	if !ok {
		return nil, types.ErrTruncatedNode.WithMsg("block pipeline: compressed block exceeds merged buffer")
	}
	zr, err := zlib.NewReader(bytes.NewReader(compBytes))
	if err != nil {
		return nil, types.ErrDecompress.WithErr(err)
	}
	defer zr.Close()

	limit := uint64(types.MaxUncompressBufSize)
	if uncompressBufSize > 0 && uint64(uncompressBufSize) < limit {
		limit = uint64(uncompressBufSize)
	}

	inflated, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, types.ErrDecompress.WithErr(err)
	}
	if uint64(len(inflated)) > limit {
		if uncompressBufSize > 0 && limit == uint64(uncompressBufSize) {
			return nil, types.ErrDecompress.WithMsg(
				fmt.Sprintf("block pipeline: decompressed block exceeds header uncompressBufSize (%d)", uncompressBufSize))
		}
		return nil, types.ErrDecompress.WithMsg("block pipeline: decompressed block exceeds sanity limit")
	}
	return inflated, nil
}

func sliceRange(data []byte, start, end int) ([]byte, bool) {
	if start < 0 || end < start || end > len(data) {
		return nil, false
	}
	return data[start:end], true
}
