// Package bbtest builds synthetic, in-memory BigBed byte streams for
// tests. There is no bedToBigBed available in this environment, so
// fixtures used across the reader's test suite are assembled here by hand
// from the same layout bbfmt/bbindex decode.
package bbtest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
)

// Chrom is one chromosome B+ tree entry to build.
type Chrom struct {
	Name string
	Size uint32
}

// Record is one BED record to pack into the file's single data block.
type Record struct {
	Chrom string
	Start uint32
	End   uint32
	Rest  string
}

// Options configures Build.
type Options struct {
	Chroms     []Chrom
	Records    []Record
	Compressed bool
	// Swapped, if true, writes the file byte-swapped: magics reversed,
	// all multis little-endian. Otherwise everything is big-endian.
	Swapped bool
	// KeySize overrides the B+ tree's key size; 0 picks the longest
	// chromosome name.
	KeySize uint32
}

// Build assembles a complete, parseable BigBed byte stream: file header,
// zoom-level table (always empty), chromosome B+ tree, a single data
// block holding every record in Options.Records (in order given), and a
// CIR-tree with a single leaf spanning the whole file's chromosomes.
//
// This is not a faithful reproduction of how bedToBigBed partitions
// records into many blocks — it exists to exercise the decode and
// traversal logic, not the builder's own block-partitioning choices.
func Build(opts Options) ([]byte, error) {
	order := binary.ByteOrder(binary.BigEndian)
	reverse := func(m [4]byte) [4]byte { return m }
	if opts.Swapped {
		order = binary.LittleEndian
		reverse = func(m [4]byte) [4]byte { return [4]byte{m[3], m[2], m[1], m[0]} }
	}

	if len(opts.Chroms) == 0 {
		return nil, fmt.Errorf("bbtest: at least one chromosome is required")
	}

	nameToID := make(map[string]uint32, len(opts.Chroms))
	keySize := opts.KeySize
	var maxChromSize uint32
	for i, c := range opts.Chroms {
		nameToID[c.Name] = uint32(i)
		if uint32(len(c.Name)) > keySize {
			keySize = uint32(len(c.Name))
		}
		if c.Size > maxChromSize {
			maxChromSize = c.Size
		}
	}

	var rawBlock []byte
	for _, r := range opts.Records {
		chromID, ok := nameToID[r.Chrom]
		if !ok {
			return nil, fmt.Errorf("bbtest: record references unknown chromosome %q", r.Chrom)
		}
		rec := make([]byte, bbfmt.RecordFixedSize)
		order.PutUint32(rec[0:4], chromID)
		order.PutUint32(rec[4:8], r.Start)
		order.PutUint32(rec[8:12], r.End)
		rec = append(rec, []byte(r.Rest)...)
		rec = append(rec, 0)
		rawBlock = append(rawBlock, rec...)
	}

	dataBlock := rawBlock
	var uncompressBufSize uint32
	if opts.Compressed {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(rawBlock); err != nil {
			return nil, fmt.Errorf("bbtest: compressing data block: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("bbtest: closing zlib writer: %w", err)
		}
		dataBlock = buf.Bytes()
		uncompressBufSize = uint32(len(rawBlock))
		if uncompressBufSize == 0 {
			uncompressBufSize = 1
		}
	}

	bplusNodeHeader := make([]byte, bbfmt.BPlusNodeHeaderSize)
	bplusNodeHeader[0] = 1
	order.PutUint16(bplusNodeHeader[2:4], uint16(len(opts.Chroms)))

	var bplusItems []byte
	for i, c := range opts.Chroms {
		key := make([]byte, keySize)
		copy(key, c.Name)
		val := make([]byte, 8)
		order.PutUint32(val[0:4], uint32(i))
		order.PutUint32(val[4:8], c.Size)
		bplusItems = append(bplusItems, key...)
		bplusItems = append(bplusItems, val...)
	}

	bplusHeader := make([]byte, bbfmt.BPlusHeaderSize)
	bplusMagic := reverse(bbfmt.BPlusMagic)
	copy(bplusHeader[0:4], bplusMagic[:])
	order.PutUint32(bplusHeader[4:8], uint32(len(opts.Chroms)))
	order.PutUint32(bplusHeader[8:12], keySize)
	order.PutUint32(bplusHeader[12:16], 8)
	order.PutUint64(bplusHeader[16:24], uint64(len(opts.Chroms)))

	bplusTree := append(append([]byte{}, bplusHeader...), bplusNodeHeader...)
	bplusTree = append(bplusTree, bplusItems...)

	const headerSize = bbfmt.HeaderSize
	chromTreeOffset := int64(headerSize)
	dataBlockOffset := chromTreeOffset + int64(len(bplusTree))
	cirHeaderOffset := dataBlockOffset + int64(len(dataBlock))

	maxChromIx := uint32(len(opts.Chroms) - 1)

	cirHeader := make([]byte, bbfmt.CIRHeaderSize)
	cirMagic := reverse(bbfmt.CIRTreeMagic)
	copy(cirHeader[0:4], cirMagic[:])
	order.PutUint32(cirHeader[4:8], uint32(len(opts.Records)))
	order.PutUint64(cirHeader[8:16], 1)
	order.PutUint32(cirHeader[16:20], 0)
	order.PutUint32(cirHeader[20:24], 0)
	order.PutUint32(cirHeader[24:28], maxChromIx)
	order.PutUint32(cirHeader[28:32], maxChromSize+1)
	order.PutUint32(cirHeader[40:44], 1)

	cirNodeHeader := make([]byte, bbfmt.CIRNodeHeaderSize)
	cirNodeHeader[0] = 1
	order.PutUint16(cirNodeHeader[2:4], 1)

	cirItem := make([]byte, bbfmt.CIRLeafItemSize)
	order.PutUint32(cirItem[0:4], 0)
	order.PutUint32(cirItem[4:8], 0)
	order.PutUint32(cirItem[8:12], maxChromIx)
	order.PutUint32(cirItem[12:16], maxChromSize+1)
	order.PutUint64(cirItem[16:24], uint64(dataBlockOffset))
	order.PutUint64(cirItem[24:32], uint64(len(dataBlock)))

	cirTreeLen := int64(bbfmt.CIRHeaderSize + bbfmt.CIRNodeHeaderSize + bbfmt.CIRLeafItemSize)
	totalSize := cirHeaderOffset + cirTreeLen
	order.PutUint64(cirHeader[32:40], uint64(totalSize))

	cirTree := append(append([]byte{}, cirHeader...), cirNodeHeader...)
	cirTree = append(cirTree, cirItem...)

	fileHeader := make([]byte, headerSize)
	fileMagic := reverse(bbfmt.BigBedMagic)
	copy(fileHeader[0:4], fileMagic[:])
	order.PutUint16(fileHeader[4:6], 4)
	order.PutUint16(fileHeader[6:8], 0)
	order.PutUint64(fileHeader[8:16], uint64(chromTreeOffset))
	order.PutUint64(fileHeader[16:24], uint64(dataBlockOffset))
	order.PutUint64(fileHeader[24:32], uint64(cirHeaderOffset))
	order.PutUint16(fileHeader[32:34], 3)
	order.PutUint16(fileHeader[34:36], 3)
	order.PutUint32(fileHeader[52:56], uncompressBufSize)

	out := make([]byte, 0, totalSize)
	out = append(out, fileHeader...)
	out = append(out, bplusTree...)
	out = append(out, dataBlock...)
	out = append(out, cirTree...)
	return out, nil
}

// BuildExample returns the literal fixture from the reader's end-to-end
// test scenarios: chr1 with two overlapping intervals and one zero-length
// insertion, plus a second chromosome with a single full-length record.
func BuildExample(swapped, compressed bool) ([]byte, error) {
	return Build(Options{
		Chroms: []Chrom{
			{Name: "chr1", Size: 25},
			{Name: "chr2", Size: 100},
		},
		Records: []Record{
			{Chrom: "chr1", Start: 10, End: 20, Rest: "a"},
			{Chrom: "chr1", Start: 15, End: 25, Rest: "b"},
			{Chrom: "chr1", Start: 30, End: 30, Rest: "zero"},
			{Chrom: "chr2", Start: 0, End: 100, Rest: "c"},
		},
		Swapped:    swapped,
		Compressed: compressed,
	})
}
