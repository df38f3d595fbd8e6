package bbfmt

import (
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbio"
)

// HeaderSize is the fixed portion of the BigBed file header, ending just
// before the zoom-level table.
const HeaderSize = 64

// Header is the fixed-layout BigBed file header at offset 0.
//
//	Offset  Size  Field
//	------  ----  ------------------------------------------------------
//	 0x00    4    magic
//	 0x04    2    version
//	 0x06    2    zoomLevels
//	 0x08    8    chromTreeOffset
//	 0x10    8    unzoomedDataOffset
//	 0x18    8    unzoomedIndexOffset
//	 0x20    2    fieldCount
//	 0x22    2    definedFieldCount
//	 0x24    8    asOffset
//	 0x2C    8    totalSummaryOffset
//	 0x34    4    uncompressBufSize
//	 0x38    8    extensionOffset
type Header struct {
	Swapped              bool
	Version              uint16
	ZoomLevels           uint16
	ChromTreeOffset      uint64
	UnzoomedDataOffset   uint64
	UnzoomedIndexOffset  uint64
	FieldCount           uint16
	DefinedFieldCount    uint16
	ASOffset             uint64
	TotalSummaryOffset   uint64
	UncompressBufSize    uint32
	ExtensionOffset      uint64
}

// Compressed reports whether data blocks in this file are zlib-deflated.
func (h Header) Compressed() bool { return h.UncompressBufSize > 0 }

// ParseHeader validates the BigBed magic and decodes the fixed header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("bigbed header: %w", ErrTruncated)
	}
	swapped, err := DetectSwap(data, BigBedMagic)
	if err != nil {
		return Header{}, fmt.Errorf("bigbed header: %w", err)
	}

	r := bbio.NewReader(data, 4, swapped)
	h := Header{Swapped: swapped}

	var readErr error
	must := func(v uint64, err error) uint64 {
		if err != nil {
			readErr = err
		}
		return v
	}
	must16 := func(v uint16, err error) uint16 {
		if err != nil {
			readErr = err
		}
		return v
	}
	must32 := func(v uint32, err error) uint32 {
		if err != nil {
			readErr = err
		}
		return v
	}

	h.Version = must16(r.ReadU16())
	h.ZoomLevels = must16(r.ReadU16())
	h.ChromTreeOffset = must(r.ReadU64())
	h.UnzoomedDataOffset = must(r.ReadU64())
	h.UnzoomedIndexOffset = must(r.ReadU64())
	h.FieldCount = must16(r.ReadU16())
	h.DefinedFieldCount = must16(r.ReadU16())
	h.ASOffset = must(r.ReadU64())
	h.TotalSummaryOffset = must(r.ReadU64())
	h.UncompressBufSize = must32(r.ReadU32())
	h.ExtensionOffset = must(r.ReadU64())

	if readErr != nil {
		return Header{}, fmt.Errorf("bigbed header: %w", ErrTruncated)
	}
	return h, nil
}

// ZoomLevelSize is the on-disk size of one zoom-level table entry.
// reductionLevel(u32) + reserved(u32) + dataOffset(u64) + indexOffset(u64).
const ZoomLevelSize = 4 + 4 + 8 + 8

// ZoomLevelRecord is one entry of the zoom-level table following the header.
type ZoomLevelRecord struct {
	ReductionLevel uint32
	DataOffset     uint64
	IndexOffset    uint64
}

// ParseZoomLevels decodes count contiguous zoom-level entries starting at
// offset. The core reads these but never queries the summaries they
// describe.
func ParseZoomLevels(data []byte, offset int64, swapped bool, count uint16) ([]ZoomLevelRecord, error) {
	levels := make([]ZoomLevelRecord, 0, count)
	r := bbio.NewReader(data, offset, swapped)
	for i := uint16(0); i < count; i++ {
		reduction, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("zoom level %d: %w", i, ErrTruncated)
		}
		if _, err := r.ReadU32(); err != nil { // reserved
			return nil, fmt.Errorf("zoom level %d: %w", i, ErrTruncated)
		}
		dataOffset, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("zoom level %d: %w", i, ErrTruncated)
		}
		indexOffset, err := r.ReadU64()
		if err != nil {
			return nil, fmt.Errorf("zoom level %d: %w", i, ErrTruncated)
		}
		levels = append(levels, ZoomLevelRecord{
			ReductionLevel: reduction,
			DataOffset:     dataOffset,
			IndexOffset:    indexOffset,
		})
	}
	return levels, nil
}

// ExtensionHeaderSize is the on-disk size of the extension header.
const ExtensionHeaderSize = 2 + 2 + 8

// ExtensionHeader describes the optional extension block. Fields are read
// but not otherwise consumed by the core.
type ExtensionHeader struct {
	ExtensionSize        uint16
	ExtraIndexCount      uint16
	ExtraIndexListOffset uint64
}

// ParseExtensionHeader decodes the extension header at offset.
func ParseExtensionHeader(data []byte, offset int64, swapped bool) (ExtensionHeader, error) {
	r := bbio.NewReader(data, offset, swapped)
	size, err := r.ReadU16()
	if err != nil {
		return ExtensionHeader{}, fmt.Errorf("extension header: %w", ErrTruncated)
	}
	count, err := r.ReadU16()
	if err != nil {
		return ExtensionHeader{}, fmt.Errorf("extension header: %w", ErrTruncated)
	}
	listOffset, err := r.ReadU64()
	if err != nil {
		return ExtensionHeader{}, fmt.Errorf("extension header: %w", ErrTruncated)
	}
	return ExtensionHeader{
		ExtensionSize:        size,
		ExtraIndexCount:      count,
		ExtraIndexListOffset: listOffset,
	}, nil
}
