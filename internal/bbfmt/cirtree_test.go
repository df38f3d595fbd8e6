package bbfmt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCIRHeader(t *testing.T) {
	buf := make([]byte, CIRHeaderSize)
	copy(buf[0:4], CIRTreeMagic[:])
	binary.BigEndian.PutUint32(buf[4:8], 256)   // blockSize
	binary.BigEndian.PutUint64(buf[8:16], 4)    // itemCount
	binary.BigEndian.PutUint32(buf[16:20], 0)   // startChromIx
	binary.BigEndian.PutUint32(buf[20:24], 10)  // startBase
	binary.BigEndian.PutUint32(buf[24:28], 1)   // endChromIx
	binary.BigEndian.PutUint32(buf[28:32], 100) // endBase
	binary.BigEndian.PutUint64(buf[32:40], 99999)
	binary.BigEndian.PutUint32(buf[40:44], 64) // itemsPerSlot

	h, err := ParseCIRHeader(buf, 0)
	require.NoError(t, err)
	require.False(t, h.Swapped)
	require.Equal(t, uint32(256), h.BlockSize)
	require.Equal(t, uint64(4), h.ItemCount)
	require.Equal(t, uint32(1), h.EndChromIx)
	require.Equal(t, uint32(100), h.EndBase)
	require.Equal(t, uint64(99999), h.FileSize)
}

func TestParseCIRNodeHeader(t *testing.T) {
	buf := []byte{0, 0, 0, 3}
	h, err := ParseCIRNodeHeader(buf, 0, false)
	require.NoError(t, err)
	require.False(t, h.IsLeaf)
	require.Equal(t, uint16(3), h.ChildCount)
}

func TestParseCIRLeafItems(t *testing.T) {
	buf := make([]byte, CIRLeafItemSize)
	binary.BigEndian.PutUint32(buf[0:4], 0)
	binary.BigEndian.PutUint32(buf[4:8], 10)
	binary.BigEndian.PutUint32(buf[8:12], 0)
	binary.BigEndian.PutUint32(buf[12:16], 30)
	binary.BigEndian.PutUint64(buf[16:24], 1000)
	binary.BigEndian.PutUint64(buf[24:32], 50)

	items, err := ParseCIRLeafItems(buf, 0, false, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint32(10), items[0].Span.StartBase)
	require.Equal(t, uint32(30), items[0].Span.EndBase)
	require.Equal(t, uint64(1000), items[0].DataOffset)
	require.Equal(t, uint64(50), items[0].DataSize)
}

func TestParseCIRInternalItems(t *testing.T) {
	buf := make([]byte, CIRInternalItemSize)
	binary.BigEndian.PutUint32(buf[0:4], 0)
	binary.BigEndian.PutUint32(buf[4:8], 0)
	binary.BigEndian.PutUint32(buf[8:12], 2)
	binary.BigEndian.PutUint32(buf[12:16], 500)
	binary.BigEndian.PutUint64(buf[16:24], 777)

	items, err := ParseCIRInternalItems(buf, 0, false, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint32(2), items[0].Span.EndChromIx)
	require.Equal(t, uint64(777), items[0].ChildOffset)
}

func TestCIRSpanOverlaps(t *testing.T) {
	s := cirSpan{StartChromIx: 0, StartBase: 10, EndChromIx: 0, EndBase: 20}
	require.True(t, s.Overlaps(0, 15, 25))
	require.True(t, s.Overlaps(0, 5, 15))
	require.False(t, s.Overlaps(0, 20, 30), "half-open: span ends at 20, query starts at 20")
	require.False(t, s.Overlaps(0, 0, 10), "half-open: span starts at 10, query ends at 10")
	require.False(t, s.Overlaps(1, 10, 20), "different chromosome")
}

func TestCIRSpanOverlapsZeroLength(t *testing.T) {
	// A zero-length insertion point query [30,30) misses spans that end or
	// start exactly at 30 under strict half-open comparison; callers pad it
	// to [29,31) before calling in.
	s := cirSpan{StartChromIx: 0, StartBase: 29, EndChromIx: 0, EndBase: 31}
	require.True(t, s.Overlaps(0, 29, 31))
}
