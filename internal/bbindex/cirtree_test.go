package bbindex

import (
	"encoding/binary"
	"testing"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/stretchr/testify/require"
)

// buildLeafOnlyCIRTree returns a CIR-tree header followed by a single leaf
// node holding the given spans and (dataOffset, dataSize) pairs.
func buildLeafOnlyCIRTree(t *testing.T, entries []struct {
	StartBase, EndBase       uint32
	DataOffset, DataSize uint64
}) []byte {
	t.Helper()
	buf := make([]byte, bbfmt.CIRHeaderSize)
	copy(buf[0:4], bbfmt.CIRTreeMagic[:])
	binary.BigEndian.PutUint32(buf[4:8], 256)
	binary.BigEndian.PutUint64(buf[8:16], uint64(len(entries)))

	node := make([]byte, 4)
	node[0] = 1
	binary.BigEndian.PutUint16(node[2:4], uint16(len(entries)))
	buf = append(buf, node...)

	for _, e := range entries {
		item := make([]byte, bbfmt.CIRLeafItemSize)
		binary.BigEndian.PutUint32(item[0:4], 0)
		binary.BigEndian.PutUint32(item[4:8], e.StartBase)
		binary.BigEndian.PutUint32(item[8:12], 0)
		binary.BigEndian.PutUint32(item[12:16], e.EndBase)
		binary.BigEndian.PutUint64(item[16:24], e.DataOffset)
		binary.BigEndian.PutUint64(item[24:32], e.DataSize)
		buf = append(buf, item...)
	}
	return buf
}

func TestCIRTreeFindOverlappingLeafOnly(t *testing.T) {
	buf := buildLeafOnlyCIRTree(t, []struct {
		StartBase, EndBase       uint32
		DataOffset, DataSize uint64
	}{
		{StartBase: 10, EndBase: 20, DataOffset: 1000, DataSize: 50},
		{StartBase: 30, EndBase: 40, DataOffset: 1050, DataSize: 50},
	})

	tree, err := OpenCIRTree(buf, 0)
	require.NoError(t, err)

	refs, err := tree.FindOverlapping(0, 12, 18)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, uint64(1000), refs[0].Offset)

	refs, err = tree.FindOverlapping(0, 0, 100)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	refs, err = tree.FindOverlapping(0, 21, 29)
	require.NoError(t, err)
	require.Empty(t, refs)

	refs, err = tree.FindOverlapping(1, 12, 18)
	require.NoError(t, err)
	require.Empty(t, refs, "different chromosome must not match")
}

// cirLeafItemBytes builds one on-disk CIRLeafItem: span (startChromIx,
// startBase, endChromIx, endBase) plus (dataOffset, dataSize).
func cirLeafItemBytes(startChromIx, startBase, endChromIx, endBase uint32, dataOffset, dataSize uint64) []byte {
	b := make([]byte, bbfmt.CIRLeafItemSize)
	binary.BigEndian.PutUint32(b[0:4], startChromIx)
	binary.BigEndian.PutUint32(b[4:8], startBase)
	binary.BigEndian.PutUint32(b[8:12], endChromIx)
	binary.BigEndian.PutUint32(b[12:16], endBase)
	binary.BigEndian.PutUint64(b[16:24], dataOffset)
	binary.BigEndian.PutUint64(b[24:32], dataSize)
	return b
}

// cirInternalItemBytes builds one on-disk CIRInternalItem: span plus a
// childOffset.
func cirInternalItemBytes(startChromIx, startBase, endChromIx, endBase uint32, childOffset uint64) []byte {
	b := make([]byte, bbfmt.CIRInternalItemSize)
	binary.BigEndian.PutUint32(b[0:4], startChromIx)
	binary.BigEndian.PutUint32(b[4:8], startBase)
	binary.BigEndian.PutUint32(b[8:12], endChromIx)
	binary.BigEndian.PutUint32(b[12:16], endBase)
	binary.BigEndian.PutUint64(b[16:24], childOffset)
	return b
}

func cirLeafNodeBytes(items ...[]byte) []byte {
	node := make([]byte, bbfmt.CIRNodeHeaderSize)
	node[0] = 1
	binary.BigEndian.PutUint16(node[2:4], uint16(len(items)))
	for _, it := range items {
		node = append(node, it...)
	}
	return node
}

func TestCIRTreeInternalDescent(t *testing.T) {
	// Root -> two children, each a leaf with one block: chrom0 [0:10,20)
	// and chrom1 [1:0,100).
	leafA := cirLeafNodeBytes(cirLeafItemBytes(0, 10, 0, 20, 500, 16))
	leafB := cirLeafNodeBytes(cirLeafItemBytes(1, 0, 1, 100, 900, 32))

	header := make([]byte, bbfmt.CIRHeaderSize)
	copy(header[0:4], bbfmt.CIRTreeMagic[:])
	binary.BigEndian.PutUint32(header[4:8], 256)
	binary.BigEndian.PutUint64(header[8:16], 2)

	rootOffset := int64(len(header))
	internalNode := make([]byte, bbfmt.CIRNodeHeaderSize)
	binary.BigEndian.PutUint16(internalNode[2:4], 2)

	leafAOffset := rootOffset + int64(len(internalNode)) + 2*int64(bbfmt.CIRInternalItemSize)
	leafBOffset := leafAOffset + int64(len(leafA))

	itemA := cirInternalItemBytes(0, 10, 0, 20, uint64(leafAOffset))
	itemB := cirInternalItemBytes(1, 0, 1, 100, uint64(leafBOffset))

	buf := append([]byte{}, header...)
	buf = append(buf, internalNode...)
	buf = append(buf, itemA...)
	buf = append(buf, itemB...)
	buf = append(buf, leafA...)
	buf = append(buf, leafB...)

	tree, err := OpenCIRTree(buf, 0)
	require.NoError(t, err)

	refs, err := tree.FindOverlapping(0, 5, 15)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, uint64(500), refs[0].Offset)

	refs, err = tree.FindOverlapping(1, 50, 150)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, uint64(900), refs[0].Offset)
}
