package bbindex

import (
	"encoding/binary"
	"testing"

	"github.com/ngsfmt/bigbedkit/internal/bbfmt"
	"github.com/ngsfmt/bigbedkit/pkg/types"
	"github.com/stretchr/testify/require"
)

// buildLeafOnlyTree returns a B+ tree header followed by a single leaf
// node holding the given (name, id, size) entries. keySize is fixed at 4.
func buildLeafOnlyTree(t *testing.T, entries [][3]any) []byte {
	t.Helper()
	const keySize, valSize = 4, 8

	buf := make([]byte, bbfmt.BPlusHeaderSize)
	copy(buf[0:4], bbfmt.BPlusMagic[:])
	binary.BigEndian.PutUint32(buf[4:8], 4)
	binary.BigEndian.PutUint32(buf[8:12], keySize)
	binary.BigEndian.PutUint32(buf[12:16], valSize)
	binary.BigEndian.PutUint64(buf[16:24], uint64(len(entries)))

	node := make([]byte, 4)
	node[0] = 1 // isLeaf
	binary.BigEndian.PutUint16(node[2:4], uint16(len(entries)))
	buf = append(buf, node...)

	for _, e := range entries {
		name := e[0].(string)
		id := e[1].(uint32)
		size := e[2].(uint32)
		key := make([]byte, keySize)
		copy(key, name)
		val := make([]byte, valSize)
		binary.BigEndian.PutUint32(val[0:4], id)
		binary.BigEndian.PutUint32(val[4:8], size)
		buf = append(buf, key...)
		buf = append(buf, val...)
	}
	return buf
}

func TestBPlusTreeFindAndTraverse(t *testing.T) {
	buf := buildLeafOnlyTree(t, [][3]any{
		{"chr1", uint32(0), uint32(248956422)},
		{"chr2", uint32(1), uint32(242193529)},
	})

	tree, err := OpenBPlusTree(buf, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), tree.ItemCount())

	info, ok, err := tree.Find([]byte("chr1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "chr1", info.Name)
	require.Equal(t, uint32(0), info.ID)
	require.Equal(t, uint32(248956422), info.Size)

	_, ok, err = tree.Find([]byte("chr9"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBPlusTreeFindKeyTooLong(t *testing.T) {
	buf := buildLeafOnlyTree(t, [][3]any{{"chr1", uint32(0), uint32(100)}})
	tree, err := OpenBPlusTree(buf, 0)
	require.NoError(t, err)

	_, _, err = tree.Find([]byte("chromosome-one-too-long"))
	require.ErrorIs(t, err, types.ErrKeyTooLong)
}

func TestBPlusTreeTraverseVisitsAll(t *testing.T) {
	buf := buildLeafOnlyTree(t, [][3]any{
		{"chr1", uint32(0), uint32(100)},
		{"chr2", uint32(1), uint32(200)},
		{"chr3", uint32(2), uint32(300)},
	})
	tree, err := OpenBPlusTree(buf, 0)
	require.NoError(t, err)

	var seen []string
	require.NoError(t, tree.Traverse(func(ci types.ChromInfo) error {
		seen = append(seen, ci.Name)
		return nil
	}))
	require.Equal(t, []string{"chr1", "chr2", "chr3"}, seen)
}

func TestBPlusTreeInternalDescent(t *testing.T) {
	const keySize, valSize = 4, 8

	// Two leaves: [chr1] and [chr2, chr3], pointed to by one internal root.
	leafA := make([]byte, 4)
	leafA[0] = 1
	binary.BigEndian.PutUint16(leafA[2:4], 1)
	keyA := make([]byte, keySize)
	copy(keyA, "chr1")
	valA := make([]byte, valSize)
	binary.BigEndian.PutUint32(valA[0:4], 0)
	binary.BigEndian.PutUint32(valA[4:8], 100)
	leafA = append(leafA, keyA...)
	leafA = append(leafA, valA...)

	leafB := make([]byte, 4)
	leafB[0] = 1
	binary.BigEndian.PutUint16(leafB[2:4], 2)
	for i, nm := range []string{"chr2", "chr3"} {
		k := make([]byte, keySize)
		copy(k, nm)
		v := make([]byte, valSize)
		binary.BigEndian.PutUint32(v[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(v[4:8], uint32(200+i*100))
		leafB = append(leafB, k...)
		leafB = append(leafB, v...)
	}

	header := make([]byte, bbfmt.BPlusHeaderSize)
	copy(header[0:4], bbfmt.BPlusMagic[:])
	binary.BigEndian.PutUint32(header[4:8], 4)
	binary.BigEndian.PutUint32(header[8:12], keySize)
	binary.BigEndian.PutUint32(header[12:16], valSize)
	binary.BigEndian.PutUint64(header[16:24], 3)

	rootOffset := int64(len(header))
	internalNode := make([]byte, 4)
	internalNode[0] = 0
	binary.BigEndian.PutUint16(internalNode[2:4], 2)

	leafAOffset := rootOffset + int64(len(internalNode)) + int64(2*(keySize+8))
	leafBOffset := leafAOffset + int64(len(leafA))

	item0Key := make([]byte, keySize) // sentinel, discarded
	item1Key := make([]byte, keySize)
	copy(item1Key, "chr2")

	internalItems := append(append([]byte{}, item0Key...), encodeOffset(uint64(leafAOffset))...)
	internalItems = append(internalItems, item1Key...)
	internalItems = append(internalItems, encodeOffset(uint64(leafBOffset))...)

	buf := append([]byte{}, header...)
	buf = append(buf, internalNode...)
	buf = append(buf, internalItems...)
	buf = append(buf, leafA...)
	buf = append(buf, leafB...)

	tree, err := OpenBPlusTree(buf, 0)
	require.NoError(t, err)

	info, ok, err := tree.Find([]byte("chr1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(0), info.ID)

	info, ok, err = tree.Find([]byte("chr3"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(2), info.ID)
	require.Equal(t, uint32(300), info.Size)

	var seen []string
	require.NoError(t, tree.Traverse(func(ci types.ChromInfo) error {
		seen = append(seen, ci.Name)
		return nil
	}))
	require.Equal(t, []string{"chr1", "chr2", "chr3"}, seen)
}

func encodeOffset(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
