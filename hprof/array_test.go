package hprof

import (
	"testing"

	"github.com/mabhi256/hprofdump/hprof/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectArrayBody(idsize int, objid uint64, elemCls uint64, elems []uint64) []byte {
	elemBytes := make([]byte, 0, len(elems)*idsize)
	for _, e := range elems {
		elemBytes = append(elemBytes, idBytes(idsize, e)...)
	}
	return subBody([]byte{0x22}, idBytes(idsize, objid), u32Bytes(1),
		u32Bytes(uint32(len(elems))), idBytes(idsize, elemCls), elemBytes)
}

func primitiveArrayBody(idsize int, objid uint64, elemType tag.FieldType, elems []byte) []byte {
	count := len(elems) / elemType.Size(idsize)
	return subBody([]byte{0x23}, idBytes(idsize, objid), u32Bytes(1),
		u32Bytes(uint32(count)), []byte{byte(elemType)}, elems)
}

func TestObjectArray(t *testing.T) {
	const idsize = 4
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, objectArrayBody(idsize, 0xA1, 0xB2, []uint64{1, 2, 3}))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	require.True(t, sub.Next())
	arr := sub.Record().(ObjectArray)

	count, err := arr.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	elem, err := arr.Element(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, elem)

	assert.False(t, sub.Next())
	require.NoError(t, sub.Err())
}

func TestPrimitiveArray(t *testing.T) {
	const idsize = 4
	elems := []byte{0, 0, 0, 10, 0, 0, 0, 20}
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, primitiveArrayBody(idsize, 0xA1, tag.Int, elems))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	require.True(t, sub.Next())
	arr := sub.Record().(PrimitiveArray)

	ft, err := arr.Type()
	require.NoError(t, err)
	assert.Equal(t, tag.Int, ft)

	data, err := arr.Elements()
	require.NoError(t, err)
	assert.Equal(t, elems, data)

	assert.False(t, sub.Next())
	require.NoError(t, sub.Err())
}
