package hprof

import (
	"testing"

	"github.com/mabhi256/hprofdump/hprof/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unknownRootBody(idsize int, objid uint64) []byte {
	return subBody([]byte{0xFF}, idBytes(idsize, objid))
}

func globalJniRootBody(idsize int, objid, grefid uint64) []byte {
	return subBody([]byte{0x01}, idBytes(idsize, objid), idBytes(idsize, grefid))
}

func localJniRootBody(idsize int, objid uint64, threadSerial, frameIdx uint32) []byte {
	return subBody([]byte{0x02}, idBytes(idsize, objid), u32Bytes(threadSerial), u32Bytes(frameIdx))
}

func javaStackRootBody(idsize int, objid uint64, threadSerial, frameIdx uint32) []byte {
	return subBody([]byte{0x03}, idBytes(idsize, objid), u32Bytes(threadSerial), u32Bytes(frameIdx))
}

func nativeStackRootBody(idsize int, objid uint64, threadSerial uint32) []byte {
	return subBody([]byte{0x04}, idBytes(idsize, objid), u32Bytes(threadSerial))
}

func stickyClassRootBody(idsize int, objid uint64) []byte {
	return subBody([]byte{0x05}, idBytes(idsize, objid))
}

func threadRootBody(idsize int, objid uint64, threadSerial, straceSerial uint32) []byte {
	return subBody([]byte{0x08}, idBytes(idsize, objid), u32Bytes(threadSerial), u32Bytes(straceSerial))
}

func internedStringRootBody(idsize int, objid uint64) []byte {
	return subBody([]byte{0x89}, idBytes(idsize, objid))
}

func vmInternalRootBody(idsize int, objid uint64) []byte {
	return subBody([]byte{0x8D}, idBytes(idsize, objid))
}

func objectRecordBody(idsize int, objid uint64, straceSerial uint32, clsid uint64, data []byte) []byte {
	return subBody([]byte{0x21}, idBytes(idsize, objid), u32Bytes(straceSerial), idBytes(idsize, clsid),
		u32Bytes(uint32(len(data))), data)
}

func TestHeapDumpMixedRoots(t *testing.T) {
	const idsize = 4
	const X, Y, Z = 0x100, 0x200, 0x300

	body := subBody(
		unknownRootBody(idsize, X),
		objectRecordBody(idsize, Y, 1, 0x900, make([]byte, 4)),
		objectRecordBody(idsize, Z, 1, 0x900, make([]byte, 10)),
		threadRootBody(idsize, Y, 1, 1),
		localJniRootBody(idsize, Y, 1, 0),
		localJniRootBody(idsize, Z, 1, 1),
		nativeStackRootBody(idsize, Y, 1),
		javaStackRootBody(idsize, Z, 1, 0),
		javaStackRootBody(idsize, Z, 1, 1),
		globalJniRootBody(idsize, Z, 123),
		globalJniRootBody(idsize, Z, 123),
		vmInternalRootBody(idsize, Y),
		unknownRootBody(idsize, 77),
		internedStringRootBody(idsize, Y),
		stickyClassRootBody(idsize, Z),
	)

	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, body)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg, ok := it.Record().(HeapDumpSegment)
	require.True(t, ok)

	wantTags := []tag.Subrecord{
		tag.GCRootUnknown, tag.GCInstanceDump, tag.GCInstanceDump,
		tag.GCRootThreadObject, tag.GCRootJNILocal, tag.GCRootJNILocal,
		tag.GCRootNativeStack, tag.GCRootJavaFrame, tag.GCRootJavaFrame,
		tag.GCRootJNIGlobal, tag.GCRootJNIGlobal, tag.GCRootVMInternal,
		tag.GCRootUnknown, tag.GCRootInternedString, tag.GCRootStickyClass,
	}

	sub := seg.Subrecords()
	count := 0
	for sub.Next() {
		rec := sub.Record()
		assert.Equal(t, wantTags[count], rec.Tag(), "subrecord %d", count)
		count++
	}
	require.NoError(t, sub.Err())
	assert.Equal(t, 15, count)
}

func TestGlobalJniRootGrefID(t *testing.T) {
	const idsize = 4
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, globalJniRootBody(idsize, 0x42, 123))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	require.True(t, sub.Next())
	root := sub.Record().(GlobalJniRoot)

	objid, err := root.ObjID()
	require.NoError(t, err)
	assert.EqualValues(t, 0x42, objid)

	grefid, err := root.GrefID()
	require.NoError(t, err)
	assert.EqualValues(t, 123, grefid)

	assert.Contains(t, root.String(), "grefid=0x7b")

	genericID, err := root.ID()
	require.NoError(t, err)
	assert.EqualValues(t, 123, genericID)
}

func TestRootsNoGenericID(t *testing.T) {
	const idsize = 4
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, subBody(
		unknownRootBody(idsize, 1),
		localJniRootBody(idsize, 2, 0, 0),
		nativeStackRootBody(idsize, 3, 0),
		stickyClassRootBody(idsize, 4),
		threadRootBody(idsize, 5, 0, 0),
		internedStringRootBody(idsize, 6),
		vmInternalRootBody(idsize, 7),
		javaStackRootBody(idsize, 8, 0, 0),
	))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	for sub.Next() {
		rec := sub.Record()
		_, idErr := rec.ID()
		require.Error(t, idErr)
		var herr *Error
		require.ErrorAs(t, idErr, &herr)
		assert.Equal(t, KindUnsupported, herr.Kind)
		assert.Contains(t, idErr.Error(), "id")
	}
	require.NoError(t, sub.Err())
}

func TestSubrecordBoundaryOvershoot(t *testing.T) {
	const idsize = 4
	// one subrecord body truncated: declares a LocalJniRoot (9+idsize)
	// but only provides enough bytes for an UnknownRoot (1+idsize).
	body := unknownRootBody(idsize, 1)
	body[0] = 0x02 // reinterpret as LocalJniRoot tag, too short for its shape

	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, body)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	assert.False(t, sub.Next())
	require.Error(t, sub.Err())
}

func TestUnknownSubrecordTagIsFormatError(t *testing.T) {
	const idsize = 4
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, []byte{0x77, 0, 0, 0, 0})
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	assert.False(t, sub.Next())
	require.Error(t, sub.Err())
	var herr *Error
	require.ErrorAs(t, sub.Err(), &herr)
	assert.Equal(t, KindFormat, herr.Kind)
}

func TestSubrecordAtMatchesSequentialScan(t *testing.T) {
	const idsize = 4
	b := newBuilder(idsize, 0)
	b.record(0x1C, 0, subBody(unknownRootBody(idsize, 1), threadRootBody(idsize, 2, 10, 20)))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	seg := it.Record().(HeapDumpSegment)
	sub := seg.Subrecords()
	require.True(t, sub.Next())
	require.True(t, sub.Next())
	secondAddr := sub.Record().Address()
	require.False(t, sub.Next())
	require.NoError(t, sub.Err())

	rec, err := SubrecordAt(src, secondAddr)
	require.NoError(t, err)
	thread, ok := rec.(ThreadRoot)
	require.True(t, ok)
	objid, err := thread.ObjID()
	require.NoError(t, err)
	assert.EqualValues(t, 2, objid)
}
