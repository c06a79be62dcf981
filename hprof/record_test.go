package hprof

import (
	"testing"
	"time"

	"github.com/mabhi256/hprofdump/hprof/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsEmptyDump(t *testing.T) {
	b := newBuilder(4, 0)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestRecordsFourUnhandled(t *testing.T) {
	b := newBuilder(4, 0x168E143F263)
	b.record(0x99, 0, make([]byte, 25-9))
	b.record(0x99, 65536, make([]byte, 70-9))
	b.record(0x99, 33554432, make([]byte, 17-9))
	b.record(0x99, 0, make([]byte, 9-9))

	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	wantLengths := []int{25, 70, 17, 9}
	wantRelUs := []uint32{0, 65536, 33554432, 0}

	it := src.Records()
	for i := 0; i < 4; i++ {
		require.True(t, it.Next(), "record %d", i)
		rec := it.Record()

		_, ok := rec.(Unhandled)
		assert.True(t, ok)

		length, err := rec.Length()
		require.NoError(t, err)
		assert.Equal(t, wantLengths[i], length)

		rel, err := rec.RelativeTimestamp()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(wantRelUs[i])*time.Microsecond, rel)

		ts, err := rec.Timestamp()
		require.NoError(t, err)
		assert.Equal(t, src.StartTime().Add(rel), ts)
	}
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestRecordsLazyIteration(t *testing.T) {
	b := newBuilder(4, 0)
	for i := 0; i < 3; i++ {
		b.record(0x99, 0, make([]byte, 1))
	}
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	require.True(t, it.Next())
	require.True(t, it.Next())
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestRecordsRejectsTruncatedLength(t *testing.T) {
	b := newBuilder(4, 0)
	b.u8(0x99)
	b.u32(0)
	b.u32(1000) // declares a body far longer than what follows

	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	assert.False(t, it.Next())
	require.Error(t, it.Err())
	var herr *Error
	require.ErrorAs(t, it.Err(), &herr)
	assert.Equal(t, KindFormat, herr.Kind)
}

func TestSourceCloseInvalidatesReads(t *testing.T) {
	b := newBuilder(4, 0)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, err = src.Byte(0)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, KindUnsupported, herr.Kind)
}

func TestStringRecord(t *testing.T) {
	b := newBuilder(4, 0)
	body := subBody(idBytes(4, 0xAB), []byte("hello"))
	b.record(byte(0x01), 0, body)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	sr, ok := it.Record().(StringRecord)
	require.True(t, ok)

	id, err := sr.ID()
	require.NoError(t, err)
	assert.Equal(t, tag.ID(0xAB), id)

	content, err := sr.Content()
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestLoadClassRecord(t *testing.T) {
	b := newBuilder(4, 0)
	body := subBody(u32Bytes(7), idBytes(4, 0x10), u32Bytes(3), idBytes(4, 0x20))
	b.record(byte(0x02), 0, body)
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	lc, ok := it.Record().(LoadClassRecord)
	require.True(t, ok)

	serial, err := lc.ClassSerialNumber()
	require.NoError(t, err)
	assert.EqualValues(t, 7, serial)

	objid, err := lc.ClassObjectID()
	require.NoError(t, err)
	assert.EqualValues(t, 0x10, objid)

	_, idErr := lc.ID()
	require.Error(t, idErr)
	var herr *Error
	require.ErrorAs(t, idErr, &herr)
	assert.Equal(t, KindUnsupported, herr.Kind)
	assert.Contains(t, idErr.Error(), "id")
}

func TestGenericIDErrorsWithoutOne(t *testing.T) {
	b := newBuilder(4, 0)
	b.record(0x77, 0, nil)                                  // Unhandled
	b.record(0x0E, 0, subBody(u32Bytes(1), u16Bytes(0)))    // ControlSettingsRecord
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	for it.Next() {
		_, idErr := it.Record().ID()
		require.Error(t, idErr)
		var herr *Error
		require.ErrorAs(t, idErr, &herr)
		assert.Equal(t, KindUnsupported, herr.Kind)
		assert.Contains(t, idErr.Error(), "id")
	}
	require.NoError(t, it.Err())
}

func TestRecordAtMatchesSequentialScan(t *testing.T) {
	b := newBuilder(4, 0)
	b.record(byte(0x01), 0, subBody(idBytes(4, 1), []byte("first")))
	b.record(byte(0x01), 1, subBody(idBytes(4, 2), []byte("second")))
	src, err := OpenBytes(b.bytesOf())
	require.NoError(t, err)
	defer src.Close()

	it := src.Records()
	require.True(t, it.Next())
	firstAddr := it.Record().Address()
	require.True(t, it.Next())
	secondAddr := it.Record().Address()
	require.False(t, it.Next())

	rec, err := RecordAt(src, secondAddr)
	require.NoError(t, err)
	sr, ok := rec.(StringRecord)
	require.True(t, ok)
	content, err := sr.Content()
	require.NoError(t, err)
	assert.Equal(t, "second", content)

	rec, err = RecordAt(src, firstAddr)
	require.NoError(t, err)
	sr, ok = rec.(StringRecord)
	require.True(t, ok)
	content, err = sr.Content()
	require.NoError(t, err)
	assert.Equal(t, "first", content)
}
