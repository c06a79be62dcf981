package hprof

import (
	"bytes"
	"encoding/binary"
)

// builder assembles raw HPROF bytes for tests: a header followed by a
// sequence of top-level records. It mirrors the shape of
// HprofBuilder in the original Python test suite, minus its context
// managers — tests here build the whole blob up front.
type builder struct {
	buf    bytes.Buffer
	idsize int
}

func newBuilder(idsize int, startMillis uint64) *builder {
	b := &builder{idsize: idsize}
	b.buf.WriteString("JAVA PROFILE 1.0.2")
	b.buf.WriteByte(0)
	b.u32(uint32(idsize))
	b.u32(uint32(startMillis >> 32))
	b.u32(uint32(startMillis))
	return b
}

func (b *builder) u8(v byte) *builder {
	b.buf.WriteByte(v)
	return b
}

func (b *builder) u16(v uint16) *builder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *builder) u32(v uint32) *builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *builder) id(v uint64) *builder {
	if b.idsize == 4 {
		return b.u32(uint32(v))
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *builder) bytes(v []byte) *builder {
	b.buf.Write(v)
	return b
}

// record appends a full top-level record: tag, relative timestamp
// (microseconds), and body.
func (b *builder) record(tag byte, relUs uint32, body []byte) *builder {
	b.u8(tag)
	b.u32(relUs)
	b.u32(uint32(len(body)))
	b.buf.Write(body)
	return b
}

func (b *builder) bytesOf() []byte {
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

// subBody builds a heap-dump segment/dump body out of already-encoded
// subrecords, for use as the body argument to record().
func subBody(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}

// idBytes encodes a single id value at the given idsize, for building
// subrecord bodies inline.
func idBytes(idsize int, v uint64) []byte {
	if idsize == 4 {
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(v))
		return out
	}
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}

func u32Bytes(v uint32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out
}

func u16Bytes(v uint16) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, v)
	return out
}
