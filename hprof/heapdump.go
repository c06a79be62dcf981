package hprof

import (
	"github.com/mabhi256/hprofdump/hprof/tag"
)

// HeapRecord is the common façade contract for every heap-dump
// subrecord variant: roots, class dumps, object instances, arrays,
// and heap-dump info markers.
type HeapRecord interface {
	Tag() tag.Subrecord
	Address() int
	Length() (int, error)
	// ID returns the subrecord's id, for the variants that carry one.
	// Variants without one return an error whose message contains "id".
	ID() (tag.ID, error)
	String() string
}

// subrecordBase is the (source, address) pair every heap subrecord
// variant embeds. Subrecords have no timestamp of their own.
type subrecordBase struct {
	src  *Source
	addr int
}

func (r subrecordBase) Address() int {
	return r.addr
}

func (r subrecordBase) Tag() tag.Subrecord {
	b, err := r.src.Byte(r.addr)
	if err != nil {
		return 0
	}
	return tag.Subrecord(b)
}

// ID is the default implementation shared by every subrecord variant
// that does not carry a generic id; GlobalJniRoot is the only variant
// that overrides it. The typed ObjID accessors are separate from ID.
func (r subrecordBase) ID() (tag.ID, error) {
	return 0, noIDError(r.Tag().String())
}

type subrecordCtor func(src *Source, addr int) HeapRecord

var subrecordDispatch [256]subrecordCtor

func registerSubrecord(t tag.Subrecord, ctor subrecordCtor) {
	subrecordDispatch[byte(t)] = ctor
}

// SubrecordAt dispatches the heap-dump subrecord at addr directly,
// without scanning from the start of its enclosing segment. addr must
// be the start of a subrecord; see RecordAt for the same contract one
// level up.
func SubrecordAt(src *Source, addr int) (HeapRecord, error) {
	return dispatchSubrecord(src, addr)
}

func dispatchSubrecord(src *Source, addr int) (HeapRecord, error) {
	b, err := src.Byte(addr)
	if err != nil {
		return nil, err
	}
	ctor := subrecordDispatch[b]
	if ctor == nil {
		return nil, formatError("unknown heap-dump subrecord tag 0x%02x at address 0x%x", b, addr)
	}
	return ctor(src, addr), nil
}

// heapDumpBody is embedded by HeapDumpRecord and HeapDumpSegment: both
// carry a body that is a flat sequence of subrecords.
type heapDumpBody struct {
	recordBase
}

// Subrecords returns a lazy iterator over this segment's subrecords.
func (h heapDumpBody) Subrecords() *SubrecordIter {
	length, err := h.Length()
	if err != nil {
		return &SubrecordIter{err: err, done: true}
	}
	bodyStart := h.addr + 9
	bodyEnd := h.addr + length
	return &SubrecordIter{src: h.src, bodyStart: bodyStart, bodyEnd: bodyEnd, next: bodyStart}
}

// HeapDumpRecord is a HPROF_HEAP_DUMP (0x0C) top-level record: an
// entire heap dump captured in one record, pre-1.0.2 style.
type HeapDumpRecord struct {
	heapDumpBody
}

func (h HeapDumpRecord) String() string {
	return h.renderAs("HeapDumpRecord")
}

// HeapDumpSegment is a HPROF_HEAP_DUMP_SEGMENT (0x1C) top-level
// record: one chunk of a heap dump split across multiple records,
// terminated by a HeapDumpEnd record.
type HeapDumpSegment struct {
	heapDumpBody
}

func (h HeapDumpSegment) String() string {
	return h.renderAs("HeapDumpSegment")
}

// HeapDumpEnd is a HPROF_HEAP_DUMP_END (0x2C) marker record: it closes
// the run of HeapDumpSegment records that preceded it and carries no
// payload of its own.
type HeapDumpEnd struct {
	recordBase
}

func (h HeapDumpEnd) String() string {
	return h.renderAs("HeapDumpEnd")
}

func init() {
	registerRecord(tag.HeapDump, func(src *Source, addr int) Record {
		return HeapDumpRecord{heapDumpBody{recordBase{src, addr}}}
	})
	registerRecord(tag.HeapDumpSegment, func(src *Source, addr int) Record {
		return HeapDumpSegment{heapDumpBody{recordBase{src, addr}}}
	})
	registerRecord(tag.HeapDumpEnd, func(src *Source, addr int) Record {
		return HeapDumpEnd{recordBase{src, addr}}
	})
}

// SubrecordIter is a lazy iterator over a heap-dump segment's
// subrecords. It must not outlive its Source.
type SubrecordIter struct {
	src                *Source
	bodyStart, bodyEnd int
	next               int
	cur                HeapRecord
	err                error
	done               bool
}

// Next advances the iterator and reports whether a subrecord is
// available via Record(). It returns false at end of segment or after
// the first error, which is then retrievable via Err().
func (it *SubrecordIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.next >= it.bodyEnd {
		it.done = true
		return false
	}
	rec, err := dispatchSubrecord(it.src, it.next)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	length, err := rec.Length()
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	if it.next+length > it.bodyEnd {
		it.err = formatError(
			"subrecord ends at 0x%x, dump segment ends at 0x%x",
			it.next+length, it.bodyEnd)
		it.done = true
		return false
	}
	it.cur = rec
	it.next += length
	return true
}

// Record returns the subrecord produced by the most recent call to Next.
func (it *SubrecordIter) Record() HeapRecord {
	return it.cur
}

// Err returns the error, if any, that ended iteration.
func (it *SubrecordIter) Err() error {
	return it.err
}
