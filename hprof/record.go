package hprof

import (
	"fmt"
	"strings"
	"time"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

// Record is the common façade contract satisfied by every top-level
// HPROF record variant, including Unhandled.
type Record interface {
	Tag() tag.Record
	Address() int
	Length() (int, error)
	Timestamp() (time.Time, error)
	RelativeTimestamp() (time.Duration, error)
	Body() ([]byte, error)
	// ID returns the record's id, for the variants that carry one.
	// Variants without one return an error whose message contains "id".
	ID() (tag.ID, error)
	String() string
}

// recordBase is the (source, address) pair every record variant
// embeds. It is a value type: two recordBase values are equal exactly
// when they share source, address, and (by construction) variant.
type recordBase struct {
	src  *Source
	addr int
}

func (r recordBase) Address() int {
	return r.addr
}

func (r recordBase) Tag() tag.Record {
	b, err := r.src.Byte(r.addr)
	if err != nil {
		return 0
	}
	return tag.Record(b)
}

func (r recordBase) Length() (int, error) {
	n, err := r.src.Uint32(r.addr + 5)
	if err != nil {
		return 0, err
	}
	return 9 + int(n), nil
}

func (r recordBase) RelativeTimestamp() (time.Duration, error) {
	us, err := r.src.Uint32(r.addr + 1)
	if err != nil {
		return 0, err
	}
	return time.Duration(us) * time.Microsecond, nil
}

func (r recordBase) Timestamp() (time.Time, error) {
	rel, err := r.RelativeTimestamp()
	if err != nil {
		return time.Time{}, err
	}
	return r.src.StartTime().Add(rel), nil
}

func (r recordBase) Body() ([]byte, error) {
	length, err := r.Length()
	if err != nil {
		return nil, err
	}
	return r.src.Bytes(r.addr+9, length-9)
}

// ID is the default implementation shared by every variant that does
// not carry an id of its own; StringRecord overrides it.
func (r recordBase) ID() (tag.ID, error) {
	return 0, noIDError(r.Tag().String())
}

func (r recordBase) renderAs(typeName string) string {
	body, err := r.Body()
	if err != nil {
		return fmt.Sprintf("%s( <%s> )", typeName, err)
	}
	return fmt.Sprintf("%s( %s )", typeName, hexPreview(body))
}

// hexPreview renders body as space-separated 4-byte hex words,
// capped at the first 32 bytes with a trailing ellipsis if longer.
func hexPreview(body []byte) string {
	shown := body
	truncated := len(body) > 32
	if truncated {
		shown = body[:32]
	}
	words := make([]string, 0, (len(shown)+3)/4)
	for i := 0; i < len(shown); i += 4 {
		end := i + 4
		if end > len(shown) {
			end = len(shown)
		}
		words = append(words, fmt.Sprintf("%x", shown[i:end]))
	}
	out := strings.Join(words, " ")
	if truncated {
		out += " ..."
	}
	return out
}

// Unhandled is surfaced for any top-level tag outside the closed set
// this package names. It still satisfies the full Record contract.
type Unhandled struct {
	recordBase
}

func (u Unhandled) String() string {
	return u.renderAs("Unhandled")
}

var stringLayout = newLayout(9, id("id"))

// StringRecord names a UTF-8 string constant, referenced elsewhere by
// its id.
type StringRecord struct {
	recordBase
}

func (s StringRecord) ID() (tag.ID, error) {
	v, err := s.src.ID(stringLayout.offset(s.addr, s.src.idsize, "id"))
	return tag.ID(v), err
}

// Content returns the string's modified UTF-8 body, decoded as UTF-8.
func (s StringRecord) Content() (string, error) {
	length, err := s.Length()
	if err != nil {
		return "", err
	}
	contentStart := stringLayout.offset(s.addr, s.src.idsize, "id") + s.src.idsize
	n := s.addr + length - contentStart
	return s.src.Utf8(contentStart, n)
}

func (s StringRecord) String() string {
	return s.renderAs("StringRecord")
}

var loadClassLayout = newLayout(9,
	fixed("serial", 4),
	id("classobj"),
	fixed("stacktrace", 4),
	id("classname"),
)

// LoadClassRecord announces a loaded class: its serial number, object
// id, the stack trace at load time, and the id of its name string.
type LoadClassRecord struct {
	recordBase
}

func (l LoadClassRecord) ClassSerialNumber() (tag.SerialNum, error) {
	v, err := l.src.Uint32(loadClassLayout.offset(l.addr, l.src.idsize, "serial"))
	return tag.SerialNum(v), err
}

func (l LoadClassRecord) ClassObjectID() (tag.ID, error) {
	v, err := l.src.ID(loadClassLayout.offset(l.addr, l.src.idsize, "classobj"))
	return tag.ID(v), err
}

func (l LoadClassRecord) StackTraceSerialNumber() (tag.SerialNum, error) {
	v, err := l.src.Uint32(loadClassLayout.offset(l.addr, l.src.idsize, "stacktrace"))
	return tag.SerialNum(v), err
}

func (l LoadClassRecord) ClassNameID() (tag.ID, error) {
	v, err := l.src.ID(loadClassLayout.offset(l.addr, l.src.idsize, "classname"))
	return tag.ID(v), err
}

func (l LoadClassRecord) String() string {
	return l.renderAs("LoadClassRecord")
}

// Control-settings bit flags, as declared by the HPROF dumper.
const (
	ControlAllocTraces uint32 = 0x00000001
	ControlCPUSampling uint32 = 0x00000002
)

var controlSettingsLayout = newLayout(9, fixed("flags", 4), fixed("depth", 2))

// ControlSettingsRecord carries the dumper's allocation-tracking and
// CPU-sampling configuration at the point it was emitted.
type ControlSettingsRecord struct {
	recordBase
}

func (c ControlSettingsRecord) Flags() (uint32, error) {
	return c.src.Uint32(controlSettingsLayout.offset(c.addr, c.src.idsize, "flags"))
}

func (c ControlSettingsRecord) StackTraceDepth() (uint16, error) {
	return c.src.Ushort(controlSettingsLayout.offset(c.addr, c.src.idsize, "depth"))
}

func (c ControlSettingsRecord) String() string {
	return c.renderAs("ControlSettingsRecord")
}

// HeapDumpRecord and HeapDumpSegment are defined in heapdump.go; their
// constructors are registered into recordDispatch there via init.

type recordCtor func(src *Source, addr int) Record

var recordDispatch [256]recordCtor

func registerRecord(t tag.Record, ctor recordCtor) {
	recordDispatch[byte(t)] = ctor
}

func init() {
	registerRecord(tag.String, func(src *Source, addr int) Record {
		return StringRecord{recordBase{src, addr}}
	})
	registerRecord(tag.LoadClass, func(src *Source, addr int) Record {
		return LoadClassRecord{recordBase{src, addr}}
	})
	registerRecord(tag.ControlSettings, func(src *Source, addr int) Record {
		return ControlSettingsRecord{recordBase{src, addr}}
	})
}

// RecordAt dispatches the record at addr directly, without scanning
// from the start of the stream. addr must be the start of a record
// (typically one previously returned by Record.Address); passing an
// arbitrary offset produces undefined results. This is the O(1)
// random-access entry point spec.md's core invariant calls for: a
// caller that has already seen an address (e.g. from a prior pass, or
// from a UI that wants to jump back to a row it already rendered) need
// not re-walk the stream to get back to it.
func RecordAt(src *Source, addr int) (Record, error) {
	return dispatchRecord(src, addr)
}

func dispatchRecord(src *Source, addr int) (Record, error) {
	b, err := src.Byte(addr)
	if err != nil {
		return nil, err
	}
	if ctor := recordDispatch[b]; ctor != nil {
		return ctor(src, addr), nil
	}
	return Unhandled{recordBase{src, addr}}, nil
}

// RecordIter is a lazy, bufio.Scanner-style iterator over a Source's
// top-level records. It must not outlive its Source.
type RecordIter struct {
	src  *Source
	next int
	cur  Record
	err  error
	done bool
}

// Next advances the iterator and reports whether a record is
// available via Record(). It returns false at end of stream or after
// the first error, which is then retrievable via Err().
func (it *RecordIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.next >= it.src.len() {
		it.done = true
		return false
	}
	rec, err := dispatchRecord(it.src, it.next)
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
	if it.next+length > it.src.len() {
		it.err = formatError("record at %d declares length %d past end %d", it.next, length, it.src.len())
		it.done = true
		return false
	}
	it.cur = rec
	it.next += length
	return true
}

// Record returns the record produced by the most recent call to Next.
func (it *RecordIter) Record() Record {
	return it.cur
}

// Err returns the error, if any, that ended iteration.
func (it *RecordIter) Err() error {
	return it.err
}
