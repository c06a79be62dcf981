package hprof

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

var objectRecordLayout = newLayout(1,
	id("objid"),
	fixed("stacktrace", 4),
	id("clsid"),
	fixed("size", 4),
)

// ObjectRecord (tag 0x21) is an instance dump: an object's identity,
// class, and its raw field data as laid out by its class's instance
// field table.
type ObjectRecord struct {
	subrecordBase
}

func (o ObjectRecord) ObjID() (tag.ID, error) {
	v, err := o.src.ID(objectRecordLayout.offset(o.addr, o.src.idsize, "objid"))
	return tag.ID(v), err
}

func (o ObjectRecord) StackTraceSerial() (tag.SerialNum, error) {
	v, err := o.src.Uint32(objectRecordLayout.offset(o.addr, o.src.idsize, "stacktrace"))
	return tag.SerialNum(v), err
}

func (o ObjectRecord) ClassID() (tag.ID, error) {
	v, err := o.src.ID(objectRecordLayout.offset(o.addr, o.src.idsize, "clsid"))
	return tag.ID(v), err
}

func (o ObjectRecord) DataSize() (uint32, error) {
	return o.src.Uint32(objectRecordLayout.offset(o.addr, o.src.idsize, "size"))
}

// Data returns the object's raw field bytes, to be interpreted against
// its class's instance field table.
func (o ObjectRecord) Data() ([]byte, error) {
	size, err := o.DataSize()
	if err != nil {
		return nil, err
	}
	dataAddr := o.addr + 1 + objectRecordLayout.size(o.src.idsize)
	return o.src.Bytes(dataAddr, int(size))
}

func (o ObjectRecord) Length() (int, error) {
	size, err := o.DataSize()
	if err != nil {
		return 0, err
	}
	return 9 + 2*o.src.idsize + int(size), nil
}

func (o ObjectRecord) String() string {
	objid, err := o.ObjID()
	if err != nil {
		return fmt.Sprintf("ObjectRecord( <%s> )", err)
	}
	return fmt.Sprintf("ObjectRecord(objid=0x%x)", uint64(objid))
}

func init() {
	registerSubrecord(tag.GCInstanceDump, func(src *Source, addr int) HeapRecord {
		return ObjectRecord{subrecordBase{src, addr}}
	})
}
