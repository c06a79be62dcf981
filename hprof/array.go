package hprof

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

var objectArrayLayout = newLayout(1,
	id("objid"),
	fixed("stacktrace", 4),
	fixed("count", 4),
	id("elem_cls"),
)

// ObjectArray (tag 0x22) is an array-of-references dump: each element
// is itself an object id, possibly 0 (null).
type ObjectArray struct {
	subrecordBase
}

func (a ObjectArray) ObjID() (tag.ID, error) {
	v, err := a.src.ID(objectArrayLayout.offset(a.addr, a.src.idsize, "objid"))
	return tag.ID(v), err
}

func (a ObjectArray) StackTraceSerial() (tag.SerialNum, error) {
	v, err := a.src.Uint32(objectArrayLayout.offset(a.addr, a.src.idsize, "stacktrace"))
	return tag.SerialNum(v), err
}

func (a ObjectArray) Count() (uint32, error) {
	return a.src.Uint32(objectArrayLayout.offset(a.addr, a.src.idsize, "count"))
}

func (a ObjectArray) ElementClassID() (tag.ID, error) {
	v, err := a.src.ID(objectArrayLayout.offset(a.addr, a.src.idsize, "elem_cls"))
	return tag.ID(v), err
}

// Element returns the object id of the i-th element.
func (a ObjectArray) Element(i int) (tag.ID, error) {
	base := a.addr + 1 + objectArrayLayout.size(a.src.idsize)
	v, err := a.src.ID(base + i*a.src.idsize)
	return tag.ID(v), err
}

func (a ObjectArray) Length() (int, error) {
	count, err := a.Count()
	if err != nil {
		return 0, err
	}
	return 9 + 2*a.src.idsize + int(count)*a.src.idsize, nil
}

func (a ObjectArray) String() string {
	objid, err := a.ObjID()
	if err != nil {
		return fmt.Sprintf("ObjectArray( <%s> )", err)
	}
	return fmt.Sprintf("ObjectArray(objid=0x%x)", uint64(objid))
}

var primitiveArrayLayout = newLayout(1,
	id("objid"),
	fixed("stacktrace", 4),
	fixed("count", 4),
	fixed("type", 1),
)

// PrimitiveArray (tag 0x23) is a primitive-element array dump: its raw
// element bytes, to be interpreted per its element Type.
type PrimitiveArray struct {
	subrecordBase
}

func (a PrimitiveArray) ObjID() (tag.ID, error) {
	v, err := a.src.ID(primitiveArrayLayout.offset(a.addr, a.src.idsize, "objid"))
	return tag.ID(v), err
}

func (a PrimitiveArray) StackTraceSerial() (tag.SerialNum, error) {
	v, err := a.src.Uint32(primitiveArrayLayout.offset(a.addr, a.src.idsize, "stacktrace"))
	return tag.SerialNum(v), err
}

func (a PrimitiveArray) Count() (uint32, error) {
	return a.src.Uint32(primitiveArrayLayout.offset(a.addr, a.src.idsize, "count"))
}

func (a PrimitiveArray) Type() (tag.FieldType, error) {
	v, err := a.src.Byte(primitiveArrayLayout.offset(a.addr, a.src.idsize, "type"))
	return tag.FieldType(v), err
}

// Elements returns the array's raw element bytes.
func (a PrimitiveArray) Elements() ([]byte, error) {
	count, err := a.Count()
	if err != nil {
		return nil, err
	}
	elemType, err := a.Type()
	if err != nil {
		return nil, err
	}
	elemSize := elemType.Size(a.src.idsize)
	if elemSize == 0 {
		return nil, formatError("unknown primitive array element type 0x%02x at 0x%x", byte(elemType), a.addr)
	}
	base := a.addr + 1 + primitiveArrayLayout.size(a.src.idsize)
	return a.src.Bytes(base, int(count)*elemSize)
}

func (a PrimitiveArray) Length() (int, error) {
	count, err := a.Count()
	if err != nil {
		return 0, err
	}
	elemType, err := a.Type()
	if err != nil {
		return 0, err
	}
	elemSize := elemType.Size(a.src.idsize)
	if elemSize == 0 {
		return 0, formatError("unknown primitive array element type 0x%02x at 0x%x", byte(elemType), a.addr)
	}
	return 10 + a.src.idsize + int(count)*elemSize, nil
}

func (a PrimitiveArray) String() string {
	objid, err := a.ObjID()
	if err != nil {
		return fmt.Sprintf("PrimitiveArray( <%s> )", err)
	}
	return fmt.Sprintf("PrimitiveArray(objid=0x%x)", uint64(objid))
}

func init() {
	registerSubrecord(tag.GCObjArrayDump, func(src *Source, addr int) HeapRecord {
		return ObjectArray{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCPrimArrayDump, func(src *Source, addr int) HeapRecord {
		return PrimitiveArray{subrecordBase{src, addr}}
	})
}
