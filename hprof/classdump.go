package hprof

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

var classDumpFixedLayout = newLayout(1,
	id("objid"),
	fixed("stacktrace", 4),
	id("super"),
	id("loader"),
	id("signer"),
	id("protdom"),
	id("reserved1"),
	id("reserved2"),
	fixed("instance_size", 4),
)

// ConstPoolEntry is one slot in a class's constant pool: an index into
// the pool, a type code, and the value's raw bytes.
type ConstPoolEntry struct {
	Index uint16
	Type  tag.FieldType
	Value []byte
}

// FieldDescriptor names one static or instance field of a class.
// Static fields carry Value; instance-field descriptors only declare
// name and type.
type FieldDescriptor struct {
	NameID tag.ID
	Type   tag.FieldType
	Value  []byte // nil for instance-field descriptors
}

// ClassRecord (tag 0x20) is a class-dump subrecord: the full shape of
// a loaded class — its hierarchy, constant pool, and field tables.
type ClassRecord struct {
	subrecordBase
}

func (c ClassRecord) fixedAddr(name string) int {
	return classDumpFixedLayout.offset(c.addr, c.src.idsize, name)
}

func (c ClassRecord) ObjID() (tag.ID, error) {
	v, err := c.src.ID(c.fixedAddr("objid"))
	return tag.ID(v), err
}

func (c ClassRecord) StackTraceSerial() (tag.SerialNum, error) {
	v, err := c.src.Uint32(c.fixedAddr("stacktrace"))
	return tag.SerialNum(v), err
}

func (c ClassRecord) SuperClassID() (tag.ID, error) {
	v, err := c.src.ID(c.fixedAddr("super"))
	return tag.ID(v), err
}

func (c ClassRecord) LoaderID() (tag.ID, error) {
	v, err := c.src.ID(c.fixedAddr("loader"))
	return tag.ID(v), err
}

func (c ClassRecord) SignerID() (tag.ID, error) {
	v, err := c.src.ID(c.fixedAddr("signer"))
	return tag.ID(v), err
}

func (c ClassRecord) ProtectionDomainID() (tag.ID, error) {
	v, err := c.src.ID(c.fixedAddr("protdom"))
	return tag.ID(v), err
}

func (c ClassRecord) InstanceSize() (uint32, error) {
	return c.src.Uint32(c.fixedAddr("instance_size"))
}

// constPoolAddr is the address of the constant-pool table's u16 count.
func (c ClassRecord) constPoolAddr() int {
	return c.addr + 1 + classDumpFixedLayout.size(c.src.idsize)
}

// ConstPool returns the class's constant-pool entries.
func (c ClassRecord) ConstPool() ([]ConstPoolEntry, error) {
	addr := c.constPoolAddr()
	count, err := c.src.Ushort(addr)
	if err != nil {
		return nil, err
	}
	addr += 2
	entries := make([]ConstPoolEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		index, err := c.src.Ushort(addr)
		if err != nil {
			return nil, err
		}
		typeRaw, err := c.src.Byte(addr + 2)
		if err != nil {
			return nil, err
		}
		ft := tag.FieldType(typeRaw)
		size := ft.Size(c.src.idsize)
		if size == 0 {
			return nil, formatError("unknown primitive type 0x%02x at 0x%x", typeRaw, addr+2)
		}
		value, err := c.src.Bytes(addr+3, size)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ConstPoolEntry{Index: index, Type: ft, Value: value})
		addr += 3 + size
	}
	return entries, nil
}

func (c ClassRecord) constPoolSize() (int, error) {
	addr := c.constPoolAddr()
	count, err := c.src.Ushort(addr)
	if err != nil {
		return 0, err
	}
	total := 2
	pos := addr + 2
	for i := uint16(0); i < count; i++ {
		typeRaw, err := c.src.Byte(pos + 2)
		if err != nil {
			return 0, err
		}
		size := tag.FieldType(typeRaw).Size(c.src.idsize)
		if size == 0 {
			return 0, formatError("unknown primitive type 0x%02x at 0x%x", typeRaw, pos+2)
		}
		total += 3 + size
		pos += 3 + size
	}
	return total, nil
}

func (c ClassRecord) staticFieldsAddr() (int, error) {
	size, err := c.constPoolSize()
	if err != nil {
		return 0, err
	}
	return c.constPoolAddr() + size, nil
}

// StaticFields returns the class's static field table, with values.
func (c ClassRecord) StaticFields() ([]FieldDescriptor, error) {
	addr, err := c.staticFieldsAddr()
	if err != nil {
		return nil, err
	}
	return c.readFieldTable(addr, true)
}

func (c ClassRecord) staticFieldsSize() (int, error) {
	addr, err := c.staticFieldsAddr()
	if err != nil {
		return 0, err
	}
	return c.fieldTableSize(addr, true)
}

func (c ClassRecord) instanceFieldsAddr() (int, error) {
	addr, err := c.staticFieldsAddr()
	if err != nil {
		return 0, err
	}
	size, err := c.staticFieldsSize()
	if err != nil {
		return 0, err
	}
	return addr + size, nil
}

// InstanceFields returns the class's instance-field descriptors (name
// and type only; instance data lives in each ObjectRecord).
func (c ClassRecord) InstanceFields() ([]FieldDescriptor, error) {
	addr, err := c.instanceFieldsAddr()
	if err != nil {
		return nil, err
	}
	return c.readFieldTable(addr, false)
}

func (c ClassRecord) instanceFieldsSize() (int, error) {
	addr, err := c.instanceFieldsAddr()
	if err != nil {
		return 0, err
	}
	return c.fieldTableSize(addr, false)
}

func (c ClassRecord) readFieldTable(addr int, withValue bool) ([]FieldDescriptor, error) {
	count, err := c.src.Ushort(addr)
	if err != nil {
		return nil, err
	}
	pos := addr + 2
	fields := make([]FieldDescriptor, 0, count)
	for i := uint16(0); i < count; i++ {
		nameID, err := c.src.ID(pos)
		if err != nil {
			return nil, err
		}
		typeRaw, err := c.src.Byte(pos + c.src.idsize)
		if err != nil {
			return nil, err
		}
		ft := tag.FieldType(typeRaw)
		size := ft.Size(c.src.idsize)
		if size == 0 {
			return nil, formatError("unknown primitive type 0x%02x at 0x%x", typeRaw, pos+c.src.idsize)
		}
		fd := FieldDescriptor{NameID: tag.ID(nameID), Type: ft}
		pos += c.src.idsize + 1
		if withValue {
			value, err := c.src.Bytes(pos, size)
			if err != nil {
				return nil, err
			}
			fd.Value = value
			pos += size
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

func (c ClassRecord) fieldTableSize(addr int, withValue bool) (int, error) {
	count, err := c.src.Ushort(addr)
	if err != nil {
		return 0, err
	}
	total := 2
	pos := addr + 2
	for i := uint16(0); i < count; i++ {
		typeRaw, err := c.src.Byte(pos + c.src.idsize)
		if err != nil {
			return 0, err
		}
		entrySize := c.src.idsize + 1
		if withValue {
			size := tag.FieldType(typeRaw).Size(c.src.idsize)
			if size == 0 {
				return 0, formatError("unknown primitive type 0x%02x at 0x%x", typeRaw, pos+c.src.idsize)
			}
			entrySize += size
		}
		total += entrySize
		pos += entrySize
	}
	return total, nil
}

// Length computes the class dump's total length: the fixed prelude
// plus the constant-pool, static-field, and instance-field tables.
func (c ClassRecord) Length() (int, error) {
	fixed := classDumpFixedLayout.size(c.src.idsize)
	poolSize, err := c.constPoolSize()
	if err != nil {
		return 0, err
	}
	staticSize, err := c.staticFieldsSize()
	if err != nil {
		return 0, err
	}
	instanceSize, err := c.instanceFieldsSize()
	if err != nil {
		return 0, err
	}
	return 1 + fixed + poolSize + staticSize + instanceSize, nil
}

func (c ClassRecord) String() string {
	objid, err := c.ObjID()
	if err != nil {
		return fmt.Sprintf("ClassRecord( <%s> )", err)
	}
	return fmt.Sprintf("ClassRecord(objid=0x%x)", uint64(objid))
}

func init() {
	registerSubrecord(tag.GCClassDump, func(src *Source, addr int) HeapRecord {
		return ClassRecord{subrecordBase{src, addr}}
	})
}
