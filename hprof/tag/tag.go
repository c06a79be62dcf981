// Package tag holds the closed tag enumerations used to dispatch HPROF
// records and heap-dump subrecords to their façade type.
package tag

import "fmt"

// ID is an HPROF object identifier. Its width on the wire (4 or 8 bytes)
// is a file-global property (Source.IDSize), not encoded in the type.
type ID uint64

// SerialNum is a u4 serial number (thread, stack trace, class, ...).
type SerialNum uint32

// Record identifies a top-level HPROF record by its leading tag byte.
type Record byte

const (
	String            Record = 0x01
	LoadClass         Record = 0x02
	UnloadClass       Record = 0x03
	StackFrame        Record = 0x04
	StackTrace        Record = 0x05
	AllocSites        Record = 0x06
	HeapSummary       Record = 0x07
	StartThread       Record = 0x0A
	EndThread         Record = 0x0B
	HeapDump          Record = 0x0C
	CPUSamples        Record = 0x0D
	ControlSettings   Record = 0x0E
	HeapDumpSegment   Record = 0x1C
	HeapDumpEnd       Record = 0x2C
)

func (t Record) String() string {
	switch t {
	case String:
		return "STRING"
	case LoadClass:
		return "LOAD_CLASS"
	case UnloadClass:
		return "UNLOAD_CLASS"
	case StackFrame:
		return "STACK_FRAME"
	case StackTrace:
		return "STACK_TRACE"
	case AllocSites:
		return "ALLOC_SITES"
	case HeapSummary:
		return "HEAP_SUMMARY"
	case StartThread:
		return "START_THREAD"
	case EndThread:
		return "END_THREAD"
	case HeapDump:
		return "HEAP_DUMP"
	case CPUSamples:
		return "CPU_SAMPLES"
	case ControlSettings:
		return "CONTROL_SETTINGS"
	case HeapDumpSegment:
		return "HEAP_DUMP_SEGMENT"
	case HeapDumpEnd:
		return "HEAP_DUMP_END"
	default:
		return fmt.Sprintf("Record(0x%02x)", byte(t))
	}
}

// Subrecord identifies a heap-dump subrecord by its leading tag byte.
// Unlike Record, this set is truly closed: a tag outside it is a
// FormatError, because a subrecord's length cannot be recovered without
// knowing its variant.
type Subrecord byte

const (
	GCRootUnknown        Subrecord = 0xFF
	GCRootJNIGlobal      Subrecord = 0x01
	GCRootJNILocal       Subrecord = 0x02
	GCRootJavaFrame      Subrecord = 0x03
	GCRootNativeStack    Subrecord = 0x04
	GCRootStickyClass    Subrecord = 0x05
	GCRootThreadObject   Subrecord = 0x08
	GCRootInternedString Subrecord = 0x89
	GCRootVMInternal     Subrecord = 0x8D
	GCClassDump          Subrecord = 0x20
	GCInstanceDump       Subrecord = 0x21
	GCObjArrayDump       Subrecord = 0x22
	GCPrimArrayDump      Subrecord = 0x23
	GCHeapDumpInfo       Subrecord = 0xFE
)

func (t Subrecord) String() string {
	switch t {
	case GCRootUnknown:
		return "GC_ROOT_UNKNOWN"
	case GCRootJNIGlobal:
		return "GC_ROOT_JNI_GLOBAL"
	case GCRootJNILocal:
		return "GC_ROOT_JNI_LOCAL"
	case GCRootJavaFrame:
		return "GC_ROOT_JAVA_FRAME"
	case GCRootNativeStack:
		return "GC_ROOT_NATIVE_STACK"
	case GCRootStickyClass:
		return "GC_ROOT_STICKY_CLASS"
	case GCRootThreadObject:
		return "GC_ROOT_THREAD_OBJ"
	case GCRootInternedString:
		return "GC_ROOT_INTERNED_STRING"
	case GCRootVMInternal:
		return "GC_ROOT_VM_INTERNAL"
	case GCClassDump:
		return "GC_CLASS_DUMP"
	case GCInstanceDump:
		return "GC_INSTANCE_DUMP"
	case GCObjArrayDump:
		return "GC_OBJ_ARRAY_DUMP"
	case GCPrimArrayDump:
		return "GC_PRIM_ARRAY_DUMP"
	case GCHeapDumpInfo:
		return "GC_HEAP_DUMP_INFO"
	default:
		return fmt.Sprintf("Subrecord(0x%02x)", byte(t))
	}
}

// FieldType is a Java primitive (or object/array) type code, as used in
// class-dump field tables and primitive array element types.
type FieldType byte

const (
	ArrayObject  FieldType = 0x01
	NormalObject FieldType = 0x02
	Boolean      FieldType = 0x04
	Char         FieldType = 0x05
	Float        FieldType = 0x06
	Double       FieldType = 0x07
	Byte         FieldType = 0x08
	Short        FieldType = 0x09
	Int          FieldType = 0x0A
	Long         FieldType = 0x0B
)

// Size returns the wire width of a value of this type, given the file's
// identifier size. It returns 0 for an unrecognised type code.
func (t FieldType) Size(idsize int) int {
	switch t {
	case Boolean, Byte:
		return 1
	case Char, Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	case NormalObject, ArrayObject:
		return idsize
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case ArrayObject:
		return "array"
	case NormalObject:
		return "object"
	case Boolean:
		return "boolean"
	case Char:
		return "char"
	case Float:
		return "float"
	case Double:
		return "double"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	default:
		return fmt.Sprintf("FieldType(0x%02x)", byte(t))
	}
}
