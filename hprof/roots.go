package hprof

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

var (
	unknownRootLayout    = newLayout(1, id("objid"))
	globalJniRootLayout  = newLayout(1, id("objid"), id("grefid"))
	localJniRootLayout   = newLayout(1, id("objid"), fixed("thread_serial", 4), fixed("frame_index", 4))
	javaStackRootLayout  = localJniRootLayout
	nativeStackLayout    = newLayout(1, id("objid"), fixed("thread_serial", 4))
	stickyClassLayout    = unknownRootLayout
	threadRootLayout     = newLayout(1, id("objid"), fixed("thread_serial", 4), fixed("stacktrace_serial", 4))
	internedStringLayout = unknownRootLayout
	vmInternalLayout     = unknownRootLayout
)

// UnknownRoot (tag 0xFF) is a GC root of unknown kind: the dumper
// could not classify why the referenced object is alive.
type UnknownRoot struct {
	subrecordBase
}

func (r UnknownRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(unknownRootLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r UnknownRoot) Length() (int, error) {
	return 1 + r.src.idsize, nil
}

func (r UnknownRoot) String() string {
	return rootString("UnknownRoot", r.ObjID, nil)
}

// GlobalJniRoot (tag 0x01) is a GC root held by a JNI global reference.
type GlobalJniRoot struct {
	subrecordBase
}

func (r GlobalJniRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(globalJniRootLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r GlobalJniRoot) GrefID() (tag.ID, error) {
	v, err := r.src.ID(globalJniRootLayout.offset(r.addr, r.src.idsize, "grefid"))
	return tag.ID(v), err
}

// ID is the JNI global reference id, not the referenced object's id;
// GlobalJniRoot is the one root variant whose generic id is not its ObjID.
func (r GlobalJniRoot) ID() (tag.ID, error) {
	return r.GrefID()
}

func (r GlobalJniRoot) Length() (int, error) {
	return 1 + 2*r.src.idsize, nil
}

func (r GlobalJniRoot) String() string {
	objid, err := r.ObjID()
	if err != nil {
		return fmt.Sprintf("GlobalJniRoot( <%s> )", err)
	}
	grefid, err := r.GrefID()
	if err != nil {
		return fmt.Sprintf("GlobalJniRoot( <%s> )", err)
	}
	return fmt.Sprintf("GlobalJniRoot(objid=0x%x, grefid=0x%x)", uint64(objid), uint64(grefid))
}

// LocalJniRoot (tag 0x02) is a GC root held by a JNI local reference
// in a specific thread's native stack frame.
type LocalJniRoot struct {
	subrecordBase
}

func (r LocalJniRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(localJniRootLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r LocalJniRoot) ThreadSerial() (tag.SerialNum, error) {
	v, err := r.src.Uint32(localJniRootLayout.offset(r.addr, r.src.idsize, "thread_serial"))
	return tag.SerialNum(v), err
}

func (r LocalJniRoot) FrameIndex() (int32, error) {
	return r.src.Int32(localJniRootLayout.offset(r.addr, r.src.idsize, "frame_index"))
}

func (r LocalJniRoot) Length() (int, error) {
	return 9 + r.src.idsize, nil
}

func (r LocalJniRoot) String() string {
	return rootString("LocalJniRoot", r.ObjID, r.ThreadSerial)
}

// JavaStackRoot (tag 0x03) is a GC root held by a local variable in a
// Java stack frame.
type JavaStackRoot struct {
	subrecordBase
}

func (r JavaStackRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(javaStackRootLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r JavaStackRoot) ThreadSerial() (tag.SerialNum, error) {
	v, err := r.src.Uint32(javaStackRootLayout.offset(r.addr, r.src.idsize, "thread_serial"))
	return tag.SerialNum(v), err
}

func (r JavaStackRoot) FrameIndex() (int32, error) {
	return r.src.Int32(javaStackRootLayout.offset(r.addr, r.src.idsize, "frame_index"))
}

func (r JavaStackRoot) Length() (int, error) {
	return 9 + r.src.idsize, nil
}

func (r JavaStackRoot) String() string {
	return rootString("JavaStackRoot", r.ObjID, r.ThreadSerial)
}

// NativeStackRoot (tag 0x04) is a GC root held by a native stack frame
// (JNI native code) without a specific local-reference slot.
type NativeStackRoot struct {
	subrecordBase
}

func (r NativeStackRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(nativeStackLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r NativeStackRoot) ThreadSerial() (tag.SerialNum, error) {
	v, err := r.src.Uint32(nativeStackLayout.offset(r.addr, r.src.idsize, "thread_serial"))
	return tag.SerialNum(v), err
}

func (r NativeStackRoot) Length() (int, error) {
	return 5 + r.src.idsize, nil
}

func (r NativeStackRoot) String() string {
	return rootString("NativeStackRoot", r.ObjID, r.ThreadSerial)
}

// StickyClassRoot (tag 0x05) is a GC root held because the referenced
// class is "sticky" (never unloaded, e.g. a system class).
type StickyClassRoot struct {
	subrecordBase
}

func (r StickyClassRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(stickyClassLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r StickyClassRoot) Length() (int, error) {
	return 1 + r.src.idsize, nil
}

func (r StickyClassRoot) String() string {
	return rootString("StickyClassRoot", r.ObjID, nil)
}

// ThreadRoot (tag 0x08) is a GC root held because the referenced
// object is itself a live Thread object.
type ThreadRoot struct {
	subrecordBase
}

func (r ThreadRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(threadRootLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r ThreadRoot) ThreadSerial() (tag.SerialNum, error) {
	v, err := r.src.Uint32(threadRootLayout.offset(r.addr, r.src.idsize, "thread_serial"))
	return tag.SerialNum(v), err
}

func (r ThreadRoot) StackTraceSerial() (tag.SerialNum, error) {
	v, err := r.src.Uint32(threadRootLayout.offset(r.addr, r.src.idsize, "stacktrace_serial"))
	return tag.SerialNum(v), err
}

func (r ThreadRoot) Length() (int, error) {
	return 9 + r.src.idsize, nil
}

func (r ThreadRoot) String() string {
	return rootString("ThreadRoot", r.ObjID, r.ThreadSerial)
}

// InternedStringRoot (tag 0x89) is a GC root held because the
// referenced object is an interned String.
type InternedStringRoot struct {
	subrecordBase
}

func (r InternedStringRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(internedStringLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r InternedStringRoot) Length() (int, error) {
	return 1 + r.src.idsize, nil
}

func (r InternedStringRoot) String() string {
	return rootString("InternedStringRoot", r.ObjID, nil)
}

// VmInternalRoot (tag 0x8D) is a GC root held by the JVM itself for
// internal bookkeeping.
type VmInternalRoot struct {
	subrecordBase
}

func (r VmInternalRoot) ObjID() (tag.ID, error) {
	v, err := r.src.ID(vmInternalLayout.offset(r.addr, r.src.idsize, "objid"))
	return tag.ID(v), err
}

func (r VmInternalRoot) Length() (int, error) {
	return 1 + r.src.idsize, nil
}

func (r VmInternalRoot) String() string {
	return rootString("VmInternalRoot", r.ObjID, nil)
}

// rootString renders the common "Name(objid=0x…)" form, optionally
// appending ", from thread <serial>" when threadSerial is non-nil.
func rootString(name string, objID func() (tag.ID, error), threadSerial func() (tag.SerialNum, error)) string {
	id, err := objID()
	if err != nil {
		return fmt.Sprintf("%s( <%s> )", name, err)
	}
	if threadSerial == nil {
		return fmt.Sprintf("%s(objid=0x%x)", name, uint64(id))
	}
	serial, err := threadSerial()
	if err != nil {
		return fmt.Sprintf("%s( <%s> )", name, err)
	}
	return fmt.Sprintf("%s(objid=0x%x, from thread %d)", name, uint64(id), uint32(serial))
}

func init() {
	registerSubrecord(tag.GCRootUnknown, func(src *Source, addr int) HeapRecord {
		return UnknownRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootJNIGlobal, func(src *Source, addr int) HeapRecord {
		return GlobalJniRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootJNILocal, func(src *Source, addr int) HeapRecord {
		return LocalJniRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootJavaFrame, func(src *Source, addr int) HeapRecord {
		return JavaStackRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootNativeStack, func(src *Source, addr int) HeapRecord {
		return NativeStackRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootStickyClass, func(src *Source, addr int) HeapRecord {
		return StickyClassRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootThreadObject, func(src *Source, addr int) HeapRecord {
		return ThreadRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootInternedString, func(src *Source, addr int) HeapRecord {
		return InternedStringRoot{subrecordBase{src, addr}}
	})
	registerSubrecord(tag.GCRootVMInternal, func(src *Source, addr int) HeapRecord {
		return VmInternalRoot{subrecordBase{src, addr}}
	})
}
