package hprof

import (
	"fmt"

	"github.com/mabhi256/hprofdump/hprof/tag"
)

var heapDumpInfoLayout = newLayout(1, fixed("type", 4), id("name"))

// HeapDumpInfo (tag 0xFE) annotates the heap regions that follow with
// a classifying type code and the id of a name string (typically a
// generation or space name, e.g. "old-gen").
type HeapDumpInfo struct {
	subrecordBase
}

func (h HeapDumpInfo) Type() (uint32, error) {
	return h.src.Uint32(heapDumpInfoLayout.offset(h.addr, h.src.idsize, "type"))
}

func (h HeapDumpInfo) NameID() (tag.ID, error) {
	v, err := h.src.ID(heapDumpInfoLayout.offset(h.addr, h.src.idsize, "name"))
	return tag.ID(v), err
}

func (h HeapDumpInfo) Length() (int, error) {
	return 5 + h.src.idsize, nil
}

func (h HeapDumpInfo) String() string {
	t, err := h.Type()
	if err != nil {
		return fmt.Sprintf("HeapDumpInfo( <%s> )", err)
	}
	return fmt.Sprintf("HeapDumpInfo(type=0x%x)", t)
}

func init() {
	registerSubrecord(tag.GCHeapDumpInfo, func(src *Source, addr int) HeapRecord {
		return HeapDumpInfo{subrecordBase{src, addr}}
	})
}
