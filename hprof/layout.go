package hprof

// width is a layout slot's declared size. A non-negative value is a
// fixed byte count; idWidth is a sentinel resolved against a file's
// idsize at layout-resolution time.
type width int

const idWidth width = -1

// slot is one named, sized field in a layout.
type slot struct {
	name string
	w    width
}

// layout is an ordered sequence of named slots forming a record or
// subrecord body. It has no knowledge of idsize until resolved; the
// same layout value is reused across files with different idsize.
type layout struct {
	base  int
	slots []slot
}

// newLayout builds a layout whose first slot sits at byte offset base
// (1 to skip a subrecord tag, 9 to skip the top-level record prelude).
func newLayout(base int, slots ...slot) layout {
	return layout{base: base, slots: slots}
}

func fixed(name string, n int) slot {
	return slot{name: name, w: width(n)}
}

func id(name string) slot {
	return slot{name: name, w: idWidth}
}

func (w width) resolve(idsize int) int {
	if w == idWidth {
		return idsize
	}
	return int(w)
}

// offset returns the absolute offset of the named slot, relative to
// the layout's addr. Panics if the name is absent: layouts are
// constructed once, internally, from literal slot names, so an absent
// name is a programming error, not a runtime input error.
func (l layout) offset(addr int, idsize int, name string) int {
	pos := addr + l.base
	for _, s := range l.slots {
		if s.name == name {
			return pos
		}
		pos += s.w.resolve(idsize)
	}
	panic("hprof: unknown layout slot " + name)
}

// size returns the total resolved width of the layout's fixed slots,
// i.e. the body length up to (but not including) any variable-length
// tail the caller appends manually.
func (l layout) size(idsize int) int {
	total := 0
	for _, s := range l.slots {
		total += s.w.resolve(idsize)
	}
	return total
}
