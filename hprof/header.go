package hprof

import (
	"strings"
	"time"
)

const magicPrefix = "JAVA PROFILE 1.0."

// header is the fixed preamble of an HPROF file: the ASCII magic, the
// file-global identifier size, and the dump's start time.
type header struct {
	version   string
	idsize    int
	starttime time.Time
	bodyStart int
}

// parseHeader reads the header from the start of w and returns it
// along with the byte offset where the top-level record stream begins.
func parseHeader(w byteWindow) (header, error) {
	magic, err := w.asciiTerminated(0)
	if err != nil {
		return header{}, formatError("bad header")
	}
	if !strings.HasPrefix(magic, magicPrefix) {
		return header{}, formatError("bad header")
	}
	suffix := magic[len(magicPrefix):]
	if len(suffix) != 1 || !strings.ContainsRune("123", rune(suffix[0])) {
		return header{}, formatError("bad version")
	}

	pos := len(magic) + 1 // skip the NUL terminator

	idsizeRaw, err := w.uint32(pos)
	if err != nil {
		return header{}, formatError("bad header")
	}
	idsize := int(idsizeRaw)
	if idsize != 4 && idsize != 8 {
		return header{}, formatError("bad idsize %d", idsize)
	}
	pos += 4

	tsHi, err := w.uint32(pos)
	if err != nil {
		return header{}, formatError("bad header")
	}
	tsLo, err := w.uint32(pos + 4)
	if err != nil {
		return header{}, formatError("bad header")
	}
	pos += 8

	ms := int64(tsHi)<<32 | int64(tsLo)

	return header{
		version:   magic,
		idsize:    idsize,
		starttime: time.UnixMilli(ms).UTC(),
		bodyStart: pos,
	}, nil
}
