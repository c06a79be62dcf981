package hprof

import (
	"os"
	"sync/atomic"
	"time"
)

// Source is the immutable byte window over an HPROF file, plus the
// header-derived constants every façade resolves its fields against.
// A Source is safe for concurrent use by multiple readers: it never
// mutates after open.
type Source struct {
	win       byteWindow
	idsize    int
	starttime time.Time
	bodyStart int
	closed    atomic.Bool
}

// OpenFile reads the named file fully into memory and parses its
// header. The returned Source owns the buffer the file was read into
// and retains it for its own lifetime.
func OpenFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// OpenBytes wraps an in-memory byte slice as a Source. The slice must
// not be modified for as long as the Source (or any façade derived
// from it) is in use.
func OpenBytes(data []byte) (*Source, error) {
	win := newByteWindow(data)
	hdr, err := parseHeader(win)
	if err != nil {
		return nil, err
	}
	return &Source{
		win:       win,
		idsize:    hdr.idsize,
		starttime: hdr.starttime,
		bodyStart: hdr.bodyStart,
	}, nil
}

// IDSize returns the file's object-identifier width: 4 or 8.
func (s *Source) IDSize() int {
	return s.idsize
}

// StartTime returns the absolute instant, millisecond precision, at
// which the dump began.
func (s *Source) StartTime() time.Time {
	return s.starttime
}

// Close marks the source closed. Subsequent reads through this Source
// or any façade derived from it return an Unsupported error instead of
// touching the underlying bytes.
func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Source) checkOpen() error {
	if s.closed.Load() {
		return closedError()
	}
	return nil
}

func (s *Source) len() int {
	return s.win.len()
}

// Len returns the total byte length of the underlying window, i.e. the
// file size. It is exact and available without touching any record.
func (s *Source) Len() int {
	return s.win.len()
}

// Byte reads a single byte at addr.
func (s *Source) Byte(addr int) (byte, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.win.byte(addr)
}

// Bytes reads n bytes starting at addr.
func (s *Source) Bytes(addr, n int) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.win.bytes(addr, n)
}

// Uint32 reads a big-endian u32 at addr.
func (s *Source) Uint32(addr int) (uint32, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.win.uint32(addr)
}

// Int32 reads a big-endian, two's-complement i32 at addr.
func (s *Source) Int32(addr int) (int32, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.win.int32(addr)
}

// Ushort reads a big-endian u16 at addr.
func (s *Source) Ushort(addr int) (uint16, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.win.ushort(addr)
}

// ID reads an object identifier at addr, idsize bytes wide.
func (s *Source) ID(addr int) (uint64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.win.id(addr, s.idsize)
}

// Ascii reads n bytes at addr as 7-bit ASCII.
func (s *Source) Ascii(addr, n int) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.win.ascii(addr, n)
}

// AsciiTerminated reads a NUL-terminated ASCII string starting at addr.
func (s *Source) AsciiTerminated(addr int) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.win.asciiTerminated(addr)
}

// Utf8 reads n bytes at addr as UTF-8.
func (s *Source) Utf8(addr, n int) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.win.utf8(addr, n)
}

// Records returns a lazy iterator over the file's top-level records,
// starting at the first record following the header.
func (s *Source) Records() *RecordIter {
	return &RecordIter{src: s, next: s.bodyStart}
}
