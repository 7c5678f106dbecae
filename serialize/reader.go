// Package serialize implements the binary scene file format (spec §4.M)
// and the bounds-checked memory-view reader it is built on (§4.N).
//
// The section-tag framing and little-endian POD reads are grounded on
// gazed-vu/load/iqm.go and gazed-vu/load/wav.go, the only binary-format
// parsers in the retrieved pack: both read a magic-number header with
// encoding/binary and bytes.Reader.Seek. No third-party binary
// serialization library (protobuf, msgpack, flatbuffers) appears
// anywhere in the pack, so encoding/binary is used here deliberately.
package serialize

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Origin names the reference point for Reader.SeekI.
type Origin int

const (
	Begin Origin = iota
	Relative
	End
)

// Reader is a bounds-checked cursor over an immutable byte view
// (component N). It never allocates a copy of the underlying bytes;
// every read either copies into a caller-supplied destination or
// returns a sub-slice of the original view.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data as a Reader positioned at offset 0. data is not
// copied; the caller must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// TellI returns the current cursor offset.
func (r *Reader) TellI() int { return r.pos }

// Len returns the total length of the underlying view.
func (r *Reader) Len() int { return len(r.data) }

// SeekI repositions the cursor relative to origin. It fails if the
// resulting offset would lie outside [0, len(data)].
func (r *Reader) SeekI(offset int, origin Origin) error {
	var target int
	switch origin {
	case Begin:
		target = offset
	case Relative:
		target = r.pos + offset
	case End:
		target = len(r.data) + offset
	default:
		return fmt.Errorf("serialize: SeekI: unknown origin %d", origin)
	}
	if target < 0 || target > len(r.data) {
		return fmt.Errorf("serialize: SeekI: offset %d out of range [0,%d]", target, len(r.data))
	}
	r.pos = target
	return nil
}

// Read copies exactly n bytes into dst, which must have length ≥ n, and
// advances the cursor. It fails rather than short-reading.
func (r *Reader) Read(dst []byte, n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("serialize: Read: %d bytes at offset %d exceeds view length %d", n, r.pos, len(r.data))
	}
	copy(dst, r.data[r.pos:r.pos+n])
	r.pos += n
	return nil
}

// ReadSome copies as many complete eltSize-sized elements as are
// available, up to count, into dst. It never fails: a short underlying
// view simply yields fewer elements. It returns the number of bytes
// copied, always a multiple of eltSize.
func (r *Reader) ReadSome(dst []byte, eltSize, count int) int {
	if eltSize <= 0 || count <= 0 {
		return 0
	}
	want := eltSize * count
	avail := len(r.data) - r.pos
	n := want
	if n > avail {
		n = avail - avail%eltSize
	}
	if n <= 0 {
		return 0
	}
	copy(dst, r.data[r.pos:r.pos+n])
	r.pos += n
	return n
}

// PeekChar returns the byte at the cursor without advancing it, and
// false if the cursor is at or past the end of the view.
func (r *Reader) PeekChar() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	return r.data[r.pos], true
}

// PeekCharW returns the little-endian uint16 (wide char) at the cursor
// without advancing it, and false if fewer than two bytes remain.
func (r *Reader) PeekCharW() (uint16, bool) {
	if r.pos+2 > len(r.data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(r.data[r.pos : r.pos+2]), true
}

// Eat advances the cursor by n bytes, failing if that would run past
// the end of the view.
func (r *Reader) Eat(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("serialize: Eat: %d bytes at offset %d exceeds view length %d", n, r.pos, len(r.data))
	}
	r.pos += n
	return nil
}

// EatIFP advances the cursor by n bytes and returns the skipped range
// as a sub-slice, or (nil, false) without moving the cursor if n bytes
// are not available ("if possible").
func (r *Reader) EatIFP(n int) ([]byte, bool) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, false
	}
	view := r.data[r.pos : r.pos+n]
	r.pos += n
	return view, true
}

// SubRange returns a bytes-length sub-slice of the underlying view
// starting at off, independent of the cursor. It does not move the
// cursor.
func (r *Reader) SubRange(off, bytes int) ([]byte, error) {
	if off < 0 || bytes < 0 || off+bytes > len(r.data) {
		return nil, fmt.Errorf("serialize: SubRange: [%d,%d) out of range [0,%d]", off, off+bytes, len(r.data))
	}
	return r.data[off : off+bytes], nil
}

// POD constrains ReadPOD/ExpectPOD to the fixed-width scalar types the
// binary format encodes directly as little-endian bytes.
type POD interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// ReadPOD decodes a little-endian value of type T at the cursor into
// out and advances past it, returning false (without moving the
// cursor) if insufficient bytes remain.
func ReadPOD[T POD](r *Reader, out *T) bool {
	size := binary.Size(*out)
	if size <= 0 || r.pos+size > len(r.data) {
		return false
	}
	if err := binary.Read(bytes.NewReader(r.data[r.pos:r.pos+size]), binary.LittleEndian, out); err != nil {
		return false
	}
	r.pos += size
	return true
}

// ExpectPOD reads a value of type T and reports whether it equals
// value, consuming it on a match. On a mismatch or a short read the
// cursor is restored to where it started.
func ExpectPOD[T POD](r *Reader, value T) bool {
	mark := r.pos
	var got T
	if !ReadPOD(r, &got) || got != value {
		r.pos = mark
		return false
	}
	return true
}

// Tag is a 4-byte ASCII FourCC section or atom marker.
type Tag [4]byte

func (t Tag) String() string { return string(t[:]) }

// NewTag builds a Tag from a 4-character ASCII string, panicking if s is
// not exactly 4 bytes — used only with string literals at call sites.
func NewTag(s string) Tag {
	if len(s) != 4 {
		panic("serialize: tag must be exactly 4 bytes: " + s)
	}
	var t Tag
	copy(t[:], s)
	return t
}

// ReadTag reads a raw 4-byte tag at the cursor without validating it
// against any expected value.
func (r *Reader) ReadTag() (Tag, error) {
	var t Tag
	if err := r.Read(t[:], 4); err != nil {
		return Tag{}, fmt.Errorf("serialize: ReadTag: %w", err)
	}
	return t, nil
}

// ExpectTag reads a tag and fails with an error naming both tags if it
// does not equal want. On mismatch the cursor is restored.
func (r *Reader) ExpectTag(want Tag) error {
	mark := r.pos
	got, err := r.ReadTag()
	if err != nil {
		r.pos = mark
		return err
	}
	if got != want {
		r.pos = mark
		return fmt.Errorf("serialize: expected tag %q, got %q", want, got)
	}
	return nil
}
