package serialize

import (
	"bytes"
	"encoding/binary"
)

// writer accumulates the output byte stream. It is the write-side
// counterpart of Reader: little-endian POD, FourCC tags, and
// length-prefixed byte blocks, grounded on the same encoding/binary
// usage as gazed-vu/load/iqm.go's reader.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) WriteTag(t Tag) { w.buf.Write(t[:]) }

func (w *writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) WriteBytes(b []byte) { w.buf.Write(b) }

// WriteBlock writes a u32 length prefix followed by s's bytes —
// the `<u32 len><bytes>` shape used throughout #NME/#STR/#WST/#CLS/#PRP.
func (w *writer) WriteBlock(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
}

// patchU32 overwrites the u32 at byte offset off in the buffer already
// written — used for the serialize pipeline's run-length back-patching
// (spec §4.M step 4).
func (w *writer) patchU32(off int, v uint32) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

func (w *writer) patchU64(off int, v uint64) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

func (w *writer) len() int { return w.buf.Len() }
