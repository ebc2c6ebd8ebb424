package formats

import (
	"bufio"
	"io"
	"strconv"
)

// OBJFaceRef is one corner of an OBJ face. Indices are 1-based; 0 means absent.
type OBJFaceRef struct {
	V, VT, VN uint32
}

// OBJWriter writes OBJ statements to a buffered stream.
// The first write error is kept and returned by Flush and Err; later writes are no-ops.
type OBJWriter struct {
	w   *bufio.Writer
	buf []byte
	err error
}

// NewOBJWriter returns a writer that buffers output to w.
func NewOBJWriter(w io.Writer) *OBJWriter {
	return &OBJWriter{
		w:   bufio.NewWriter(w),
		buf: make([]byte, 0, 128),
	}
}

// Line writes a raw line.
func (w *OBJWriter) Line(s string) {
	w.buf = append(w.buf[:0], s...)
	w.writeBuf()
}

// Comment writes a "#" comment line.
func (w *OBJWriter) Comment(text string) {
	w.buf = append(w.buf[:0], "# "...)
	w.buf = append(w.buf, text...)
	w.writeBuf()
}

// Object starts a named object.
func (w *OBJWriter) Object(name string) {
	w.buf = append(w.buf[:0], "o "...)
	w.buf = append(w.buf, name...)
	w.writeBuf()
}

// Smoothing writes the smoothing group statement.
func (w *OBJWriter) Smoothing(group int) {
	w.buf = append(w.buf[:0], "s "...)
	if group <= 0 {
		w.buf = append(w.buf, "off"...)
	} else {
		w.buf = strconv.AppendInt(w.buf, int64(group), 10)
	}
	w.writeBuf()
}

// Vertex writes a position.
func (w *OBJWriter) Vertex(x, y, z float32) {
	w.buf = append(w.buf[:0], 'v')
	w.buf = appendFloats(w.buf, x, y, z)
	w.writeBuf()
}

// Normal writes a vertex normal.
func (w *OBJWriter) Normal(x, y, z float32) {
	w.buf = append(w.buf[:0], "vn"...)
	w.buf = appendFloats(w.buf, x, y, z)
	w.writeBuf()
}

// TexCoord writes a texture coordinate.
func (w *OBJWriter) TexCoord(u, v float32) {
	w.buf = append(w.buf[:0], "vt"...)
	w.buf = appendFloats(w.buf, u, v)
	w.writeBuf()
}

// Face writes a triangle.
func (w *OBJWriter) Face(refs [3]OBJFaceRef) {
	w.buf = append(w.buf[:0], 'f')
	for _, r := range refs {
		w.buf = append(w.buf, ' ')
		w.buf = strconv.AppendUint(w.buf, uint64(r.V), 10)
		switch {
		case r.VT != 0 && r.VN != 0:
			w.buf = append(w.buf, '/')
			w.buf = strconv.AppendUint(w.buf, uint64(r.VT), 10)
			w.buf = append(w.buf, '/')
			w.buf = strconv.AppendUint(w.buf, uint64(r.VN), 10)
		case r.VT != 0:
			w.buf = append(w.buf, '/')
			w.buf = strconv.AppendUint(w.buf, uint64(r.VT), 10)
		case r.VN != 0:
			w.buf = append(w.buf, "//"...)
			w.buf = strconv.AppendUint(w.buf, uint64(r.VN), 10)
		}
	}
	w.writeBuf()
}

// Flush writes any buffered data and returns the first error encountered.
func (w *OBJWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Err returns the first error encountered.
func (w *OBJWriter) Err() error {
	return w.err
}

func (w *OBJWriter) writeBuf() {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, '\n')
	_, w.err = w.w.Write(w.buf)
}

func appendFloats(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	}
	return buf
}
