package slip

import "errors"

// ErrBufferFull is returned by BufferWriter.Write once the underlying
// buffer has no space left.
var ErrBufferFull = errors.New("slip: buffer full")

// BufferWriter is an io.Writer over a caller-owned, fixed-capacity byte
// slice. It is the sink-side counterpart of bytes.Reader: writes fill
// the slice in place and fail once it is exhausted, instead of growing
// like bytes.Buffer. The caller keeps ownership of buf for the lifetime
// of the writer.
type BufferWriter struct {
	buf []byte
	n   int
}

// NewBufferWriter returns a writer that fills buf from the start.
func NewBufferWriter(buf []byte) *BufferWriter {
	return &BufferWriter{buf: buf}
}

// Write copies p into the remaining space. When p does not fit, the
// number of bytes actually stored is returned along with ErrBufferFull.
func (w *BufferWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.n:], p)
	w.n += n
	if n < len(p) {
		return n, ErrBufferFull
	}
	return n, nil
}

// Bytes returns the filled prefix of the underlying buffer.
func (w *BufferWriter) Bytes() []byte {
	return w.buf[:w.n]
}

// Len returns the number of bytes written so far.
func (w *BufferWriter) Len() int {
	return w.n
}

// Reset forgets everything written, reusing the same buffer.
func (w *BufferWriter) Reset() {
	w.n = 0
}
