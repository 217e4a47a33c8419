package slip

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// samplePayload and sampleEncoded are a known encode vector covering a
// frame-boundary byte, an escape introducer and both bare continuations.
var (
	samplePayload = []byte{1, 2, 3, End, 4, Esc, End, Esc, 5, EscEnd, EscEsc, 6}
	sampleEncoded = []byte{
		1, 2, 3,
		Esc, EscEnd,
		4,
		Esc, EscEsc,
		Esc, EscEnd,
		Esc, EscEsc,
		5,
		EscEnd, EscEsc,
		6,
		End,
	}
)

// errWriter fails every write with its error.
type errWriter struct {
	err error
}

func (w errWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

// silentShortWriter claims success while consuming nothing.
type silentShortWriter struct{}

func (silentShortWriter) Write(p []byte) (int, error) {
	return 0, nil
}

// chunkReader yields its data in fixed-size chunks to exercise
// resumption across partial reads.
type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestEncodeByte_SubstitutionTable(t *testing.T) {
	cases := []struct {
		input    byte
		expected []byte
	}{
		{0x00, []byte{0x00}},
		{0x01, []byte{0x01}},
		{End, []byte{Esc, EscEnd}},
		{Esc, []byte{Esc, EscEsc}},
		{EscEnd, []byte{EscEnd}},
		{EscEsc, []byte{EscEsc}},
		{0xFF, []byte{0xFF}},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		if err := EncodeByte(&buf, tc.input); err != nil {
			t.Errorf("EncodeByte(0x%02X) error: %v", tc.input, err)
			continue
		}
		if !bytes.Equal(buf.Bytes(), tc.expected) {
			t.Errorf("EncodeByte(0x%02X) = %v, want %v", tc.input, buf.Bytes(), tc.expected)
		}
	}
}

func TestEncodeByte_WriterError(t *testing.T) {
	wantErr := errors.New("sink broken")
	if err := EncodeByte(errWriter{err: wantErr}, 42); err != wantErr {
		t.Errorf("EncodeByte error = %v, want %v", err, wantErr)
	}

	// The escape introducer fails first; nothing else may be attempted.
	w := &countingErrWriter{err: wantErr}
	if err := EncodeByte(w, End); err != wantErr {
		t.Errorf("EncodeByte(End) error = %v, want %v", err, wantErr)
	}
	if w.calls != 1 {
		t.Errorf("EncodeByte(End) issued %d writes after failure, want 1", w.calls)
	}
}

// countingErrWriter fails every write and counts attempts.
type countingErrWriter struct {
	err   error
	calls int
}

func (w *countingErrWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, w.err
}

func TestEncodeByte_ShortWrite(t *testing.T) {
	if err := EncodeByte(silentShortWriter{}, 42); err != io.ErrShortWrite {
		t.Errorf("EncodeByte short write error = %v, want %v", err, io.ErrShortWrite)
	}
}

func TestEncodePacket_KnownVector(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePacket(&buf, samplePayload, false); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), sampleEncoded) {
		t.Errorf("EncodePacket(%v) = %v, want %v", samplePayload, buf.Bytes(), sampleEncoded)
	}
}

func TestEncodePacket_StartByte(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePacket(&buf, nil, true); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	expected := []byte{End, End}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("EncodePacket(nil, start) = %v, want %v", buf.Bytes(), expected)
	}

	buf.Reset()
	if err := EncodePacket(&buf, nil, false); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	expected = []byte{End}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("EncodePacket(nil, no start) = %v, want %v", buf.Bytes(), expected)
	}
}

func TestEncodePacket_StartByteNotEscaped(t *testing.T) {
	// The leading END is a frame marker, not payload: it must come out
	// raw, unlike END bytes in the data.
	var buf bytes.Buffer
	if err := EncodePacket(&buf, []byte{End}, true); err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
	expected := []byte{End, Esc, EscEnd, End}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("EncodePacket([End], start) = %v, want %v", buf.Bytes(), expected)
	}
}

func TestEncoder_TransferChunkedReader(t *testing.T) {
	// Chunked streaming must match the one-shot packet form exactly.
	for _, size := range []int{1, 2, 3, 5, len(samplePayload)} {
		var buf bytes.Buffer
		e := Encoder{}
		r := &chunkReader{data: append([]byte{}, samplePayload...), size: size}
		if err := e.Transfer(r, &buf); err != nil {
			t.Fatalf("chunk size %d: Transfer error: %v", size, err)
		}
		if !bytes.Equal(buf.Bytes(), sampleEncoded) {
			t.Errorf("chunk size %d: Transfer = %v, want %v", size, buf.Bytes(), sampleEncoded)
		}
	}
}

func TestEncoder_TransferReaderError(t *testing.T) {
	wantErr := errors.New("source broken")
	var buf bytes.Buffer
	e := Encoder{StartByte: true}
	if err := e.Transfer(failReader{err: wantErr}, &buf); err != wantErr {
		t.Errorf("Transfer error = %v, want %v", err, wantErr)
	}
	// The start byte went out before the reader failed; partial output
	// stands and the caller discards it.
	if !bytes.Equal(buf.Bytes(), []byte{End}) {
		t.Errorf("Transfer partial output = %v, want %v", buf.Bytes(), []byte{End})
	}
}

// failReader fails every read with its error.
type failReader struct {
	err error
}

func (r failReader) Read(p []byte) (int, error) {
	return 0, r.err
}

func TestEncodePacket_BufferFull(t *testing.T) {
	w := NewBufferWriter(make([]byte, 4))
	err := EncodePacket(w, samplePayload, false)
	if !errors.Is(err, ErrBufferFull) {
		t.Errorf("EncodePacket into full buffer error = %v, want %v", err, ErrBufferFull)
	}
	if w.Len() != 4 {
		t.Errorf("BufferWriter filled %d bytes, want 4", w.Len())
	}
}
