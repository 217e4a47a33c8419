package slip

import (
	"bytes"
	"io"
)

// writeByte pushes a single byte through w.
// A write that claims success without consuming the byte is an io.ErrShortWrite.
func writeByte(w io.Writer, b byte) error {
	n, err := w.Write([]byte{b})
	if err != nil {
		return err
	}
	if n != 1 {
		return io.ErrShortWrite
	}
	return nil
}

// EncodeByte writes the SLIP encoding of a single byte to w.
// END becomes ESC, ESC_END and ESC becomes ESC, ESC_ESC; any other
// value is written unchanged. The first failed write aborts, and no
// further bytes are written.
func EncodeByte(w io.Writer, b byte) error {
	switch b {
	case End:
		if err := writeByte(w, Esc); err != nil {
			return err
		}
		b = EscEnd
	case Esc:
		if err := writeByte(w, Esc); err != nil {
			return err
		}
		b = EscEsc
	}
	return writeByte(w, b)
}

// Encoder streams SLIP-framed packets to a writer.
// The zero value encodes without a leading START byte.
type Encoder struct {
	// StartByte prefixes each packet with a redundant END so a receiver
	// joining mid-stream can resynchronize on the frame boundary.
	StartByte bool
}

// Transfer encodes one whole packet: every byte r yields until EOF,
// followed by the closing END. The leading END (when StartByte is set)
// and the trailing END are frame markers and are written raw, never
// escaped. On error the sink is left partially written; the caller
// must discard or reset it.
func (e Encoder) Transfer(r io.Reader, w io.Writer) error {
	if e.StartByte {
		if err := writeByte(w, End); err != nil {
			return err
		}
	}

	buf := make([]byte, transferChunkSize)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if werr := EncodeByte(w, b); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return writeByte(w, End)
		}
		if err != nil {
			return err
		}
	}
}

// EncodePacket encodes an in-memory packet to w in one call.
func EncodePacket(w io.Writer, data []byte, startByte bool) error {
	e := Encoder{StartByte: startByte}
	return e.Transfer(bytes.NewReader(data), w)
}
