package slip

import (
	"bytes"
	"errors"
	"io"
)

// ErrNoFrameStart is returned by Decoder.Transfer and Decoder.DecodePacket
// when start-byte synchronization exhausts the input without seeing an END.
var ErrNoFrameStart = errors.New("slip: no frame start found")

// Decoder is the stateful inverse of the encoder: it unescapes bytes one
// at a time and recognizes the END frame boundary. State is scoped to a
// single packet; Transfer and DecodePacket reset it on entry, so one
// Decoder can be reused frame after frame.
//
// A Decoder must not be driven from two call sites concurrently
// mid-packet, since byte order determines escape-state correctness.
type Decoder struct {
	startByte bool
	prev      byte
	malformed bool
}

// NewDecoder returns a decoder ready for a fresh packet. When startByte
// is set, Transfer discards all input up to the first END before
// decoding begins.
func NewDecoder(startByte bool) *Decoder {
	return &Decoder{startByte: startByte, prev: End}
}

// Reset clears the packet-scoped state so the decoder can start a new frame.
func (d *Decoder) Reset() {
	d.prev = End
	d.malformed = false
}

// Malformed reports whether any unrecognized escape sequence was
// tolerated while decoding the current packet. Callers wanting strict
// validation check this after the decode completes.
func (d *Decoder) Malformed() bool {
	return d.malformed
}

// DecodeByte feeds one byte through the decoder, emitting decoded output
// to w. It returns done == true when b is the END marker, which
// completes the packet; nothing is written for the marker itself. An
// ESC byte emits nothing until the following byte resolves the escape,
// so escapes decode correctly even when split across chunked input.
//
// An ESC followed by anything other than ESC_END or ESC_ESC is a
// malformed escape: the byte is passed through unmodified and the
// sticky malformed flag is set. The decode is never aborted for bad
// escaping.
func (d *Decoder) DecodeByte(w io.Writer, b byte) (done bool, err error) {
	prev := d.prev
	// prev must track the last observed byte before any return, so that
	// decoding resumes correctly across calls.
	d.prev = b

	if b == End {
		return true, nil
	}

	if prev == Esc {
		switch b {
		case EscEnd:
			b = End
		case EscEsc:
			b = Esc
		default:
			d.malformed = true
		}
		return false, writeByte(w, b)
	}

	if b == Esc {
		return false, nil
	}

	return false, writeByte(w, b)
}

// skipToStart discards input until a frame boundary is observed.
func (d *Decoder) skipToStart(r io.Reader) error {
	var buf [1]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 && buf[0] == End {
			return nil
		}
		if err == io.EOF {
			return ErrNoFrameStart
		}
		if err != nil {
			return err
		}
	}
}

// Transfer decodes one whole packet from r into w. It reads a single
// byte at a time so that no input past the closing END is consumed;
// wrap r in a bufio.Reader when single-byte reads are expensive.
//
// A nil return means the packet was terminated by an END. If the reader
// is exhausted before an END is seen, Transfer returns
// io.ErrUnexpectedEOF; the output written so far is valid decoded data
// and the caller may retry with more input. ErrNoFrameStart is returned
// when start-byte synchronization finds no END at all.
func (d *Decoder) Transfer(r io.Reader, w io.Writer) error {
	d.Reset()

	if d.startByte {
		if err := d.skipToStart(r); err != nil {
			return err
		}
	}

	var buf [1]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			done, derr := d.DecodeByte(w, buf[0])
			if derr != nil {
				return derr
			}
			if done {
				return nil
			}
		}
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
	}
}

// DecodePacket decodes an in-memory frame into w in one call. Output
// and terminal status are identical to driving Transfer over a reader
// wrapping the same bytes.
func (d *Decoder) DecodePacket(w io.Writer, frame []byte) error {
	return d.Transfer(bytes.NewReader(frame), w)
}
