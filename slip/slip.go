// Package slip implements SLIP framing (RFC 1055): packets delimited by
// END bytes, with reserved bytes in the payload replaced by two-byte
// escape sequences.
//
// The streaming Encoder and Decoder work byte-by-byte against io.Reader
// and io.Writer, so any byte source or sink plugs in. Encode, Decode and
// ReadFrame are in-memory conveniences for the common whole-buffer case.
package slip

import (
	"bytes"
	"io"
)

// Reserved byte values. Outside of an escape sequence, EscEnd and EscEsc
// are ordinary data bytes and pass through unchanged.
const (
	End    = 0xC0
	Esc    = 0xDB
	EscEnd = 0xDC
	EscEsc = 0xDD
)

// transferChunkSize is the read buffer size used by Encoder.Transfer.
const transferChunkSize = 256

// Encode wraps data in SLIP framing.
// Adds END byte at start and end, escapes special bytes.
func Encode(data []byte) []byte {
	// Pre-allocate with some extra space for escapes
	var buf bytes.Buffer
	buf.Grow(len(data) + 10)

	// Writes to a bytes.Buffer cannot fail.
	_ = EncodePacket(&buf, data, true)
	return buf.Bytes()
}

// Decode extracts data from a SLIP frame.
// Removes END bytes and unescapes special bytes.
func Decode(frame []byte) []byte {
	if len(frame) < 2 {
		return nil
	}

	// Strip leading/trailing END bytes
	start := 0
	end := len(frame)

	for start < end && frame[start] == End {
		start++
	}
	for end > start && frame[end-1] == End {
		end--
	}

	if start >= end {
		return nil
	}

	var out bytes.Buffer
	out.Grow(end - start)

	d := NewDecoder(false)
	if err := d.DecodePacket(&out, frame[start:end]); err != nil && err != io.ErrUnexpectedEOF {
		return nil
	}
	return out.Bytes()
}

// ReadFrame reads a complete SLIP frame from a byte stream.
// Returns the frame (including END delimiters) and remaining bytes.
func ReadFrame(data []byte) (frame []byte, remaining []byte) {
	// Find start of frame (skip leading garbage, find first END)
	start := -1
	for i, b := range data {
		if b == End {
			start = i
			break
		}
	}

	if start == -1 {
		return nil, data
	}

	// Find end of frame (next END after some data)
	inFrame := false
	for i := start; i < len(data); i++ {
		if data[i] == End {
			if inFrame {
				// Found the closing END
				return data[start : i+1], data[i+1:]
			}
		} else {
			inFrame = true
		}
	}

	// Frame not complete yet
	return nil, data
}
