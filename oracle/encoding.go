package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// byteOrder is the byte order of every persisted record and instruction
// payload. The layout is fixed and field-ordered: no tags, no padding, no
// optional fields. Existence of a record is proven by a successful strict
// decode, so decoders must never tolerate short, trailing or otherwise
// malformed input.
var byteOrder = binary.LittleEndian

// maxVarBytesLen bounds length-prefixed byte fields (signatures) to
// prevent large allocations when decoding untrusted input.
const maxVarBytesLen = 1024

var (
	// ErrTrailingBytes is returned when a decode succeeds but leaves
	// unconsumed input behind.
	ErrTrailingBytes = errors.New("trailing bytes after record")

	// ErrInvalidBool is returned for boolean bytes other than 0 or 1.
	ErrInvalidBool = errors.New("boolean field must be 0 or 1")
)

// writeVarBytes writes a u32 length prefix followed by the raw bytes.
func writeVarBytes(w io.Writer, b []byte) error {
	if len(b) > maxVarBytesLen {
		return fmt.Errorf("variable field of %d bytes exceeds "+
			"maximum of %d", len(b), maxVarBytesLen)
	}
	if err := binary.Write(w, byteOrder, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readVarBytes reads a u32 length prefix followed by that many bytes.
func readVarBytes(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return nil, err
	}
	if length > maxVarBytesLen {
		return nil, fmt.Errorf("variable field of %d bytes exceeds "+
			"maximum of %d", length, maxVarBytesLen)
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// writeBool writes a strict single-byte boolean.
func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// readBool reads a strict single-byte boolean, rejecting any value other
// than 0 or 1.
func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}
