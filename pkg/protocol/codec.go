package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Decoding limits. A length prefix is checked against them before any
// allocation happens.
const (
	// DefaultMaxAllocation bounds a single decoded string (4MB).
	DefaultMaxAllocation = 4 << 20

	// MaxCollectionCount bounds the number of items in a counted list.
	MaxCollectionCount = 100_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrInvalidBool        = errors.New("protocol: invalid boolean value")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrMaxDepthExceeded   = errors.New("protocol: maximum nesting depth exceeded")
)

// Encoder appends primitives to a growing buffer. Writes never fail.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded bytes. The slice aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

func (e *Encoder) WriteUvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

// WriteSvarint writes v zigzag-encoded.
func (e *Encoder) WriteSvarint(v int64) { e.buf = binary.AppendVarint(e.buf, v) }

// WriteString writes a uvarint length followed by the raw bytes of s.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) WriteBool(b bool) {
	var v byte
	if b {
		v = 1
	}
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }

// Decoder reads primitives written by Encoder. Short input yields
// io.ErrUnexpectedEOF.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// EOF reports whether the whole buffer has been consumed.
func (d *Decoder) EOF() bool { return d.pos >= len(d.buf) }

func (d *Decoder) ReadByte() (byte, error) {
	if d.EOF() {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadSvarint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

// ReadInt reads a zigzag varint into an int.
func (d *Decoder) ReadInt() (int, error) {
	v, err := d.ReadSvarint()
	return int(v), err
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(d.Remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	if n > DefaultMaxAllocation {
		return "", ErrAllocationTooLarge
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

// ReadBool accepts only 0x00 and 0x01.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	if b > 1 {
		return false, ErrInvalidBool
	}
	return b == 1, nil
}

func (d *Decoder) ReadUint16() (uint16, error) {
	if d.Remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

// ReadCollectionCount reads an item count. Every item occupies at least
// one byte, so a count larger than the unread input is truncated data.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
