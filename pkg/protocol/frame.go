package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Every frame starts with [Type: u8][Flags: u8][Length: u16 big-endian].
const (
	FrameHeaderSize = 4
	MaxPayloadSize  = 1<<16 - 1
)

// FrameType identifies what a frame carries.
type FrameType uint8

const (
	FrameBatch  FrameType = 0x01 // client to host: an encoded Batch
	FrameRender FrameType = 0x02 // host to client: serialized markup
	FrameAck    FrameType = 0x03 // host to client: uvarint seq of the applied batch
	FrameError  FrameType = 0x04 // host to client: error message
)

var frameTypeNames = map[FrameType]string{
	FrameBatch:  "Batch",
	FrameRender: "Render",
	FrameAck:    "Ack",
	FrameError:  "Error",
}

func (ft FrameType) String() string {
	if name, ok := frameTypeNames[ft]; ok {
		return name
	}
	return "Unknown"
}

// FrameFlags modify how the host answers a frame.
type FrameFlags uint8

// FlagWantRender asks for a Render reply instead of an Ack.
const FlagWantRender FrameFlags = 0x01

func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

var ErrFrameTooLarge = errors.New("protocol: frame payload too large")

type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns header and payload in one slice. The length field is
// truncated for payloads over MaxPayloadSize; WriteFrame rejects those.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, FrameHeaderSize+len(f.Payload))
	buf = append(buf, byte(f.Type), byte(f.Flags))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Payload)))
	return append(buf, f.Payload...)
}

func parseHeader(h []byte) (*Frame, int) {
	return &Frame{Type: FrameType(h[0]), Flags: FrameFlags(h[1])},
		int(binary.BigEndian.Uint16(h[2:FrameHeaderSize]))
}

// DecodeFrame reads one frame from the front of data. Bytes after the
// payload are ignored. The payload is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	f, n := parseHeader(data)
	body := data[FrameHeaderSize:]
	if len(body) < n {
		return nil, io.ErrUnexpectedEOF
	}
	f.Payload = append([]byte(nil), body[:n]...)
	return f, nil
}

// ReadFrame reads exactly one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	f, n := parseHeader(header[:])
	f.Payload = make([]byte, n)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame writes f to w in a single Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
