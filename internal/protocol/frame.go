package protocol

import "fmt"

// I2C slave addresses: 0b011110 + SA0.
const (
	DefaultAddress   byte = 0x3C
	AlternateAddress byte = 0x3D
)

// Control bytes following the address byte.
const (
	ControlCommand byte = 0x00
	ControlData    byte = 0x40
)

// Frame is one transfer on the wire: address byte (address<<1 | R/W),
// control byte, payload. The transport adds the framing, the codec only
// produces payloads.
type Frame struct {
	Address byte
	Read    bool
	Control byte
	Payload []byte
}

// IsData reports whether the payload is display RAM data.
func (f Frame) IsData() bool {
	return f.Control == ControlData
}

// AddressByte returns the first byte of a transfer to address.
func AddressByte(address byte, read bool) byte {
	b := address << 1
	if read {
		b |= 0x1
	}
	return b
}

// EncodeFrame builds a write transfer.
func EncodeFrame(address, control byte, payload []byte) []byte {
	buf := make([]byte, 0, 2+len(payload))
	buf = append(buf, AddressByte(address, false), control)
	return append(buf, payload...)
}

// CommandFrame frames a command stream.
func CommandFrame(address byte, commands []byte) []byte {
	return EncodeFrame(address, ControlCommand, commands)
}

// DataFrame frames display data.
func DataFrame(address byte, data []byte) []byte {
	return EncodeFrame(address, ControlData, data)
}

// DecodeFrame splits a transfer into its parts.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) < 2 {
		return Frame{}, fmt.Errorf("%w: frame of %d bytes", ErrMalformedCommand, len(buf))
	}
	if buf[1] != ControlCommand && buf[1] != ControlData {
		return Frame{}, fmt.Errorf("%w: control byte 0x%02X", ErrMalformedCommand, buf[1])
	}
	return Frame{
		Address: buf[0] >> 1,
		Read:    buf[0]&0x1 == 0x1,
		Control: buf[1],
		Payload: buf[2:],
	}, nil
}

// LooksLikeFrame reports whether buf starts with a transfer header for
// address.
func LooksLikeFrame(buf []byte, address byte) bool {
	return len(buf) >= 2 && buf[0]>>1 == address && (buf[1] == ControlCommand || buf[1] == ControlData)
}
