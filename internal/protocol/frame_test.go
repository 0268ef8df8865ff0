package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	buf := DataFrame(DefaultAddress, []byte{0xAA, 0x55})
	if want := []byte{0x78, 0x40, 0xAA, 0x55}; !bytes.Equal(buf, want) {
		t.Fatalf("DataFrame() = % X, want % X", buf, want)
	}
	f, err := DecodeFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	if f.Address != DefaultAddress || f.Read || !f.IsData() || !bytes.Equal(f.Payload, []byte{0xAA, 0x55}) {
		t.Errorf("DecodeFrame() = %+v", f)
	}

	buf = CommandFrame(AlternateAddress, []byte{0xAF})
	if want := []byte{0x7A, 0x00, 0xAF}; !bytes.Equal(buf, want) {
		t.Fatalf("CommandFrame() = % X, want % X", buf, want)
	}
}

func TestAddressByte(t *testing.T) {
	if b := AddressByte(DefaultAddress, true); b != 0x79 {
		t.Errorf("AddressByte(read) = 0x%02X, want 0x79", b)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	for _, buf := range [][]byte{nil, {0x78}, {0x78, 0x80, 0x00}} {
		if _, err := DecodeFrame(buf); !errors.Is(err, ErrMalformedCommand) {
			t.Errorf("DecodeFrame(% X) error = %v, want ErrMalformedCommand", buf, err)
		}
	}
}

func TestLooksLikeFrame(t *testing.T) {
	tests := []struct {
		buf  []byte
		want bool
	}{
		{[]byte{0x78, 0x00, 0xAF}, true},
		{[]byte{0x78, 0x40}, true},
		{[]byte{0x7A, 0x40}, false},
		{[]byte{0xAF}, false},
		{[]byte{0x78, 0x12}, false},
	}
	for _, tt := range tests {
		if got := LooksLikeFrame(tt.buf, DefaultAddress); got != tt.want {
			t.Errorf("LooksLikeFrame(% X) = %v, want %v", tt.buf, got, tt.want)
		}
	}
}
