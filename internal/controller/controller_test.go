package controller

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jypelle/oledtile/internal/protocol"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func apply(t *testing.T, c *Controller, table *protocol.Table, name string, f protocol.Fields) {
	t.Helper()
	b, err := table.Encode(name, f)
	if err != nil {
		t.Fatal(err)
	}
	d, _, err := protocol.NewDispatcher(table).Next(b)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(d); err != nil {
		t.Fatalf("Apply(%s): %v", name, err)
	}
}

func TestPageModeWrapsWithinPage(t *testing.T) {
	table := protocol.NewSSD1306Table()
	c := New(4, 8)
	apply(t, c, table, protocol.PageModeSetPage, protocol.Opt(2))
	apply(t, c, table, protocol.PageModeSetColumnLow, protocol.Opt(6))
	apply(t, c, table, protocol.PageModeSetColumnHigh, protocol.Opt(0))

	if err := c.Write([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatal(err)
	}
	page, _ := c.Page(2)
	if want := []byte{0x03, 0, 0, 0, 0, 0, 0x01, 0x02}; !bytes.Equal(page, want) {
		t.Errorf("page 2 = % X, want % X", page, want)
	}
	if p, col := c.Cursor(); p != 2 || col != 1 {
		t.Errorf("cursor = %d,%d, want 2,1", p, col)
	}
}

func TestHorizontalModeAdvancesPage(t *testing.T) {
	table := protocol.NewSSD1306Table()
	c := New(4, 8)
	apply(t, c, table, protocol.SetMemoryAddressingMode, protocol.Args(byte(protocol.HorizontalMode)))
	apply(t, c, table, protocol.WindowSetPage, protocol.Args(1, 2))
	apply(t, c, table, protocol.WindowSetColumn, protocol.Args(4, 5))

	if err := c.Write([]byte{0xA1, 0xA2, 0xB1, 0xB2, 0xC1}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		page int
		want []byte
	}{
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{1, []byte{0, 0, 0, 0, 0xC1, 0xA2, 0, 0}},
		{2, []byte{0, 0, 0, 0, 0xB1, 0xB2, 0, 0}},
	}
	for _, tt := range tests {
		got, _ := c.Page(tt.page)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("page %d = % X, want % X", tt.page, got, tt.want)
		}
	}
}

func TestVerticalModeNotSupported(t *testing.T) {
	c := New(4, 128)
	err := c.Apply(protocol.Decoded{
		Command: mustCommand(t, protocol.SetMemoryAddressingMode),
		Fields:  protocol.Args(byte(protocol.VerticalMode)),
	})
	if !errors.Is(err, protocol.ErrNotSupported) {
		t.Errorf("error = %v, want ErrNotSupported", err)
	}
	if c.Mode() != protocol.PageMode {
		t.Errorf("mode changed to %v", c.Mode())
	}
}

func TestWindowOutOfRange(t *testing.T) {
	c := New(4, 128)
	err := c.Apply(protocol.Decoded{
		Command: mustCommand(t, protocol.WindowSetPage),
		Fields:  protocol.Args(0, 7),
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("error = %v, want ErrOutOfRange", err)
	}
}

func TestWriteOutsideRAM(t *testing.T) {
	table := protocol.NewSSD1306Table()
	c := New(4, 96)
	apply(t, c, table, protocol.PageModeSetColumnHigh, protocol.Opt(0x7))
	if err := c.Write([]byte{0xFF}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("error = %v, want ErrOutOfRange", err)
	}
}

func TestImage(t *testing.T) {
	table := protocol.NewSSD1306Table()
	c := New(4, 16)
	if err := c.Write([]byte{0x81}); err != nil {
		t.Fatal(err)
	}
	if c.Image().BitAt(0, 0) != image1bit.Off {
		t.Error("pixel lit while display is off")
	}

	apply(t, c, table, protocol.Display, protocol.Opt(protocol.DisplayOn))
	img := c.Image()
	for y, want := range map[int]image1bit.Bit{0: image1bit.On, 1: image1bit.Off, 7: image1bit.On} {
		if got := img.BitAt(0, y); got != want {
			t.Errorf("pixel (0,%d) = %v, want %v", y, got, want)
		}
	}

	apply(t, c, table, protocol.Display, protocol.Opt(protocol.DisplayInvert))
	if c.Image().BitAt(0, 0) != image1bit.Off || c.Image().BitAt(1, 0) != image1bit.On {
		t.Error("inverted image does not flip pixels")
	}
}

func mustCommand(t *testing.T, name string) protocol.Command {
	t.Helper()
	cmd, ok := protocol.NewSSD1306Table().Lookup(name)
	if !ok {
		t.Fatalf("no command %s", name)
	}
	return cmd
}
