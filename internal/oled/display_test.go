package oled

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jypelle/oledtile/internal/font"
	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/jypelle/oledtile/internal/sim"
)

// panelLink delivers transfers straight to a simulated panel.
type panelLink struct {
	panel *sim.Panel
}

func (l panelLink) Tx(frame []byte) error {
	return l.panel.HandleFrame(frame)
}

func (l panelLink) Close() error {
	return nil
}

func newDisplay(t *testing.T, link Link, mode protocol.AddressingMode) *Display {
	t.Helper()
	d, err := New(link, protocol.NewSSD1306Table(), &Opts{Pages: 4, Columns: 128, Mode: mode, Contrast: 0xCF})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewValidates(t *testing.T) {
	table := protocol.NewSSD1306Table()
	tests := []struct {
		name string
		opts Opts
		want error
	}{
		{"no pages", Opts{Pages: 0, Columns: 128}, ErrOutOfRange},
		{"too many pages", Opts{Pages: 9, Columns: 128}, ErrOutOfRange},
		{"too many columns", Opts{Pages: 4, Columns: 129}, ErrOutOfRange},
		{"vertical", Opts{Pages: 4, Columns: 128, Mode: protocol.VerticalMode}, protocol.ErrNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&MemoryLink{}, table, &tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	d, err := New(&MemoryLink{}, table, &Opts{Pages: 4, Columns: 128})
	if err != nil {
		t.Fatal(err)
	}
	if o := d.Opts(); o.Address != protocol.DefaultAddress || o.ChunkSize != DefaultChunkSize {
		t.Errorf("defaults = %+v", o)
	}
}

func TestInitSequence(t *testing.T) {
	link := &MemoryLink{}
	d := newDisplay(t, link, protocol.PageMode)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	frames := link.Frames()
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	f, err := protocol.DecodeFrame(frames[0])
	if err != nil {
		t.Fatal(err)
	}
	if f.Address != protocol.DefaultAddress || f.IsData() {
		t.Fatalf("frame = %+v", f)
	}
	cmds, err := protocol.NewDispatcher(protocol.NewSSD1306Table()).DecodeAll(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 17 {
		t.Fatalf("decoded %d commands, want 17", len(cmds))
	}
	if cmds[0].Name() != protocol.Display || cmds[0].Option != protocol.DisplayOff {
		t.Errorf("first command = %v", cmds[0])
	}
	if last := cmds[16]; last.Name() != protocol.Display || last.Option != protocol.DisplayOn {
		t.Errorf("last command = %v", last)
	}
	for _, c := range cmds {
		switch c.Name() {
		case protocol.SetMultiplex:
			if c.Args[0] != 31 {
				t.Errorf("multiplex = %d, want 31", c.Args[0])
			}
		case protocol.SetContrast:
			if c.Args[0] != 0xCF {
				t.Errorf("contrast = %02X", c.Args[0])
			}
		case protocol.SetMemoryAddressingMode:
			if protocol.AddressingMode(c.Args[0]) != protocol.PageMode {
				t.Errorf("mode = %d", c.Args[0])
			}
		}
	}
	if !d.IsOn() || d.Contrast() != 0xCF {
		t.Errorf("on = %v contrast = %02X", d.IsOn(), d.Contrast())
	}
}

func TestWriteRowFraming(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	tests := []struct {
		mode protocol.AddressingMode
		cmds []byte
	}{
		{protocol.PageMode, []byte{0xB2, 0x05, 0x10}},
		{protocol.HorizontalMode, []byte{0x22, 0x02, 0x02, 0x21, 0x05, 0x2C}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			link := &MemoryLink{}
			d := newDisplay(t, link, tt.mode)
			if err := d.WriteRow(2, 5, data); err != nil {
				t.Fatal(err)
			}
			want := [][]byte{
				protocol.CommandFrame(protocol.DefaultAddress, tt.cmds),
				protocol.DataFrame(protocol.DefaultAddress, data[:32]),
				protocol.DataFrame(protocol.DefaultAddress, data[32:]),
			}
			got := link.Frames()
			if len(got) != len(want) {
				t.Fatalf("frames = % X", got)
			}
			for i := range want {
				if !bytes.Equal(got[i], want[i]) {
					t.Errorf("frame %d = % X, want % X", i, got[i], want[i])
				}
			}
		})
	}
}

func TestWriteRowOutOfRange(t *testing.T) {
	link := &MemoryLink{}
	d := newDisplay(t, link, protocol.PageMode)
	for _, c := range []struct{ page, column, n int }{
		{4, 0, 1}, {-1, 0, 1}, {0, 120, 9}, {0, -1, 1},
	} {
		if err := d.WriteRow(c.page, c.column, make([]byte, c.n)); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("WriteRow(%d, %d, %d bytes) = %v", c.page, c.column, c.n, err)
		}
	}
	if len(link.Frames()) != 0 {
		t.Error("frames sent for rejected rows")
	}
}

// Whatever goes through the sink ends up in controller RAM exactly as the
// layout holds it, in both addressing modes.
func TestSinkMatchesLayout(t *testing.T) {
	for _, mode := range []protocol.AddressingMode{protocol.PageMode, protocol.HorizontalMode} {
		t.Run(mode.String(), func(t *testing.T) {
			panel := sim.NewPanel(protocol.NewSSD1306Table(), protocol.DefaultAddress, 4, 128)
			d := newDisplay(t, panelLink{panel}, mode)
			if err := d.Init(); err != nil {
				t.Fatal(err)
			}

			layout, _ := screen.NewLayout(4, 128)
			for _, r := range [][4]int{{0, 0, 0, 63}, {0, 64, 1, 127}, {2, 10, 3, 40}} {
				if _, err := layout.AddTile(r[0], r[1], r[2], r[3]); err != nil {
					t.Fatal(err)
				}
			}
			p := screen.NewPrinter(layout, true)
			sink := d.Sink()
			if err := p.Print(0, "12:34", font.Tiny(), sink); err != nil {
				t.Fatal(err)
			}
			if err := p.Print(1, "Hi", font.Basic(), sink); err != nil {
				t.Fatal(err)
			}
			if err := p.Print(2, "OK", font.Basic(), sink); err != nil {
				t.Fatal(err)
			}

			img := layout.Image()
			for page := 0; page < 4; page++ {
				got, err := panel.Page(page)
				if err != nil {
					t.Fatal(err)
				}
				want := img.Pix[page*img.Stride : (page+1)*img.Stride]
				if !bytes.Equal(got, want) {
					t.Errorf("page %d\n got % X\nwant % X", page, got, want)
				}
			}
		})
	}
}

func TestSinkReportsLinkFailure(t *testing.T) {
	link := &MemoryLink{Fail: func(frame []byte) bool {
		f, _ := protocol.DecodeFrame(frame)
		return f.IsData()
	}}
	d := newDisplay(t, link, protocol.PageMode)
	layout, _ := screen.NewLayout(4, 128)
	tile, _ := layout.AddTile(1, 0, 1, 7)
	tile.Write(0, 0, 0xFF)
	if tile.Flush(d.Sink(), false) {
		t.Fatal("flush succeeded on a failing link")
	}
	if !tile.Dirty() {
		t.Error("tile is clean after a failed flush")
	}

	link.Fail = nil
	if !tile.Flush(d.Sink(), false) {
		t.Fatal("retry failed")
	}
	if v, _ := tile.ReadAt(0, 0); v != 0xFF {
		t.Errorf("shadow = %02X", v)
	}
}

func TestPowerAndContrast(t *testing.T) {
	link := &MemoryLink{}
	d := newDisplay(t, link, protocol.PageMode)
	if err := d.SetOn(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetContrast(0x42); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetOff(); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{
		protocol.CommandFrame(protocol.DefaultAddress, []byte{0xAF}),
		protocol.CommandFrame(protocol.DefaultAddress, []byte{0x81, 0x42}),
		protocol.CommandFrame(protocol.DefaultAddress, []byte{0xA7}),
		protocol.CommandFrame(protocol.DefaultAddress, []byte{0xAE}),
	}
	got := link.Frames()
	if len(got) != len(want) {
		t.Fatalf("frames = % X", got)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d = % X, want % X", i, got[i], want[i])
		}
	}
	if d.IsOn() || d.Contrast() != 0x42 {
		t.Errorf("on = %v contrast = %02X", d.IsOn(), d.Contrast())
	}
}

func TestFadeTo(t *testing.T) {
	link := &MemoryLink{}
	d := newDisplay(t, link, protocol.PageMode)
	if err := d.SetContrast(0xC0); err != nil {
		t.Fatal(err)
	}
	if err := d.FadeTo(context.Background(), 0x10, 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if d.Contrast() != 0x10 {
		t.Errorf("contrast = %02X, want 10", d.Contrast())
	}
	if n := len(link.Frames()); n < 3 {
		t.Errorf("fade sent %d frames", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.FadeTo(ctx, 0xFF, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled fade = %v", err)
	}
}
