package protocol

import (
	"errors"
	"testing"
)

func initSequence(t *testing.T, table *Table) []byte {
	t.Helper()
	b, err := table.Sequence().
		Add(Display, Opt(DisplayOff)).
		Add(SetDisplayClockDivRatio, Args(0x80)).
		Add(SetMultiplex, Args(0x1F)).
		Add(SetDisplayOffset, Args(0x00)).
		Add(SetStartLine, Opt(0x00)).
		Add(ChargePump, Args(1)).
		Add(SetMemoryAddressingMode, Args(byte(PageMode))).
		Add(SegmentRemap, Opt(SegmentRemapColumn127)).
		Add(ComOutputScanDirection, Opt(ComScanReverse)).
		Add(SetComPins, Args(0)).
		Add(SetContrast, Args(0x8F)).
		Add(SetPrechargePeriod, Args(0xF1)).
		Add(SetVcomDeselectLevel, Args(4)).
		Add(Display, Opt(DisplayAllOnResume)).
		Add(Display, Opt(DisplayNormal)).
		Add(ScrollDeactivate, Fields{}).
		Add(Display, Opt(DisplayOn)).
		Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDecodeInitSequence(t *testing.T) {
	table := NewSSD1306Table()
	decoded, err := NewDispatcher(table).DecodeAll(initSequence(t, table))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		Display, SetDisplayClockDivRatio, SetMultiplex, SetDisplayOffset, SetStartLine,
		ChargePump, SetMemoryAddressingMode, SegmentRemap, ComOutputScanDirection, SetComPins,
		SetContrast, SetPrechargePeriod, SetVcomDeselectLevel, Display, Display,
		ScrollDeactivate, Display,
	}
	if len(decoded) != len(want) {
		t.Fatalf("decoded %d commands, want %d", len(decoded), len(want))
	}
	for i, name := range want {
		if decoded[i].Name() != name {
			t.Errorf("command %d = %s, want %s", i, decoded[i].Name(), name)
		}
	}
	if decoded[5].Args[0] != 1 {
		t.Errorf("charge pump value = %d, want 1", decoded[5].Args[0])
	}
	if decoded[16].Option != DisplayOn {
		t.Errorf("last option = 0x%X, want 0x%X", decoded[16].Option, DisplayOn)
	}
}

func TestDecodeAllStopsOnGarbage(t *testing.T) {
	d := NewDispatcher(NewSSD1306Table())
	decoded, err := d.DecodeAll([]byte{0xE3, 0xFF, 0xE3})
	if !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("error = %v, want ErrMalformedCommand", err)
	}
	if len(decoded) != 1 {
		t.Errorf("decoded %d commands before the error, want 1", len(decoded))
	}
}

func TestDecodeAllResync(t *testing.T) {
	d := NewDispatcher(NewSSD1306Table())
	d.Resync = true
	decoded, err := d.DecodeAll([]byte{0xE3, 0xFF, 0xAC, 0xAF})
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d commands, want 2", len(decoded))
	}
	if decoded[0].Name() != Nop || decoded[1].Name() != Display {
		t.Errorf("decoded %s, %s", decoded[0].Name(), decoded[1].Name())
	}
}

func TestNextTruncatedArguments(t *testing.T) {
	d := NewDispatcher(NewSSD1306Table())
	if _, _, err := d.Next([]byte{0x81}); !errors.Is(err, ErrMalformedCommand) {
		t.Errorf("error = %v, want ErrMalformedCommand", err)
	}
	if _, _, err := d.Next(nil); !errors.Is(err, ErrMalformedCommand) {
		t.Errorf("error = %v, want ErrMalformedCommand", err)
	}
}

func TestNextRaw(t *testing.T) {
	d := NewDispatcher(NewSSD1306Table())
	dec, rest, err := d.Next([]byte{0x22, 0x00, 0x03, 0xAF})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Name() != WindowSetPage || len(dec.Raw) != 3 || len(rest) != 1 {
		t.Errorf("got %v raw=% X rest=% X", dec, dec.Raw, rest)
	}
}
