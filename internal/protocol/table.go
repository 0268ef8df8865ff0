package protocol

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Command names of the SSD1306 table.
const (
	SetContrast              = "SET_CONTRAST"
	Display                  = "DISPLAY"
	ScrollHorizontal         = "SCROLL_HORIZONTAL"
	ScrollHorizontalVertical = "SCROLL_HORIZONTAL_VERTICAL"
	ScrollDeactivate         = "SCROLL_DEACTIVATE"
	ScrollActivate           = "SCROLL_ACTIVATE"
	SetVerticalScrollArea    = "SET_VERTICAL_SCROLL_AREA"
	SetMemoryAddressingMode  = "SET_MEMORY_ADDRESSING_MODE"
	PageModeSetPage          = "PA_MODE_SET_PAGE_ADDR"
	PageModeSetColumnLow     = "PA_MODE_SET_COLUMN_ADDR_LOW"
	PageModeSetColumnHigh    = "PA_MODE_SET_COLUMN_ADDR_HIGH"
	WindowSetPage            = "HAVA_MODE_SET_PAGE_ADDR"
	WindowSetColumn          = "HAVA_MODE_SET_COLUMN_ADDR"
	SetStartLine             = "SET_START_LINE"
	SegmentRemap             = "SEGMENT_REMAP"
	SetMultiplex             = "SET_MULTIPLEX"
	ComOutputScanDirection   = "COM_OUTPUT_SCAN_DIR"
	SetDisplayOffset         = "SET_DISPLAY_OFFSET"
	SetComPins               = "SET_COM_PINS"
	SetDisplayClockDivRatio  = "SET_DISPLAY_CLOCK_DIV_RATIO"
	SetPrechargePeriod       = "SET_PRECHARGE_PERIOD"
	SetVcomDeselectLevel     = "SET_VCOM_DESELECT_LEVEL"
	Nop                      = "NOP"
	ChargePump               = "CHARGE_PUMP"
)

// DISPLAY options.
const (
	DisplayAllOnResume byte = 0x0
	DisplayAllOn       byte = 0x1
	DisplayNormal      byte = 0x2
	DisplayInvert      byte = 0x3
	DisplayOff         byte = 0xA
	DisplayOn          byte = 0xB
)

// Scroll directions. Horizontal scrolling sets bit 0 for left; the
// combined vertical and horizontal scroll uses 0x29 and 0x2A.
const (
	ScrollRight         byte = 0x0
	ScrollLeft          byte = 0x1
	VerticalScrollRight byte = 0x1
	VerticalScrollLeft  byte = 0x2
)

// Hardware configuration options.
const (
	SegmentRemapColumn0   byte = 0x0
	SegmentRemapColumn127 byte = 0x1
	ComScanNormal         byte = 0x0
	ComScanReverse        byte = 0x8
)

// AddressingMode selects how the controller cursor advances after a data
// byte.
type AddressingMode byte

const (
	HorizontalMode AddressingMode = 0x0
	VerticalMode   AddressingMode = 0x1
	PageMode       AddressingMode = 0x2
)

func (m AddressingMode) String() string {
	switch m {
	case HorizontalMode:
		return "horizontal"
	case VerticalMode:
		return "vertical"
	case PageMode:
		return "page"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// Check reports whether the mode can be used. Vertical addressing is
// declared by the controller but never supported here.
func (m AddressingMode) Check() error {
	switch m {
	case HorizontalMode, PageMode:
		return nil
	case VerticalMode:
		return fmt.Errorf("%w: vertical addressing mode", ErrNotSupported)
	}
	return fmt.Errorf("%w: addressing mode %d", ErrInvalidOption, byte(m))
}

// ParseAddressingMode parses "page", "horizontal" or "vertical". Vertical
// parses but fails with ErrNotSupported.
func ParseAddressingMode(s string) (AddressingMode, error) {
	var m AddressingMode
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "page":
		m = PageMode
	case "horizontal":
		m = HorizontalMode
	case "vertical":
		m = VerticalMode
	default:
		return 0, fmt.Errorf("%w: addressing mode %q", ErrInvalidOption, s)
	}
	return m, m.Check()
}

// Table is an ordered registry of commands. Build one with NewTable or
// NewSSD1306Table and pass it to whatever encodes or decodes.
type Table struct {
	commands []Command
	byName   map[string]Command
	dispatch []Command
}

// NewTable registers commands in declaration order. The dispatch order
// puts commands with more fixed opcode bits first so that the narrowest
// pattern wins when two could match the same byte.
func NewTable(commands ...Command) *Table {
	t := &Table{
		commands: commands,
		byName:   make(map[string]Command, len(commands)),
		dispatch: make([]Command, len(commands)),
	}
	for _, c := range commands {
		if _, ok := t.byName[c.Name()]; ok {
			panic("protocol: duplicate command " + c.Name())
		}
		t.byName[c.Name()] = c
	}
	copy(t.dispatch, commands)
	sort.SliceStable(t.dispatch, func(i, j int) bool {
		return specificity(t.dispatch[i]) > specificity(t.dispatch[j])
	})
	return t
}

func specificity(c Command) int {
	return 8 - bits.OnesCount8(c.Mask())
}

// NewSSD1306Table returns the SSD1306 command set.
func NewSSD1306Table() *Table {
	comPins := NewMapped(SetComPins, 0xDA, 0x3,
		func(x byte) byte { return (x&0x03)<<4 | 0x02 },
		func(b byte) byte { return (b >> 4) & 0x03 })
	vcom := NewMapped(SetVcomDeselectLevel, 0xDB, 0x7,
		func(x byte) byte { return (x & 0x07) << 4 },
		func(b byte) byte { return (b >> 4) & 0x07 })
	chargePump := NewMapped(ChargePump, 0x8D, 0x1,
		func(x byte) byte { return (x&0x01)<<2 | 0x10 },
		func(b byte) byte { return (b >> 2) & 0x01 })

	return NewTable(
		// Fundamental
		NewWithArgs(SetContrast, 0x81, 1, nil),
		NewBitmask(Display, 0xA4, 0x0B,
			DisplayAllOnResume, DisplayAllOn, DisplayNormal, DisplayInvert, DisplayOff, DisplayOn),

		// Scrolling
		NewBitmaskWithArgs(ScrollHorizontal, 0x26, 0x01, []byte{ScrollRight, ScrollLeft},
			6, []byte{0x00, 0x07, 0x07, 0x07, 0x00, 0xFF}),
		NewBitmaskWithArgs(ScrollHorizontalVertical, 0x28, 0x03, []byte{VerticalScrollRight, VerticalScrollLeft},
			5, []byte{0x00, 0x07, 0x07, 0x07, 0x3F}),
		NewPlain(ScrollDeactivate, 0x2E),
		NewPlain(ScrollActivate, 0x2F),
		NewWithArgs(SetVerticalScrollArea, 0xA3, 2, []byte{0x3F, 0x7F}),

		// Addressing
		NewWithArgs(SetMemoryAddressingMode, 0x20, 1, []byte{0x03}),
		NewBitmask(PageModeSetPage, 0xB0, 0x07),
		NewBitmask(PageModeSetColumnLow, 0x00, 0x0F),
		NewBitmask(PageModeSetColumnHigh, 0x10, 0x0F),
		NewWithArgs(WindowSetPage, 0x22, 2, []byte{0x07, 0x07}),
		NewWithArgs(WindowSetColumn, 0x21, 2, []byte{0x7F, 0x7F}),

		// Hardware configuration
		NewBitmask(SetStartLine, 0x40, 0x3F),
		NewBitmask(SegmentRemap, 0xA0, 0x01, SegmentRemapColumn0, SegmentRemapColumn127),
		NewWithArgs(SetMultiplex, 0xA8, 1, []byte{0x3F}),
		NewBitmask(ComOutputScanDirection, 0xC0, 0x08, ComScanNormal, ComScanReverse),
		NewWithArgs(SetDisplayOffset, 0xD3, 1, []byte{0x3F}),
		comPins,

		// Timing and driving scheme
		NewWithArgs(SetDisplayClockDivRatio, 0xD5, 1, nil),
		NewWithArgs(SetPrechargePeriod, 0xD9, 1, nil),
		vcom,
		NewPlain(Nop, 0xE3),
		chargePump,
	)
}

// Lookup returns the command registered under name.
func (t *Table) Lookup(name string) (Command, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Commands returns the commands in declaration order.
func (t *Table) Commands() []Command {
	return append([]Command(nil), t.commands...)
}

// DispatchOrder returns the commands in the order a Dispatcher tries them.
func (t *Table) DispatchOrder() []Command {
	return append([]Command(nil), t.dispatch...)
}

// Encode encodes the named command.
func (t *Table) Encode(name string, f Fields) ([]byte, error) {
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return c.Encode(f)
}

// Sequence starts a command stream built against t.
func (t *Table) Sequence() *Sequence {
	return &Sequence{table: t}
}

// Sequence accumulates encoded commands. The first error sticks and is
// returned by Bytes.
type Sequence struct {
	table *Table
	buf   []byte
	err   error
}

func (s *Sequence) Add(name string, f Fields) *Sequence {
	if s.err != nil {
		return s
	}
	b, err := s.table.Encode(name, f)
	if err != nil {
		s.err = err
		return s
	}
	s.buf = append(s.buf, b...)
	return s
}

func (s *Sequence) Bytes() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.buf, nil
}
