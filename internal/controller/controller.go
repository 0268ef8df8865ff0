// Package controller emulates the display RAM and address pointers of an
// SSD1306-class controller. It is driven by decoded commands and data
// bytes, the way the chip is, and is used by the simulator and by tests
// that check what a flush actually left on the panel.
package controller

import (
	"errors"
	"fmt"
	"image"

	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/sirupsen/logrus"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var ErrOutOfRange = errors.New("controller: address out of range")

// Controller holds the GDDRAM and cursor state. It is not safe for
// concurrent use.
type Controller struct {
	pages   int
	columns int

	mode   protocol.AddressingMode
	page   int
	column int

	pageStart, pageEnd int
	colStart, colEnd   int

	ram [][]byte

	on        bool
	inverted  bool
	allOn     bool
	contrast  byte
	startLine byte
}

func New(pages, columns int) *Controller {
	c := &Controller{pages: pages, columns: columns}
	c.Reset()
	return c
}

// Reset restores the power-on state: page addressing, cursor at 0,0,
// full address windows, display off, RAM cleared.
func (c *Controller) Reset() {
	c.mode = protocol.PageMode
	c.page, c.column = 0, 0
	c.pageStart, c.pageEnd = 0, c.pages-1
	c.colStart, c.colEnd = 0, c.columns-1
	c.ram = make([][]byte, c.pages)
	for p := range c.ram {
		c.ram[p] = make([]byte, c.columns)
	}
	c.on = false
	c.inverted = false
	c.allOn = false
	c.contrast = 0x7F
	c.startLine = 0
}

func (c *Controller) Pages() int {
	return c.pages
}

func (c *Controller) Columns() int {
	return c.columns
}

func (c *Controller) Mode() protocol.AddressingMode {
	return c.mode
}

// Cursor returns the page and column the next data byte is written to.
func (c *Controller) Cursor() (page, column int) {
	return c.page, c.column
}

func (c *Controller) On() bool {
	return c.on
}

func (c *Controller) SetOn(on bool) {
	c.on = on
}

func (c *Controller) Inverted() bool {
	return c.inverted
}

func (c *Controller) Contrast() byte {
	return c.contrast
}

func (c *Controller) SetMode(m protocol.AddressingMode) error {
	if err := m.Check(); err != nil {
		return err
	}
	c.mode = m
	return nil
}

// SetPage moves the cursor to page p.
func (c *Controller) SetPage(p int) error {
	if p < 0 || p >= c.pages {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, p, c.pages)
	}
	c.page = p
	return nil
}

// SetColumn moves the cursor to column col.
func (c *Controller) SetColumn(col int) error {
	if col < 0 || col >= c.columns {
		return fmt.Errorf("%w: column %d of %d", ErrOutOfRange, col, c.columns)
	}
	c.column = col
	return nil
}

// Apply executes one decoded command. Commands that only affect the
// analog side of the panel are accepted and ignored.
func (c *Controller) Apply(d protocol.Decoded) error {
	switch d.Name() {
	case protocol.SetMemoryAddressingMode:
		return c.SetMode(protocol.AddressingMode(d.Args[0]))
	case protocol.PageModeSetPage:
		return c.SetPage(int(d.Option))
	case protocol.PageModeSetColumnLow:
		c.column = c.column&0xF0 | int(d.Option)
	case protocol.PageModeSetColumnHigh:
		c.column = c.column&0x0F | int(d.Option)<<4
	case protocol.WindowSetPage:
		start, end := int(d.Args[0]), int(d.Args[1])
		if start > end || end >= c.pages {
			return fmt.Errorf("%w: page window %d-%d of %d", ErrOutOfRange, start, end, c.pages)
		}
		c.pageStart, c.pageEnd = start, end
		c.page = start
	case protocol.WindowSetColumn:
		start, end := int(d.Args[0]), int(d.Args[1])
		if start > end || end >= c.columns {
			return fmt.Errorf("%w: column window %d-%d of %d", ErrOutOfRange, start, end, c.columns)
		}
		c.colStart, c.colEnd = start, end
		c.column = start
	case protocol.Display:
		switch d.Option {
		case protocol.DisplayOn:
			c.on = true
		case protocol.DisplayOff:
			c.on = false
		case protocol.DisplayNormal:
			c.inverted = false
		case protocol.DisplayInvert:
			c.inverted = true
		case protocol.DisplayAllOn:
			c.allOn = true
		case protocol.DisplayAllOnResume:
			c.allOn = false
		}
	case protocol.SetContrast:
		c.contrast = d.Args[0]
	case protocol.SetStartLine:
		c.startLine = d.Option
	default:
		logrus.Debugf("Controller ignores %s", d.Name())
	}
	return nil
}

// Write stores data at the cursor, advancing it after every byte.
func (c *Controller) Write(data []byte) error {
	for _, b := range data {
		if c.page >= c.pages || c.column >= c.columns {
			return fmt.Errorf("%w: cursor at page %d column %d", ErrOutOfRange, c.page, c.column)
		}
		c.ram[c.page][c.column] = b
		c.advance()
	}
	return nil
}

func (c *Controller) advance() {
	switch c.mode {
	case protocol.PageMode:
		c.column = (c.column + 1) % c.columns
	case protocol.HorizontalMode:
		if c.column < c.colEnd {
			c.column++
			return
		}
		c.column = c.colStart
		if c.page < c.pageEnd {
			c.page++
		} else {
			c.page = c.pageStart
		}
	}
}

// Page returns a copy of RAM page p.
func (c *Controller) Page(p int) ([]byte, error) {
	if p < 0 || p >= c.pages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, p, c.pages)
	}
	return append([]byte(nil), c.ram[p]...), nil
}

// Image renders what the panel shows: RAM through the on, invert and
// entire-display-on states, shifted by the start line.
func (c *Controller) Image() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, c.columns, c.pages*8))
	if !c.on {
		return img
	}
	rows := c.pages * 8
	for y := 0; y < rows; y++ {
		src := (y + int(c.startLine)) % rows
		for x := 0; x < c.columns; x++ {
			lit := c.allOn || c.ram[src/8][x]>>(uint(src)%8)&0x1 == 0x1
			if lit != c.inverted {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img
}
