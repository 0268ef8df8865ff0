// Package oled drives a real (or simulated) SSD1306 panel: power-up
// sequence, contrast and power control, and a screen.Sink that streams
// tile rows as address-window commands followed by data.
package oled

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

var ErrOutOfRange = errors.New("oled: address out of range")

// The USB and Linux I2C adapters move at most 32 bytes per block.
const DefaultChunkSize = 32

const fadeStep = 20 * time.Millisecond

type Opts struct {
	Pages   int
	Columns int
	Address byte
	Mode    protocol.AddressingMode
	// Contrast applied by Init.
	Contrast byte
	// SegmentRemap mirrors columns, ComScanReverse mirrors rows. Both
	// set rotates the picture by 180 degrees.
	SegmentRemap   bool
	ComScanReverse bool
	// ChunkSize bounds data transfers, DefaultChunkSize when zero.
	ChunkSize int
}

type Display struct {
	table *protocol.Table
	link  Link
	opts  Opts

	lock     sync.RWMutex
	contrast byte
	on       bool
	inverted bool
}

func New(link Link, table *protocol.Table, opts *Opts) (*Display, error) {
	o := *opts
	if o.Pages <= 0 || o.Pages > 8 || o.Columns <= 0 || o.Columns > 128 {
		return nil, fmt.Errorf("%w: panel of %d pages x %d columns", ErrOutOfRange, o.Pages, o.Columns)
	}
	if err := o.Mode.Check(); err != nil {
		return nil, err
	}
	if o.Address == 0 {
		o.Address = protocol.DefaultAddress
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return &Display{table: table, link: link, opts: o, contrast: o.Contrast}, nil
}

func (d *Display) Opts() Opts {
	return d.opts
}

// Init runs the power-up sequence and switches the panel on.
func (d *Display) Init() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	remap := protocol.SegmentRemapColumn0
	if d.opts.SegmentRemap {
		remap = protocol.SegmentRemapColumn127
	}
	scan := protocol.ComScanNormal
	if d.opts.ComScanReverse {
		scan = protocol.ComScanReverse
	}
	var comPins byte
	if d.opts.Pages > 4 {
		comPins = 1
	}

	seq := d.table.Sequence().
		Add(protocol.Display, protocol.Opt(protocol.DisplayOff)).
		Add(protocol.SetDisplayClockDivRatio, protocol.Args(0x80)).
		Add(protocol.SetMultiplex, protocol.Args(byte(d.opts.Pages*8-1))).
		Add(protocol.SetDisplayOffset, protocol.Args(0x00)).
		Add(protocol.SetStartLine, protocol.Opt(0x00)).
		Add(protocol.ChargePump, protocol.Args(1)).
		Add(protocol.SetMemoryAddressingMode, protocol.Args(byte(d.opts.Mode))).
		Add(protocol.SegmentRemap, protocol.Opt(remap)).
		Add(protocol.ComOutputScanDirection, protocol.Opt(scan)).
		Add(protocol.SetComPins, protocol.Args(comPins)).
		Add(protocol.SetContrast, protocol.Args(d.opts.Contrast)).
		Add(protocol.SetPrechargePeriod, protocol.Args(0xF1)).
		Add(protocol.SetVcomDeselectLevel, protocol.Args(4)).
		Add(protocol.Display, protocol.Opt(protocol.DisplayAllOnResume)).
		Add(protocol.Display, protocol.Opt(protocol.DisplayNormal)).
		Add(protocol.ScrollDeactivate, protocol.Fields{}).
		Add(protocol.Display, protocol.Opt(protocol.DisplayOn))
	if err := d.send(seq); err != nil {
		return fmt.Errorf("unable to initialize display: %w", err)
	}
	d.contrast = d.opts.Contrast
	d.on = true
	d.inverted = false
	logrus.Infof("Display %dx%d initialized in %v addressing mode", d.opts.Columns, d.opts.Pages*8, d.opts.Mode)
	return nil
}

func (d *Display) send(seq *protocol.Sequence) error {
	cmds, err := seq.Bytes()
	if err != nil {
		return err
	}
	logrus.Debugf("Display commands: % X", cmds)
	return d.link.Tx(protocol.CommandFrame(d.opts.Address, cmds))
}

func (d *Display) Contrast() byte {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.contrast
}

func (d *Display) SetContrast(level byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setContrast(level)
}

func (d *Display) setContrast(level byte) error {
	if err := d.send(d.table.Sequence().Add(protocol.SetContrast, protocol.Args(level))); err != nil {
		return err
	}
	d.contrast = level
	return nil
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

func (d *Display) SetOn() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setPower(true)
}

func (d *Display) SetOff() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setPower(false)
}

func (d *Display) setPower(on bool) error {
	option := protocol.DisplayOff
	if on {
		option = protocol.DisplayOn
	}
	if err := d.send(d.table.Sequence().Add(protocol.Display, protocol.Opt(option))); err != nil {
		return err
	}
	d.on = on
	return nil
}

func (d *Display) Invert(inverted bool) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	option := protocol.DisplayNormal
	if inverted {
		option = protocol.DisplayInvert
	}
	if err := d.send(d.table.Sequence().Add(protocol.Display, protocol.Opt(option))); err != nil {
		return err
	}
	d.inverted = inverted
	return nil
}

// FadeTo moves the contrast to target over duration with an ease-in-out
// curve.
func (d *Display) FadeTo(ctx context.Context, target byte, duration time.Duration) error {
	if duration <= 0 {
		return d.SetContrast(target)
	}
	tween := gween.New(float32(d.Contrast()), float32(target), float32(duration.Seconds()), ease.InOutQuad)
	ticker := time.NewTicker(fadeStep)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			value, finished := tween.Update(float32(now.Sub(last).Seconds()))
			last = now
			if err := d.SetContrast(byte(value + 0.5)); err != nil {
				return err
			}
			if finished {
				return nil
			}
		}
	}
}

// WriteRow points the controller at page and column and writes data
// there, in chunks of at most ChunkSize bytes.
func (d *Display) WriteRow(page, column int, data []byte) error {
	if page < 0 || page >= d.opts.Pages || column < 0 || column+len(data) > d.opts.Columns {
		return fmt.Errorf("%w: %d bytes at page %d column %d", ErrOutOfRange, len(data), page, column)
	}
	if len(data) == 0 {
		return nil
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	seq := d.table.Sequence()
	switch d.opts.Mode {
	case protocol.HorizontalMode:
		seq.Add(protocol.WindowSetPage, protocol.Args(byte(page), byte(page))).
			Add(protocol.WindowSetColumn, protocol.Args(byte(column), byte(column+len(data)-1)))
	case protocol.PageMode:
		seq.Add(protocol.PageModeSetPage, protocol.Opt(byte(page))).
			Add(protocol.PageModeSetColumnLow, protocol.Opt(byte(column)&0x0F)).
			Add(protocol.PageModeSetColumnHigh, protocol.Opt(byte(column)>>4))
	}
	if err := d.send(seq); err != nil {
		return err
	}
	for len(data) > 0 {
		n := d.opts.ChunkSize
		if n > len(data) {
			n = len(data)
		}
		if err := d.link.Tx(protocol.DataFrame(d.opts.Address, data[:n])); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Sink adapts WriteRow to screen.Sink. Transport errors are logged and
// reported as a refused row.
func (d *Display) Sink() screen.Sink {
	return screen.SinkFunc(func(page, column int, data []byte) bool {
		if err := d.WriteRow(page, column, data); err != nil {
			logrus.Warnf("Unable to write %d bytes at page %d column %d: %v", len(data), page, column, err)
			return false
		}
		return true
	})
}

func (d *Display) Close() error {
	return d.link.Close()
}
