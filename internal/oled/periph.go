package oled

import (
	"fmt"
	"image"
	"sync"

	"github.com/jypelle/oledtile/internal/screen"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// PeriphDisplay drives the panel through the periph ssd1306 driver
// instead of the command codec. Rows are drawn into a frame buffer and
// the driver sends what changed.
type PeriphDisplay struct {
	dev      *ssd1306.Dev
	bus      i2c.BusCloser
	pages    int
	contrast byte

	lock sync.Mutex
	img  *image1bit.VerticalLSB
}

// NewPeriphDisplay takes ownership of bus.
func NewPeriphDisplay(bus i2c.BusCloser, pages, columns int) (*PeriphDisplay, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: columns, H: pages * 8})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize ssd1306 driver: %w", err)
	}
	return &PeriphDisplay{
		dev:      dev,
		bus:      bus,
		pages:    pages,
		contrast: 0x7F,
		img:      image1bit.NewVerticalLSB(image.Rect(0, 0, columns, pages*8)),
	}, nil
}

// Send implements screen.Sink.
func (p *PeriphDisplay) Send(page, column int, data []byte) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if page < 0 || page >= p.pages || column < 0 || column+len(data) > p.img.Stride {
		logrus.Warnf("Row of %d bytes at page %d column %d is off the panel", len(data), page, column)
		return false
	}
	offset := page*p.img.Stride + column
	copy(p.img.Pix[offset:offset+len(data)], data)

	r := image.Rect(column, page*8, column+len(data), page*8+8)
	if err := p.dev.Draw(r, p.img, r.Min); err != nil {
		logrus.Warnf("Unable to draw page %d: %v", page, err)
		return false
	}
	return true
}

func (p *PeriphDisplay) Sink() screen.Sink {
	return p
}

func (p *PeriphDisplay) SetContrast(level byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.dev.SetContrast(level); err != nil {
		return err
	}
	p.contrast = level
	return nil
}

// SetOn wakes the panel up after SetOff. The driver has no power-on call
// but turns a halted display back on before its next command.
func (p *PeriphDisplay) SetOn() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.SetContrast(p.contrast)
}

func (p *PeriphDisplay) SetOff() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.Halt()
}

func (p *PeriphDisplay) Invert(inverted bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.Invert(inverted)
}

func (p *PeriphDisplay) Close() error {
	return p.bus.Close()
}
