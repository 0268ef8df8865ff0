package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/oledtile/internal/oled"
	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Driver is a panel backend: oled.Display or oled.PeriphDisplay.
type Driver interface {
	Sink() screen.Sink
	SetContrast(level byte) error
	SetOn() error
	SetOff() error
	Invert(inverted bool) error
	Close() error
}

type fader interface {
	FadeTo(ctx context.Context, target byte, duration time.Duration) error
}

type Display struct {
	param config.DisplayParam

	lock     sync.RWMutex
	driver   Driver
	on       bool
	inverted bool
	contrast byte
}

func NewDisplay(param config.DisplayParam) *Display {
	return &Display{param: param}
}

// NewDisplayWithDriver wraps an already initialized driver.
func NewDisplayWithDriver(driver Driver, on bool, contrast byte) *Display {
	return &Display{driver: driver, on: on, contrast: contrast}
}

// Start opens the configured backend, initializes the panel and brings it
// to the given power state and contrast.
func (d *Display) Start(on bool, contrast byte) error {
	logrus.Infof("Start display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	var err error
	switch d.param.Backend {
	case config.PeriphBackend:
		d.driver, err = d.openPeriph()
	default:
		d.driver, err = d.openCodec()
	}
	if err != nil {
		return err
	}

	if f, ok := d.driver.(fader); ok && d.param.FadeMs > 0 && on {
		err = f.FadeTo(context.Background(), contrast, time.Duration(d.param.FadeMs)*time.Millisecond)
	} else {
		err = d.driver.SetContrast(contrast)
	}
	if err != nil {
		return fmt.Errorf("unable to set contrast: %w", err)
	}
	d.contrast = contrast
	d.on = true
	if !on {
		return d.setOff()
	}
	return nil
}

func (d *Display) openCodec() (Driver, error) {
	mode, err := d.param.AddressingMode()
	if err != nil {
		return nil, err
	}
	address := byte(d.param.Address)

	if d.param.ResetChip != "" {
		reset, err := oled.OpenResetLine(d.param.ResetChip, d.param.ResetLine)
		if err != nil {
			return nil, err
		}
		err = reset.Pulse(10 * time.Millisecond)
		reset.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to reset display: %w", err)
		}
	}

	var link oled.Link
	if d.param.Link == config.UdpLink {
		link, err = oled.DialUDP(d.param.Simulator)
	} else {
		link, err = oled.OpenI2C(d.param.I2cBus, address)
	}
	if err != nil {
		return nil, err
	}

	display, err := oled.New(link, protocol.NewSSD1306Table(), &oled.Opts{
		Pages:          d.param.Pages,
		Columns:        d.param.Columns,
		Address:        address,
		Mode:           mode,
		SegmentRemap:   d.param.SegmentRemap,
		ComScanReverse: d.param.ComScanReverse,
	})
	if err != nil {
		link.Close()
		return nil, err
	}
	if err = display.Init(); err != nil {
		link.Close()
		return nil, err
	}
	return display, nil
}

func (d *Display) openPeriph() (Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(d.param.I2cBus)
	if err != nil {
		return nil, fmt.Errorf("unable to open i2c bus: %w", err)
	}
	display, err := oled.NewPeriphDisplay(bus, d.param.Pages, d.param.Columns)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return display, nil
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.driver == nil {
		return
	}
	if err := d.driver.Close(); err != nil {
		logrus.Warnf("Unable to close display: %v", err)
	}
	d.driver = nil
}

// Sink returns where tile rows go.
func (d *Display) Sink() screen.Sink {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.driver.Sink()
}

func (d *Display) SetOff() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setOff()
}

func (d *Display) setOff() error {
	if err := d.driver.SetOff(); err != nil {
		return err
	}
	d.on = false
	return nil
}

func (d *Display) SetOn() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setOn()
}

func (d *Display) setOn() error {
	if err := d.driver.SetOn(); err != nil {
		return err
	}
	d.on = true
	return nil
}

// Switch toggles the power state and returns the new one.
func (d *Display) Switch() (bool, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	var err error
	if d.on {
		err = d.setOff()
	} else {
		err = d.setOn()
	}
	return d.on, err
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

// Invert swaps lit and dark pixels without touching the tiles.
func (d *Display) Invert(inverted bool) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.driver.Invert(inverted); err != nil {
		return err
	}
	d.inverted = inverted
	return nil
}

func (d *Display) IsInverted() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.inverted
}

func (d *Display) Contrast() byte {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.contrast
}

func (d *Display) SetContrast(level byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.driver.SetContrast(level); err != nil {
		return err
	}
	d.contrast = level
	return nil
}

// StepContrast moves the contrast by delta, clamped to 0..255.
func (d *Display) StepContrast(delta int64) (byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	level := int64(d.contrast) + delta
	if level < 0 {
		level = 0
	} else if level > 255 {
		level = 255
	}
	if err := d.driver.SetContrast(byte(level)); err != nil {
		return d.contrast, err
	}
	d.contrast = byte(level)
	return d.contrast, nil
}
