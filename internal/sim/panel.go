// Package sim emulates an SSD1306 panel fed over UDP, either with framed
// transfers (as produced by oled.UDPLink) or with a line-oriented text
// protocol:
//
//	page N            select page N
//	col N             select column N
//	write HH HH ...   store hex bytes at the cursor
//	mode page|horizontal|vertical
package sim

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jypelle/oledtile/internal/controller"
	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/sirupsen/logrus"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var (
	ErrUnknownRequest = errors.New("sim: unknown request")
	ErrNoWindow       = errors.New("sim: no window support on this platform")
)

// Panel is a controller behind a mutex, with a dispatcher for its command
// streams and a change counter for views.
type Panel struct {
	address    byte
	dispatcher *protocol.Dispatcher

	lock     sync.RWMutex
	ctrl     *controller.Controller
	revision uint64
}

func NewPanel(table *protocol.Table, address byte, pages, columns int) *Panel {
	d := protocol.NewDispatcher(table)
	d.Resync = true
	ctrl := controller.New(pages, columns)
	// Shows what it gets without waiting for an init sequence.
	ctrl.SetOn(true)
	return &Panel{address: address, dispatcher: d, ctrl: ctrl}
}

// Handle processes one datagram, binary or text.
func (p *Panel) Handle(datagram []byte) error {
	if protocol.LooksLikeFrame(datagram, p.address) {
		return p.HandleFrame(datagram)
	}
	return p.HandleText(string(datagram))
}

func (p *Panel) HandleFrame(buf []byte) error {
	f, err := protocol.DecodeFrame(buf)
	if err != nil {
		return err
	}
	if f.Address != p.address {
		logrus.Debugf("Ignoring frame for 0x%02X", f.Address)
		return nil
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	defer p.touch()

	if f.IsData() {
		return p.ctrl.Write(f.Payload)
	}
	cmds, err := p.dispatcher.DecodeAll(f.Payload)
	for _, c := range cmds {
		logrus.Debugf("Simulator applies %v", c)
		if aerr := p.ctrl.Apply(c); aerr != nil {
			return aerr
		}
	}
	return err
}

// HandleText runs every line of msg.
func (p *Panel) HandleText(msg string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	defer p.touch()

	for _, line := range strings.Split(msg, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := p.runLine(fields[0], fields[1:]); err != nil {
			return fmt.Errorf("%q: %w", strings.TrimSpace(line), err)
		}
	}
	return nil
}

func (p *Panel) runLine(cmd string, args []string) error {
	switch cmd {
	case "page", "col":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s takes one value", ErrUnknownRequest, cmd)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		if cmd == "page" {
			return p.ctrl.SetPage(v)
		}
		return p.ctrl.SetColumn(v)
	case "write":
		data := make([]byte, 0, len(args))
		for _, a := range args {
			b, err := strconv.ParseUint(a, 16, 8)
			if err != nil {
				return err
			}
			data = append(data, byte(b))
		}
		return p.ctrl.Write(data)
	case "mode":
		if len(args) != 1 {
			return fmt.Errorf("%w: mode takes one value", ErrUnknownRequest)
		}
		m, err := protocol.ParseAddressingMode(args[0])
		if err != nil {
			return err
		}
		return p.ctrl.SetMode(m)
	}
	return fmt.Errorf("%w: %s", ErrUnknownRequest, cmd)
}

func (p *Panel) touch() {
	p.revision++
}

// Revision changes every time a datagram is handled.
func (p *Panel) Revision() uint64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.revision
}

func (p *Panel) Page(page int) ([]byte, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.ctrl.Page(page)
}

func (p *Panel) Cursor() (page, column int) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.ctrl.Cursor()
}

func (p *Panel) Mode() protocol.AddressingMode {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.ctrl.Mode()
}

func (p *Panel) Contrast() byte {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.ctrl.Contrast()
}

func (p *Panel) Pages() int {
	return p.ctrl.Pages()
}

func (p *Panel) Columns() int {
	return p.ctrl.Columns()
}

// Image renders what the panel currently shows.
func (p *Panel) Image() *image1bit.VerticalLSB {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.ctrl.Image()
}

// Snapshot writes the panel as a PNG.
func (p *Panel) Snapshot(w io.Writer) error {
	return png.Encode(w, p.Image())
}
