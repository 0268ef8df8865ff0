package oled

import (
	"fmt"
	"net"
	"sync"

	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Link carries framed transfers (address byte, control byte, payload) to
// the controller.
type Link interface {
	Tx(frame []byte) error
	Close() error
}

// I2CLink talks to the controller over a periph I2C bus. The bus adds the
// address byte itself, so only control byte and payload are written.
type I2CLink struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenI2C opens busName ("" for the first bus) for the device at address.
func OpenI2C(busName string, address byte) (*I2CLink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("unable to initialize periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("unable to open i2c bus %q: %w", busName, err)
	}
	logrus.Infof("I2C bus %s opened for device 0x%02X", bus, address)
	return NewI2CLink(bus, address), nil
}

func NewI2CLink(bus i2c.BusCloser, address byte) *I2CLink {
	return &I2CLink{bus: bus, dev: &i2c.Dev{Bus: bus, Addr: uint16(address)}}
}

func (l *I2CLink) Tx(frame []byte) error {
	f, err := protocol.DecodeFrame(frame)
	if err != nil {
		return err
	}
	if uint16(f.Address) != l.dev.Addr {
		return fmt.Errorf("frame for 0x%02X on link to 0x%02X", f.Address, l.dev.Addr)
	}
	return l.dev.Tx(frame[1:], nil)
}

func (l *I2CLink) Close() error {
	return l.bus.Close()
}

// UDPLink sends every transfer as one datagram to a simulator.
type UDPLink struct {
	conn *net.UDPConn
}

func DialUDP(address string) (*UDPLink, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Sending display traffic to simulator %s", addr)
	return &UDPLink{conn: conn}, nil
}

func (l *UDPLink) Tx(frame []byte) error {
	_, err := l.conn.Write(frame)
	return err
}

func (l *UDPLink) Close() error {
	return l.conn.Close()
}

// MemoryLink records transfers. Fail, when set, makes Tx return an error
// for the transfers it selects.
type MemoryLink struct {
	lock   sync.Mutex
	frames [][]byte
	Fail   func(frame []byte) bool
}

func (l *MemoryLink) Tx(frame []byte) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.Fail != nil && l.Fail(frame) {
		return fmt.Errorf("refused transfer of %d bytes", len(frame))
	}
	l.frames = append(l.frames, append([]byte(nil), frame...))
	return nil
}

func (l *MemoryLink) Close() error {
	return nil
}

// Frames returns the accepted transfers.
func (l *MemoryLink) Frames() [][]byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([][]byte(nil), l.frames...)
}

func (l *MemoryLink) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.frames = nil
}
