package sim

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultListenAddress = "0.0.0.0:12345"

const maxDatagram = 2048

// Server feeds UDP datagrams to a Panel.
type Server struct {
	panel *Panel

	lock sync.Mutex
	conn *net.UDPConn
	done chan struct{}
}

func NewServer(panel *Panel) *Server {
	return &Server{panel: panel}
}

// Listen binds address ("" for DefaultListenAddress).
func (s *Server) Listen(address string) error {
	if address == "" {
		address = DefaultListenAddress
	}
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.conn = conn
	s.done = make(chan struct{})
	logrus.Infof("Listening for display traffic on %s", conn.LocalAddr())
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Serve handles datagrams until ctx is done. Bad datagrams are logged and
// skipped.
func (s *Server) Serve(ctx context.Context) error {
	s.lock.Lock()
	conn, done := s.conn, s.done
	s.lock.Unlock()
	if conn == nil {
		return errors.New("sim: server is not listening")
	}
	defer close(done)

	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Infof("Stop simulator")
				return conn.Close()
			}
			return err
		}
		logrus.Debugf("Datagram of %d bytes from %s", n, from)
		if err := s.panel.Handle(buf[:n]); err != nil {
			logrus.Warnf("Datagram from %s: %v", from, err)
		}
	}
}

// Wait blocks until Serve returned.
func (s *Server) Wait() {
	s.lock.Lock()
	done := s.done
	s.lock.Unlock()
	if done != nil {
		<-done
	}
}
