package sim

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestServer(t *testing.T) {
	p := newPanel()
	s := NewServer(p)
	if err := s.Listen("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(ctx)
	}()

	conn, err := net.Dial("udp", s.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("page 3\nwrite 7E")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.Revision() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("datagram never handled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := page(t, p, 3)[0]; got != 0x7E {
		t.Errorf("page 3 column 0 = %02X", got)
	}

	cancel()
	s.Wait()
	if err := <-errc; err != nil {
		t.Errorf("Serve = %v", err)
	}
}

func TestServeWithoutListen(t *testing.T) {
	if err := NewServer(newPanel()).Serve(context.Background()); err == nil {
		t.Error("Serve without Listen succeeded")
	}
}
