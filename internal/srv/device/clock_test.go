package device

import (
	"sync"
	"testing"
	"time"

	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/event"
)

func TestClockTicksOnChange(t *testing.T) {
	c := NewClock(config.ClockParam{Format: "15:04"})
	c.period = time.Millisecond

	var lock sync.Mutex
	current := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	c.now = func() time.Time {
		lock.Lock()
		defer lock.Unlock()
		return current
	}
	c.Start()

	next := func() string {
		t.Helper()
		select {
		case ev := <-c.EventChannel():
			return ev.Data.(event.TickerEventTickData).Text
		case <-time.After(2 * time.Second):
			t.Fatal("no tick")
		}
		return ""
	}

	if got := next(); got != "09:30" {
		t.Errorf("first tick = %q", got)
	}
	// Same minute: nothing is sent.
	select {
	case ev := <-c.EventChannel():
		t.Errorf("unexpected tick %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}

	lock.Lock()
	current = current.Add(time.Minute)
	lock.Unlock()
	if got := next(); got != "09:31" {
		t.Errorf("second tick = %q", got)
	}

	c.StopSendingEvent()
}
