package device

import (
	"sync"
	"time"

	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Clock emits a tick event each time the formatted time changes.
type Clock struct {
	lock         sync.RWMutex
	eventChannel chan event.TickerEvent

	format             string
	period             time.Duration
	now                func() time.Time
	refreshClockTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewClock(param config.ClockParam) *Clock {
	return &Clock{
		eventChannel: make(chan event.TickerEvent),
		format:       param.Format,
		period:       time.Second,
		now:          time.Now,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
}

func (d *Clock) Start() {
	logrus.Infof("Start clock device")
	d.lock.Lock()
	defer d.lock.Unlock()

	d.refreshClockTicker = time.NewTicker(d.period)

	go func() {
		var oldDisplayedTime string
		for loop := true; loop; {
			select {
			case <-d.refreshClockTicker.C:
				displayedTime := d.now().Format(d.format)
				if oldDisplayedTime == displayedTime {
					continue
				}
				select {
				case d.eventChannel <- event.TickerEvent{Data: event.TickerEventTickData{Text: displayedTime}}:
					oldDisplayedTime = displayedTime
				case <-d.askDone:
					loop = false
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Clock) StopSendingEvent() {
	logrus.Infof("Stop clock device")
	d.lock.Lock()
	defer d.lock.Unlock()

	d.refreshClockTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Clock) EventChannel() chan event.TickerEvent {
	return d.eventChannel
}
