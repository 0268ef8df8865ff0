package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const repeatDelay = 160 * time.Millisecond

// Button reports presses of a push button wired between a GPIO and ground.
// Holding it down repeats the press event every repeatDelay.
type Button struct {
	buttonId       event.ButtonId
	pin            gpio.PinIn
	isPressed      bool
	pressStepCount int64
	lastChange     time.Time
}

func NewButton(buttonId event.ButtonId, name string) (*Button, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find %s button", name)
	}
	// Input with an internal pull up resistor
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to setup %s button: %w", name, err)
	}
	return &Button{buttonId: buttonId, pin: pin}, nil
}

func (b *Button) Refresh(now time.Time, buttonEventChannel chan<- event.ButtonEvent) {
	wasPressed := b.isPressed
	b.isPressed = !bool(b.pin.Read())

	if !b.isPressed && wasPressed {
		b.lastChange = now
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: b.pressStepCount}
		b.pressStepCount = 0
	} else if b.isPressed && b.lastChange.Add(repeatDelay).Before(now) {
		b.lastChange = now
		b.pressStepCount++
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: b.pressStepCount}
	}
}

type Buttons struct {
	lock         sync.RWMutex
	eventChannel chan event.ButtonEvent
	param        config.ButtonsParam

	buttons []*Button

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewButtons(param config.ButtonsParam) *Buttons {
	return &Buttons{
		eventChannel: make(chan event.ButtonEvent),
		param:        param,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
}

func (d *Buttons) Start() error {
	logrus.Infof("Start buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.param.Enabled {
		if _, err := host.Init(); err != nil {
			return err
		}
		for _, b := range []struct {
			id   event.ButtonId
			name string
		}{
			{event.TOGGLE_BUTTON, d.param.Toggle},
			{event.BRIGHTER_BUTTON, d.param.Brighter},
			{event.DIMMER_BUTTON, d.param.Dimmer},
		} {
			if b.name == "" {
				continue
			}
			button, err := NewButton(b.id, b.name)
			if err != nil {
				return err
			}
			d.buttons = append(d.buttons, button)
		}
	}

	// Start periodic check
	d.checkTicker = time.NewTicker(5 * time.Millisecond)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				for _, button := range d.buttons {
					button.Refresh(now, d.eventChannel)
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
	return nil
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Buttons) EventChannel() chan event.ButtonEvent {
	return d.eventChannel
}
