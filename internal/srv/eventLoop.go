package srv

import (
	"fmt"

	"github.com/jypelle/oledtile/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// eventLoop is the only goroutine touching the layout once the server is
// started.
func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.clockDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.TickerEventTickData:
				logrus.Debugf("Receive clock tick event: %s", data.Text)
				s.showTime(data.Text)
			}
		case ev := <-s.apiDevice.EventChannel():
			ev.Result <- s.handleApiEvent(ev)
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			s.handleButtonEvent(ev)
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent) error {
	switch data := ev.Data.(type) {
	case event.ApiEventLayoutData:
		*data.Layout = s.layoutModel()
		return nil
	case event.ApiEventSnapshotData:
		return s.snapshot(data.Png)
	case event.ApiEventTileTextData:
		return s.printText(data.Index, data.Text, data.Font)
	case event.ApiEventTileClearData:
		return s.clearTile(data.Index)
	case event.ApiEventTileIconData:
		return s.printIcon(data.Index, data.Icon)
	case event.ApiEventDisplayPowerData:
		return s.setPower(data.On)
	case event.ApiEventDisplayInvertData:
		return s.displayDevice.Invert(data.Inverted)
	case event.ApiEventDisplayContrastData:
		if err := s.displayDevice.SetContrast(data.Contrast); err != nil {
			return err
		}
		s.SetContrast(data.Contrast)
		return nil
	case event.ApiEventFlushData:
		return s.refreshDisplay(data.Force)
	}
	return fmt.Errorf("unknown api event %T", ev.Data)
}

func (s *ServerApp) handleButtonEvent(ev event.ButtonEvent) {
	if ev.ButtonEventType != event.PRESS_EVENT_TYPE {
		return
	}
	var err error
	switch ev.ButtonId {
	case event.TOGGLE_BUTTON:
		if ev.PressStepCount == 1 {
			err = s.setPower(!s.displayDevice.IsOn())
		}
	case event.BRIGHTER_BUTTON:
		err = s.stepContrast(s.ButtonsParam.ContrastStep)
	case event.DIMMER_BUTTON:
		err = s.stepContrast(-s.ButtonsParam.ContrastStep)
	}
	if err != nil {
		logrus.Warn(err)
	}
}
