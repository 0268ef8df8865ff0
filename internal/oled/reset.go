package oled

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// ResetLine holds the controller RES# pin, active low.
type ResetLine struct {
	line *gpiocdev.Line
}

func OpenResetLine(chip string, offset int) (*ResetLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(1))
	if err != nil {
		return nil, fmt.Errorf("unable to request reset line %s:%d: %w", chip, offset, err)
	}
	return &ResetLine{line: line}, nil
}

// Pulse holds the controller in reset for d, then releases it.
func (r *ResetLine) Pulse(d time.Duration) error {
	logrus.Debugf("Resetting display controller")
	if err := r.line.SetValue(0); err != nil {
		return err
	}
	time.Sleep(d)
	if err := r.line.SetValue(1); err != nil {
		return err
	}
	time.Sleep(d)
	return nil
}

func (r *ResetLine) Close() error {
	return r.line.Close()
}
