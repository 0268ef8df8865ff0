//go:build amd64 && cgo

package sim

import (
	"context"
	"time"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
)

// Window shows the panel in a desktop window, scaled to fit, until ctx is
// done or the window is closed.
func Window(ctx context.Context, p *Panel, interval time.Duration) error {
	w := app.NewWindow(
		app.Title("oledtile simulator"),
		app.Size(unit.Px(float32(p.Columns()*4)), unit.Px(float32(p.Pages()*32))),
		app.MinSize(unit.Px(float32(p.Columns())), unit.Px(float32(p.Pages()*8))),
	)
	go app.Main()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := p.Revision()
		for {
			select {
			case <-ctx.Done():
				w.Close()
				return
			case <-ticker.C:
				if rev := p.Revision(); rev != last {
					last = rev
					w.Invalidate()
				}
			}
		}
	}()

	logrus.Infof("Start simulation window")
	var ops op.Ops
	for e := range w.Events() {
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			img := widget.Image{Src: paint.NewImageOp(p.Image()), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
	return nil
}
