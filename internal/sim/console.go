package sim

import (
	"context"
	"io"
	"strings"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Half-block cells, two pixel rows per character.
const (
	cellOff   = '░'
	cellUpper = '▀'
	cellLower = '▄'
	cellBoth  = '█'
)

// Render draws img in a box, two pixel rows per text line.
func Render(img *image1bit.VerticalLSB) string {
	r := img.Bounds()
	var b strings.Builder
	b.WriteRune('┌')
	b.WriteString(strings.Repeat("─", r.Dx()))
	b.WriteString("┐\n")
	for y := r.Min.Y; y < r.Max.Y; y += 2 {
		b.WriteRune('│')
		for x := r.Min.X; x < r.Max.X; x++ {
			upper := img.BitAt(x, y) == image1bit.On
			lower := y+1 < r.Max.Y && img.BitAt(x, y+1) == image1bit.On
			switch {
			case upper && lower:
				b.WriteRune(cellBoth)
			case upper:
				b.WriteRune(cellUpper)
			case lower:
				b.WriteRune(cellLower)
			default:
				b.WriteRune(cellOff)
			}
		}
		b.WriteString("│\n")
	}
	b.WriteRune('└')
	b.WriteString(strings.Repeat("─", r.Dx()))
	b.WriteString("┘\n")
	return b.String()
}

// Console redraws the panel on w whenever it changes, polling every
// interval, until ctx is done.
func Console(ctx context.Context, w io.Writer, p *Panel, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ^uint64(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rev := p.Revision()
			if rev == last {
				continue
			}
			last = rev
			// Home the cursor and clear before redrawing.
			io.WriteString(w, "\033[H\033[2J"+Render(p.Image()))
		}
	}
}
