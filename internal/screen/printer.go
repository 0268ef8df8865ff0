package screen

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jypelle/oledtile/internal/font"
	"github.com/sirupsen/logrus"
)

// Printer lays content out left to right from column 0 of a tile, then
// flushes the tile once. Columns after the content are blanked.
//
// Overflow is detected before anything is written: with Truncate the
// extra columns are dropped, otherwise ErrColumnOverflow is returned.
// Characters missing from the font are skipped unless Strict is set.
type Printer struct {
	layout   *Layout
	Truncate bool
	Strict   bool
}

func NewPrinter(layout *Layout, truncate bool) *Printer {
	return &Printer{layout: layout, Truncate: truncate}
}

func (p *Printer) Layout() *Layout {
	return p.layout
}

// Print renders text with f into tile index.
func (p *Printer) Print(index int, text string, f font.Font, sink Sink) error {
	tile, err := p.layout.Tile(index)
	if err != nil {
		return err
	}
	if text == "" {
		return ErrEmptyContent
	}
	if f == nil {
		return ErrNoFont
	}
	if f.Height() > tile.Height()*8 {
		return fmt.Errorf("%w: font of %d rows in a tile of %d pages", ErrGlyphTooTall, f.Height(), tile.Height())
	}

	var columns [][]byte
	pad := 0
	for _, r := range text {
		glyph, ok := f.Columns(r)
		if !ok {
			if p.Strict {
				return fmt.Errorf("%w: %q", ErrGlyphNotFound, r)
			}
			logrus.Warnf("No glyph for %q, skipped", r)
			continue
		}
		for ; pad > 0; pad-- {
			columns = append(columns, make([]byte, tile.Height()))
		}
		for _, c := range glyph {
			columns = append(columns, splitColumn(c, tile.Height()))
		}
		if advance, _ := f.Width(r); advance > len(glyph) {
			pad = advance - len(glyph)
		}
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: nothing printable in %q", ErrEmptyContent, text)
	}
	return p.place(index, tile, columns, sink)
}

// splitColumn spreads a glyph column over page rows: bits 0-7 go to row
// 0, bits 8-15 to row 1 and so on.
func splitColumn(c uint32, rows int) []byte {
	out := make([]byte, rows)
	for row := 0; row < rows && row < 4; row++ {
		out[row] = byte(c >> (8 * uint(row)))
	}
	return out
}

// PrintColumns places raw columns into tile index. Each column holds one
// byte per tile row, top row first; shorter columns are padded with
// blank rows.
func (p *Printer) PrintColumns(index int, columns [][]byte, sink Sink) error {
	tile, err := p.layout.Tile(index)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return ErrEmptyContent
	}
	for i, c := range columns {
		if len(c) > tile.Height() {
			return fmt.Errorf("%w: column %d has %d rows in a tile of %d pages", ErrGlyphTooTall, i, len(c), tile.Height())
		}
	}
	return p.place(index, tile, columns, sink)
}

// PrintImage thresholds img at half luminance into tile index. The image
// is placed at the top left corner of the tile.
func (p *Printer) PrintImage(index int, img image.Image, sink Sink) error {
	tile, err := p.layout.Tile(index)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Empty() {
		return ErrEmptyContent
	}
	if b.Dy() > tile.Height()*8 {
		return fmt.Errorf("%w: image of %d rows in a tile of %d pages", ErrGlyphTooTall, b.Dy(), tile.Height())
	}
	columns := make([][]byte, b.Dx())
	for x := 0; x < b.Dx(); x++ {
		columns[x] = make([]byte, tile.Height())
		for y := 0; y < b.Dy(); y++ {
			gray := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if gray.Y >= 0x80 {
				columns[x][y/8] |= 1 << uint(y%8)
			}
		}
	}
	return p.place(index, tile, columns, sink)
}

func (p *Printer) place(index int, tile *Tile, columns [][]byte, sink Sink) error {
	width := tile.Width()
	if len(columns) > width {
		if !p.Truncate {
			return fmt.Errorf("%w: %d columns in tile %d of width %d", ErrColumnOverflow, len(columns), index, width)
		}
		logrus.Warnf("Content of tile %d truncated from %d to %d columns", index, len(columns), width)
		columns = columns[:width]
	}

	rows := make([][]byte, tile.Height())
	for row := range rows {
		rows[row] = make([]byte, width)
		for x, c := range columns {
			if row < len(c) {
				rows[row][x] = c[row]
			}
		}
	}
	tile.writeRows(rows)

	if !tile.Flush(sink, false) {
		return fmt.Errorf("%w: tile %d", ErrFlushFailed, index)
	}
	return nil
}
