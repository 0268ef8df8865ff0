// Package font turns characters into column bitmasks for paged displays.
//
// A glyph is a sequence of columns, left to right. Bit 0 of a column is
// the top pixel row; a font taller than 8 rows spills into the next bits
// and the printer spreads them over successive display pages.
package font

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFont = errors.New("font: unknown font")
	ErrTooTall     = errors.New("font: glyphs taller than 32 rows")
)

// MaxHeight is the tallest glyph a column bitmask can hold.
const MaxHeight = 32

// Font maps characters to glyph columns. Characters a font does not
// cover are reported absent, never as empty glyphs.
type Font interface {
	// Height is the glyph height in pixel rows.
	Height() int
	// Width is the horizontal advance of r in columns.
	Width(r rune) (int, bool)
	// Columns returns the pixel columns of r.
	Columns(r rune) ([]uint32, bool)
}

// Glyph is one entry of a Table.
type Glyph struct {
	Columns []uint32
	// Advance is the distance to the next glyph, blank padding included.
	// Zero means len(Columns).
	Advance int
}

func (g Glyph) advance() int {
	if g.Advance < len(g.Columns) {
		return len(g.Columns)
	}
	return g.Advance
}

// GlyphFromRows builds a glyph from top-to-bottom row bitmaps of the given
// width, most significant bit on the left.
func GlyphFromRows(width, advance int, rows ...uint32) Glyph {
	columns := make([]uint32, width)
	for y, row := range rows {
		for x := 0; x < width; x++ {
			if row>>uint(width-1-x)&0x1 == 0x1 {
				columns[x] |= 1 << uint(y)
			}
		}
	}
	return Glyph{Columns: columns, Advance: advance}
}

// Table is a static glyph map.
type Table struct {
	height int
	glyphs map[rune]Glyph
}

func NewTable(height int, glyphs map[rune]Glyph) *Table {
	if height <= 0 || height > MaxHeight {
		panic(fmt.Sprintf("font: table height %d", height))
	}
	t := &Table{height: height, glyphs: make(map[rune]Glyph, len(glyphs))}
	for r, g := range glyphs {
		t.glyphs[r] = Glyph{Columns: append([]uint32(nil), g.Columns...), Advance: g.Advance}
	}
	return t
}

func (t *Table) Height() int {
	return t.height
}

func (t *Table) Width(r rune) (int, bool) {
	g, ok := t.glyphs[r]
	if !ok {
		return 0, false
	}
	return g.advance(), true
}

func (t *Table) Columns(r rune) ([]uint32, bool) {
	g, ok := t.glyphs[r]
	if !ok {
		return nil, false
	}
	return append([]uint32(nil), g.Columns...), true
}

// Len returns the number of glyphs.
func (t *Table) Len() int {
	return len(t.glyphs)
}

// Names lists the fonts ByName knows.
func Names() []string {
	return []string{"tiny", "basic", "bitmap"}
}

// ByName returns a built-in font: "tiny" (3x5), "basic" (7x13) or
// "bitmap" (12 px).
func ByName(name string) (Font, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tiny":
		return Tiny(), nil
	case "basic":
		return Basic(), nil
	case "bitmap":
		return Bitmap(), nil
	}
	return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFont, name, strings.Join(Names(), ", "))
}
