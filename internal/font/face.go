package font

import (
	"fmt"
	"image"
	"sync"
	"unicode/utf8"

	"github.com/hajimehoshi/bitmapfont/v2"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face rasterizes the glyphs of an x/image font face. Mask pixels with
// at least half alpha are lit. Rasterized glyphs are cached.
type Face struct {
	face   xfont.Face
	ascent int
	height int

	mu    sync.Mutex
	cache map[rune][]uint32
}

func NewFace(face xfont.Face) (*Face, error) {
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	height := ascent + m.Descent.Ceil()
	if height > MaxHeight {
		return nil, fmt.Errorf("%w: face is %d rows", ErrTooTall, height)
	}
	return &Face{face: face, ascent: ascent, height: height, cache: make(map[rune][]uint32)}, nil
}

func mustFace(face xfont.Face) *Face {
	f, err := NewFace(face)
	if err != nil {
		panic(err)
	}
	return f
}

var (
	bitmapOnce, basicOnce sync.Once
	bitmapFace, basicFace *Face
)

// Bitmap is the 12 px font of hajimehoshi/bitmapfont.
func Bitmap() *Face {
	bitmapOnce.Do(func() { bitmapFace = mustFace(bitmapfont.Face) })
	return bitmapFace
}

// Basic is the x/image 7x13 fixed font.
func Basic() *Face {
	basicOnce.Do(func() { basicFace = mustFace(basicfont.Face7x13) })
	return basicFace
}

func (f *Face) Height() int {
	return f.height
}

func (f *Face) Width(r rune) (int, bool) {
	if _, ok := f.Columns(r); !ok {
		return 0, false
	}
	advance, ok := f.face.GlyphAdvance(r)
	if !ok {
		return 0, false
	}
	return advance.Round(), true
}

// replacement reports whether the face answered a request for r with its
// U+FFFD glyph, which bitmap faces do for runes they lack.
func (f *Face) replacement(r rune, dr image.Rectangle, maskp image.Point) bool {
	if r == utf8.RuneError {
		return false
	}
	rdr, _, rmaskp, _, ok := f.face.Glyph(fixed.P(0, f.ascent), utf8.RuneError)
	return ok && rdr == dr && rmaskp == maskp
}

func (f *Face) Columns(r rune) ([]uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cols, ok := f.cache[r]; ok {
		return append([]uint32(nil), cols...), true
	}

	dr, mask, maskp, advance, ok := f.face.Glyph(fixed.P(0, f.ascent), r)
	if !ok || f.replacement(r, dr, maskp) {
		return nil, false
	}
	width := advance.Round()
	if dr.Max.X > width {
		width = dr.Max.X
	}
	cols := make([]uint32, width)
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		if y < 0 || y >= f.height {
			continue
		}
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if x < 0 {
				continue
			}
			_, _, _, a := mask.At(maskp.X+x-dr.Min.X, maskp.Y+y-dr.Min.Y).RGBA()
			if a >= 0x8000 {
				cols[x] |= 1 << uint(y)
			}
		}
	}
	f.cache[r] = cols
	return append([]uint32(nil), cols...), true
}
