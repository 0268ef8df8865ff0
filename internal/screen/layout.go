package screen

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Layout is a pages x columns canvas split into non-overlapping tiles.
// Tiles are flushed and cleared in insertion order.
type Layout struct {
	pages   int
	columns int

	lock  sync.RWMutex
	tiles []*Tile
}

func NewLayout(pages, columns int) (*Layout, error) {
	if pages <= 0 || columns <= 0 {
		return nil, fmt.Errorf("%w: layout %dx%d", ErrOutOfRange, pages, columns)
	}
	return &Layout{pages: pages, columns: columns}, nil
}

func (l *Layout) Pages() int {
	return l.pages
}

func (l *Layout) Columns() int {
	return l.columns
}

// AddTile adds the inclusive region and returns its tile. The layout is
// left unchanged on error.
func (l *Layout) AddTile(startPage, startColumn, endPage, endColumn int) (*Tile, error) {
	if startPage < 0 || startPage >= l.pages || endPage < 0 || endPage >= l.pages {
		return nil, fmt.Errorf("%w: pages %d-%d not in 0-%d", ErrOutOfRange, startPage, endPage, l.pages-1)
	}
	if startColumn < 0 || startColumn >= l.columns || endColumn < 0 || endColumn >= l.columns {
		return nil, fmt.Errorf("%w: columns %d-%d not in 0-%d", ErrOutOfRange, startColumn, endColumn, l.columns-1)
	}
	if startPage > endPage || startColumn > endColumn {
		return nil, fmt.Errorf("%w: [%d, %d] --> [%d, %d] is inverted", ErrOutOfRange, startPage, startColumn, endPage, endColumn)
	}

	t := newTile(startPage, startColumn, endPage, endColumn)

	l.lock.Lock()
	defer l.lock.Unlock()
	for i, other := range l.tiles {
		if t.Overlaps(other) {
			return nil, fmt.Errorf("%w: [%d, %d] --> [%d, %d] overlaps tile %d", ErrOverlappingTile, startPage, startColumn, endPage, endColumn, i)
		}
	}
	l.tiles = append(l.tiles, t)
	return t, nil
}

// Tiles returns the tiles in insertion order.
func (l *Layout) Tiles() []*Tile {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]*Tile(nil), l.tiles...)
}

func (l *Layout) Tile(index int) (*Tile, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if index < 0 || index >= len(l.tiles) {
		return nil, fmt.Errorf("%w: tile %d of %d", ErrIndexOutOfRange, index, len(l.tiles))
	}
	return l.tiles[index], nil
}

func (l *Layout) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.tiles)
}

// Clear clears every tile, even after a failure, and reports whether
// all of them succeeded.
func (l *Layout) Clear(sink Sink) bool {
	ok := true
	for i, t := range l.Tiles() {
		if !t.Clear(sink) {
			logrus.Warnf("Unable to clear tile %d", i)
			ok = false
		}
	}
	return ok
}

// Flush flushes every tile, even after a failure, and reports whether
// all of them succeeded.
func (l *Layout) Flush(sink Sink, force bool) bool {
	ok := true
	for i, t := range l.Tiles() {
		if !t.Flush(sink, force) {
			logrus.Warnf("Unable to flush tile %d", i)
			ok = false
		}
	}
	return ok
}

// Image renders the confirmed content of every tile.
func (l *Layout) Image() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, l.columns, l.pages*8))
	for _, t := range l.Tiles() {
		for row := 0; row < t.Height(); row++ {
			data, _ := t.Read(row)
			offset := (t.startPage+row)*img.Stride + t.startColumn
			copy(img.Pix[offset:offset+len(data)], data)
		}
	}
	return img
}

func (l *Layout) String() string {
	tiles := l.Tiles()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Layout(%dx%d - %d tiles)\n", l.pages, l.columns, len(tiles))
	for _, t := range tiles {
		for _, line := range strings.Split(strings.TrimRight(t.String(), "\n"), "\n") {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
