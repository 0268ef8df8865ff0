// Package screen partitions a paged display into tiles that are written
// and flushed independently.
//
// A tile keeps two buffers. Writes land in the staged buffer and mark
// their row dirty; a flush sends dirty rows to a Sink and copies a row
// into the shadow buffer only once the sink accepted it. The shadow
// buffer therefore always matches what the device was confirmed to hold,
// and a failed flush can simply be retried.
package screen

import (
	"fmt"
	"strings"
	"sync"
)

// Tile is an inclusive page and column rectangle of a Layout.
type Tile struct {
	startPage, startColumn int
	endPage, endColumn     int

	mu     sync.Mutex
	shadow [][]byte
	staged [][]byte
	dirty  []bool
}

func newTile(startPage, startColumn, endPage, endColumn int) *Tile {
	t := &Tile{
		startPage:   startPage,
		startColumn: startColumn,
		endPage:     endPage,
		endColumn:   endColumn,
	}
	h, w := t.Height(), t.Width()
	t.shadow = make([][]byte, h)
	t.staged = make([][]byte, h)
	t.dirty = make([]bool, h)
	for row := 0; row < h; row++ {
		t.shadow[row] = make([]byte, w)
		t.staged[row] = make([]byte, w)
	}
	return t
}

func (t *Tile) StartPage() int   { return t.startPage }
func (t *Tile) StartColumn() int { return t.startColumn }
func (t *Tile) EndPage() int     { return t.endPage }
func (t *Tile) EndColumn() int   { return t.endColumn }

// Width is the number of columns.
func (t *Tile) Width() int {
	return t.endColumn - t.startColumn + 1
}

// Height is the number of pages.
func (t *Tile) Height() int {
	return t.endPage - t.startPage + 1
}

func (t *Tile) checkRow(row int) error {
	if row < 0 || row >= t.Height() {
		return fmt.Errorf("%w: row %d not in 0-%d", ErrIndexOutOfRange, row, t.Height()-1)
	}
	return nil
}

func (t *Tile) checkCell(row, col int) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	if col < 0 || col >= t.Width() {
		return fmt.Errorf("%w: column %d not in 0-%d", ErrIndexOutOfRange, col, t.Width()-1)
	}
	return nil
}

// Read returns the confirmed content of row.
func (t *Tile) Read(row int) ([]byte, error) {
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.shadow[row]...), nil
}

// ReadAt returns the confirmed content of one cell.
func (t *Tile) ReadAt(row, col int) (byte, error) {
	if err := t.checkCell(row, col); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shadow[row][col], nil
}

// Staged returns row including writes not flushed yet.
func (t *Tile) Staged(row int) ([]byte, error) {
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.staged[row]...), nil
}

// Dirty reports whether a flush has something to send.
func (t *Tile) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.dirty {
		if d {
			return true
		}
	}
	return false
}

func (t *Tile) Write(row, col int, value byte) error {
	if err := t.checkCell(row, col); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged[row][col] = value
	t.dirty[row] = true
	return nil
}

// WriteRow replaces a whole row; data must be exactly one tile wide.
func (t *Tile) WriteRow(row int, data []byte) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	if len(data) != t.Width() {
		return fmt.Errorf("%w: row of %d bytes for width %d", ErrLengthMismatch, len(data), t.Width())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.staged[row], data)
	t.dirty[row] = true
	return nil
}

// WriteRun writes data into row starting at col. The run must fit.
func (t *Tile) WriteRun(row, col int, data []byte) error {
	if err := t.checkCell(row, col); err != nil {
		return err
	}
	if col+len(data) > t.Width() {
		return fmt.Errorf("%w: %d bytes at column %d exceed width %d", ErrLengthMismatch, len(data), col, t.Width())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.staged[row][col:], data)
	t.dirty[row] = true
	return nil
}

// writeRows replaces every row at once. Rows must be validated by the
// caller.
func (t *Tile) writeRows(rows [][]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for row, data := range rows {
		copy(t.staged[row], data)
		t.dirty[row] = true
	}
}

// Clear zeroes the tile and flushes it.
func (t *Tile) Clear(sink Sink) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for row := range t.staged {
		for col := range t.staged[row] {
			t.staged[row][col] = 0
		}
		t.dirty[row] = true
	}
	return t.flush(sink)
}

// Flush sends dirty rows in order, full width, and stops at the first
// row the sink refuses. That row and the following ones stay dirty. With
// force every row is sent.
func (t *Tile) Flush(sink Sink, force bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if force {
		for row := range t.dirty {
			t.dirty[row] = true
		}
	}
	return t.flush(sink)
}

func (t *Tile) flush(sink Sink) bool {
	for row, dirty := range t.dirty {
		if !dirty {
			continue
		}
		data := append([]byte(nil), t.staged[row]...)
		if !sink.Send(t.startPage+row, t.startColumn, data) {
			return false
		}
		copy(t.shadow[row], data)
		t.dirty[row] = false
	}
	return true
}

// Overlaps reports whether both page ranges and column ranges intersect.
func (t *Tile) Overlaps(other *Tile) bool {
	return t.startPage <= other.endPage && other.startPage <= t.endPage &&
		t.startColumn <= other.endColumn && other.startColumn <= t.endColumn
}

const dumpBand = 16

// String dumps the confirmed content in bands of 16 columns.
func (t *Tile) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tile([%d, %d] --> [%d, %d])\n", t.startPage, t.startColumn, t.endPage, t.endColumn)
	for start := 0; start < t.Width(); start += dumpBand {
		end := start + dumpBand
		if end > t.Width() {
			end = t.Width()
		}
		sb.WriteString("    ")
		for col := start; col < end; col++ {
			fmt.Fprintf(&sb, " %02x", t.startColumn+col)
		}
		sb.WriteString("\n")
		for row := range t.shadow {
			fmt.Fprintf(&sb, "%02x: ", t.startPage+row)
			for col := start; col < end; col++ {
				fmt.Fprintf(&sb, " %02x", t.shadow[row][col])
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
