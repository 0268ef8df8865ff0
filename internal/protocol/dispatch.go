package protocol

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Decoded is a command recognised in a byte stream.
type Decoded struct {
	Command Command
	Fields
	Raw []byte
}

func (d Decoded) Name() string {
	if d.Command == nil {
		return ""
	}
	return d.Command.Name()
}

func (d Decoded) String() string {
	return fmt.Sprintf("%s option=0x%02X args=% X", d.Name(), d.Option, d.Args)
}

// Dispatcher parses command streams against a Table. Commands are tried in
// the table's dispatch order and the first one that decodes wins.
//
// With Resync set, a byte that no command accepts is dropped and parsing
// resumes at the next one. This only tolerates lost datagrams on the
// simulation link; it is not a correct parse of a damaged stream.
type Dispatcher struct {
	table  *Table
	Resync bool
}

func NewDispatcher(table *Table) *Dispatcher {
	return &Dispatcher{table: table}
}

// Next decodes the command at the start of buf.
func (d *Dispatcher) Next(buf []byte) (Decoded, []byte, error) {
	if len(buf) == 0 {
		return Decoded{}, buf, fmt.Errorf("%w: empty stream", ErrMalformedCommand)
	}
	for _, c := range d.table.dispatch {
		f, rest, err := c.Decode(buf)
		if err != nil {
			continue
		}
		return Decoded{Command: c, Fields: f, Raw: buf[:len(buf)-len(rest)]}, rest, nil
	}
	return Decoded{}, buf, fmt.Errorf("%w: no command matches 0x%02X", ErrMalformedCommand, buf[0])
}

// DecodeAll decodes every command in buf. Without Resync it stops at the
// first undecodable byte and returns what was decoded so far.
func (d *Dispatcher) DecodeAll(buf []byte) ([]Decoded, error) {
	var out []Decoded
	skipped := 0
	for len(buf) > 0 {
		dec, rest, err := d.Next(buf)
		if err != nil {
			if !d.Resync {
				return out, err
			}
			skipped++
			buf = buf[1:]
			continue
		}
		out = append(out, dec)
		buf = rest
	}
	if skipped > 0 {
		logrus.Warnf("Resynchronised command stream, %d byte(s) dropped", skipped)
	}
	return out, nil
}
