package screen

// Sink delivers one tile row to the display: data goes to absolute page
// page, starting at absolute column column. Send reports false on
// transport failure and must not be called concurrently for one tile.
type Sink interface {
	Send(page, column int, data []byte) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(page, column int, data []byte) bool

func (f SinkFunc) Send(page, column int, data []byte) bool {
	return f(page, column, data)
}
