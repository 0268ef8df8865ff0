package screen

import "errors"

var (
	ErrOutOfRange      = errors.New("screen: out of range")
	ErrOverlappingTile = errors.New("screen: overlapping tile")
	ErrIndexOutOfRange = errors.New("screen: index out of range")
	ErrLengthMismatch  = errors.New("screen: length mismatch")
	ErrColumnOverflow  = errors.New("screen: column overflow")
	ErrGlyphTooTall    = errors.New("screen: glyph too tall")
	ErrGlyphNotFound   = errors.New("screen: glyph not found")
	ErrFlushFailed     = errors.New("screen: flush failed")
	ErrEmptyContent    = errors.New("screen: empty content")
	ErrNoFont          = errors.New("screen: no font")
)
