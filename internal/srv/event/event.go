package event

import (
	"bytes"

	"github.com/jypelle/oledtile/apimodel"
)

// Ticker
type TickerEvent struct {
	Data interface{}
}

type TickerEventTickData struct {
	Text string
}

// Buttons
type ButtonId int

const (
	TOGGLE_BUTTON ButtonId = iota
	BRIGHTER_BUTTON
	DIMMER_BUTTON
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventLayoutData struct {
	Layout *apimodel.Layout
}

type ApiEventTileTextData struct {
	Index int
	Text  string
	Font  string
}

type ApiEventTileClearData struct {
	Index int
}

type ApiEventTileIconData struct {
	Index int
	Icon  []byte
}

type ApiEventDisplayPowerData struct {
	On bool
}

type ApiEventDisplayInvertData struct {
	Inverted bool
}

type ApiEventDisplayContrastData struct {
	Contrast byte
}

type ApiEventFlushData struct {
	Force bool
}

type ApiEventSnapshotData struct {
	Png *bytes.Buffer
}
