package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/jypelle/oledtile/internal/font"
	"github.com/jypelle/oledtile/internal/protocol"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

var ErrInvalidParam = errors.New("config: invalid param")

type ServerParam struct {
	DisplayParam   DisplayParam   `yaml:"display"`
	LayoutParam    LayoutParam    `yaml:"layout"`
	PrinterParam   PrinterParam   `yaml:"printer"`
	ClockParam     ClockParam     `yaml:"clock"`
	ButtonsParam   ButtonsParam   `yaml:"buttons"`
	ApiParam       ApiParam       `yaml:"api"`
	SimulatorParam SimulatorParam `yaml:"simulator"`
}

type DisplayParam struct {
	Backend        string `yaml:"backend"`
	Link           string `yaml:"link"`
	I2cBus         string `yaml:"i2c_bus"`
	Address        int64  `yaml:"address"`
	Simulator      string `yaml:"simulator"`
	Pages          int    `yaml:"pages"`
	Columns        int    `yaml:"columns"`
	Mode           string `yaml:"mode"`
	Contrast       int64  `yaml:"contrast"`
	SegmentRemap   bool   `yaml:"segment_remap"`
	ComScanReverse bool   `yaml:"com_scan_reverse"`
	ResetChip      string `yaml:"reset_chip"`
	ResetLine      int    `yaml:"reset_line"`
	FadeMs         int64  `yaml:"fade_ms"`
}

const (
	CodecBackend  = "codec"
	PeriphBackend = "periph"

	I2cLink = "i2c"
	UdpLink = "udp"
)

type LayoutParam struct {
	Tiles []TileParam `yaml:"tiles"`
}

type TileParam struct {
	Name        string `yaml:"name"`
	StartPage   int    `yaml:"start_page"`
	StartColumn int    `yaml:"start_column"`
	EndPage     int    `yaml:"end_page"`
	EndColumn   int    `yaml:"end_column"`
}

type PrinterParam struct {
	Font     string `yaml:"font"`
	Truncate bool   `yaml:"truncate"`
	Strict   bool   `yaml:"strict"`
}

type ClockParam struct {
	Enabled bool   `yaml:"enabled"`
	Tile    int    `yaml:"tile"`
	Format  string `yaml:"format"`
	Font    string `yaml:"font"`
}

type ButtonsParam struct {
	Enabled      bool   `yaml:"enabled"`
	Toggle       string `yaml:"toggle"`
	Brighter     string `yaml:"brighter"`
	Dimmer       string `yaml:"dimmer"`
	ContrastStep int64  `yaml:"contrast_step"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

type SimulatorParam struct {
	Listen    string `yaml:"listen"`
	Console   bool   `yaml:"console"`
	Window    bool   `yaml:"window"`
	RefreshMs int64  `yaml:"refresh_ms"`
}

// AddressingMode returns the parsed display mode.
func (dp *DisplayParam) AddressingMode() (protocol.AddressingMode, error) {
	return protocol.ParseAddressingMode(dp.Mode)
}

// Check reports the first inconsistency in the param file. Tile geometry
// itself is checked when the layout is built.
func (sp *ServerParam) Check() error {
	dp := &sp.DisplayParam
	switch dp.Backend {
	case CodecBackend, PeriphBackend:
	default:
		return fmt.Errorf("%w: display backend %q", ErrInvalidParam, dp.Backend)
	}
	switch dp.Link {
	case I2cLink, UdpLink:
	default:
		return fmt.Errorf("%w: display link %q", ErrInvalidParam, dp.Link)
	}
	if dp.Backend == PeriphBackend && dp.Link != I2cLink {
		return fmt.Errorf("%w: periph backend needs the i2c link", ErrInvalidParam)
	}
	if dp.Address != int64(protocol.DefaultAddress) && dp.Address != int64(protocol.AlternateAddress) {
		return fmt.Errorf("%w: display address 0x%02X", ErrInvalidParam, dp.Address)
	}
	if dp.Pages < 1 || dp.Pages > 8 || dp.Columns < 1 || dp.Columns > 128 {
		return fmt.Errorf("%w: display of %d pages x %d columns", ErrInvalidParam, dp.Pages, dp.Columns)
	}
	if _, err := dp.AddressingMode(); err != nil {
		return err
	}
	if dp.Contrast < 0 || dp.Contrast > 255 {
		return fmt.Errorf("%w: contrast %d", ErrInvalidParam, dp.Contrast)
	}

	if len(sp.LayoutParam.Tiles) == 0 {
		return fmt.Errorf("%w: no tile", ErrInvalidParam)
	}
	if _, err := font.ByName(sp.PrinterParam.Font); err != nil {
		return err
	}
	if sp.ClockParam.Enabled {
		if sp.ClockParam.Tile < 0 || sp.ClockParam.Tile >= len(sp.LayoutParam.Tiles) {
			return fmt.Errorf("%w: clock tile %d", ErrInvalidParam, sp.ClockParam.Tile)
		}
		if _, err := font.ByName(sp.ClockParam.Font); err != nil {
			return err
		}
		if sp.ClockParam.Format == "" {
			return fmt.Errorf("%w: empty clock format", ErrInvalidParam)
		}
	}
	return nil
}
