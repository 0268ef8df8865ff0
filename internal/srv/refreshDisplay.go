package srv

import (
	"bytes"
	"fmt"
	"image/png"
	"sort"

	"github.com/jypelle/oledtile/apimodel"
	"github.com/jypelle/oledtile/internal/font"
	"github.com/jypelle/oledtile/internal/icon"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/sirupsen/logrus"
)

// refreshDisplay sends pending rows, or every row when force is set.
func (s *ServerApp) refreshDisplay(force bool) error {
	if !s.layout.Flush(s.displayDevice.Sink(), force) {
		return fmt.Errorf("%w: layout", screen.ErrFlushFailed)
	}
	return nil
}

// printText prints text on tile index with the named font, or the
// default one, and remembers it.
func (s *ServerApp) printText(index int, text, fontName string) error {
	f := s.font
	if fontName != "" {
		var err error
		if f, err = font.ByName(fontName); err != nil {
			return err
		}
	}
	if err := s.printer.Print(index, text, f, s.displayDevice.Sink()); err != nil {
		return err
	}
	s.SetText(index, text)
	return nil
}

func (s *ServerApp) clearTile(index int) error {
	tile, err := s.layout.Tile(index)
	if err != nil {
		return err
	}
	if !tile.Clear(s.displayDevice.Sink()) {
		return fmt.Errorf("%w: tile %d", screen.ErrFlushFailed, index)
	}
	s.SetText(index, "")
	return nil
}

// printIcon draws an icon on tile index in place of its text.
func (s *ServerApp) printIcon(index int, data []byte) error {
	if err := s.drawIcon(index, data); err != nil {
		return err
	}
	s.SetText(index, "")
	return nil
}

// drawIcon scales an SVG or raster image to tile index.
func (s *ServerApp) drawIcon(index int, data []byte) error {
	tile, err := s.layout.Tile(index)
	if err != nil {
		return err
	}
	img, err := icon.Load(data, tile.Width(), tile.Height()*8)
	if err != nil {
		return err
	}
	return s.printer.PrintImage(index, img, s.displayDevice.Sink())
}

func (s *ServerApp) showTime(text string) {
	if err := s.printer.Print(s.ClockParam.Tile, text, s.clockFont, s.displayDevice.Sink()); err != nil {
		logrus.Warnf("Unable to show time: %v", err)
	}
}

// hideSplash blanks the splash tile unless restoreTexts is about to
// print a saved text over it.
func (s *ServerApp) hideSplash() {
	const splashTile = 0
	if _, ok := s.Texts()[splashTile]; ok && !(s.ClockParam.Enabled && s.ClockParam.Tile == splashTile) {
		return
	}
	tile, err := s.layout.Tile(splashTile)
	if err != nil {
		logrus.Warnf("Unable to hide splash screen: %v", err)
		return
	}
	if !tile.Clear(s.displayDevice.Sink()) {
		logrus.Warnf("Unable to hide splash screen")
	}
}

// restoreTexts prints the texts saved by the previous run.
func (s *ServerApp) restoreTexts() {
	texts := s.Texts()
	indexes := make([]int, 0, len(texts))
	for index := range texts {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		if s.ClockParam.Enabled && index == s.ClockParam.Tile {
			continue
		}
		if err := s.printer.Print(index, texts[index], s.font, s.displayDevice.Sink()); err != nil {
			logrus.Warnf("Unable to restore text of tile %d: %v", index, err)
		}
	}
}

func (s *ServerApp) setPower(on bool) error {
	var err error
	if on {
		err = s.displayDevice.SetOn()
	} else {
		err = s.displayDevice.SetOff()
	}
	if err != nil {
		return err
	}
	s.SetOn(on)
	return nil
}

func (s *ServerApp) stepContrast(delta int64) error {
	contrast, err := s.displayDevice.StepContrast(delta)
	if err != nil {
		return err
	}
	logrus.Debugf("Contrast set to %d", contrast)
	s.SetContrast(contrast)
	return nil
}

func (s *ServerApp) layoutModel() apimodel.Layout {
	texts := s.Texts()
	model := apimodel.Layout{
		Pages:    s.layout.Pages(),
		Columns:  s.layout.Columns(),
		On:       s.displayDevice.IsOn(),
		Inverted: s.displayDevice.IsInverted(),
		Contrast: int(s.displayDevice.Contrast()),
	}
	for i, tile := range s.layout.Tiles() {
		t := apimodel.Tile{
			Index:       i,
			StartPage:   tile.StartPage(),
			StartColumn: tile.StartColumn(),
			EndPage:     tile.EndPage(),
			EndColumn:   tile.EndColumn(),
			Text:        texts[i],
			Dirty:       tile.Dirty(),
		}
		if i < len(s.LayoutParam.Tiles) {
			t.Name = s.LayoutParam.Tiles[i].Name
		}
		model.Tiles = append(model.Tiles, t)
	}
	return model
}

// snapshot renders what the tiles last confirmed as a PNG.
func (s *ServerApp) snapshot(buf *bytes.Buffer) error {
	return png.Encode(buf, s.layout.Image())
}
