// Package icon turns SVG and raster pictures into grayscale images sized
// for a tile. Painted coverage becomes luminance, so anything drawn on a
// transparent background lights up on the panel.
package icon

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

var (
	ErrSize   = errors.New("icon: invalid size")
	ErrNotSVG = errors.New("icon: no svg viewport")
)

// Rasterize renders an SVG document into a width x height image.
func Rasterize(r io.Reader, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, width, height)
	}
	svg, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("icon: unable to parse svg: %w", err)
	}
	if svg.ViewBox.W <= 0 || svg.ViewBox.H <= 0 {
		return nil, ErrNotSVG
	}
	svg.SetTarget(0, 0, float64(width), float64(height))

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	svg.Draw(raster, 1.0)

	gray := image.NewGray(rgba.Bounds())
	for i := range gray.Pix {
		gray.Pix[i] = rgba.Pix[i*4+3]
	}
	return gray, nil
}

// Fit scales img into a width x height image, keeping its aspect ratio
// and centering it.
func Fit(img image.Image, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, width, height)
	}
	src := img.Bounds()
	if src.Empty() {
		return nil, fmt.Errorf("%w: empty source", ErrSize)
	}
	w, h := width, src.Dy()*width/src.Dx()
	if h > height {
		w, h = src.Dx()*height/src.Dy(), height
	}
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	x, y := (width-w)/2, (height-h)/2

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, image.Rect(x, y, x+w, y+h), img, src, draw.Src, nil)
	return dst, nil
}

// Load accepts an SVG document or any registered raster format and
// returns it sized to width x height.
func Load(data []byte, width, height int) (*image.Gray, error) {
	if isSVG(data) {
		return Rasterize(bytes.NewReader(data), width, height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("icon: unable to decode image: %w", err)
	}
	return Fit(img, width, height)
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
