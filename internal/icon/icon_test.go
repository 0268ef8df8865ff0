package icon

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

const halfBar = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 8 8" width="8" height="8">
<rect x="0" y="0" width="4" height="8" fill="black"/>
</svg>`

func TestRasterize(t *testing.T) {
	img, err := Rasterize(strings.NewReader(halfBar), 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 16, 16) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if img.GrayAt(2, 8).Y < 0x80 {
		t.Errorf("painted pixel is dark: %v", img.GrayAt(2, 8))
	}
	if img.GrayAt(13, 8).Y != 0 {
		t.Errorf("blank pixel is lit: %v", img.GrayAt(13, 8))
	}
}

func TestRasterizeErrors(t *testing.T) {
	if _, err := Rasterize(strings.NewReader(halfBar), 0, 8); !errors.Is(err, ErrSize) {
		t.Errorf("error = %v, want ErrSize", err)
	}
	if _, err := Rasterize(strings.NewReader("not svg"), 8, 8); !errors.Is(err, ErrNotSVG) {
		t.Errorf("error = %v, want ErrNotSVG", err)
	}
}

func TestFitKeepsAspectRatio(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 0xFF})
	src.SetGray(1, 0, color.Gray{Y: 0xFF})

	img, err := Fit(src, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if img.GrayAt(4, 4).Y < 0x80 {
		t.Errorf("center is dark: %v", img.GrayAt(4, 4))
	}
	if img.GrayAt(4, 0).Y != 0 || img.GrayAt(4, 7).Y != 0 {
		t.Error("letterbox rows are lit")
	}
}

func TestLoadPNG(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := Load(buf.Bytes(), 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if img.GrayAt(3, 3).Y < 0x80 {
		t.Errorf("pixel is dark: %v", img.GrayAt(3, 3))
	}
}

func TestLoadSVG(t *testing.T) {
	img, err := Load([]byte(halfBar), 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if img.GrayAt(1, 4).Y < 0x80 {
		t.Errorf("painted pixel is dark: %v", img.GrayAt(1, 4))
	}
}
