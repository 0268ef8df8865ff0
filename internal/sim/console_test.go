package sim

import (
	"image"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestRender(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 4, 2))
	img.SetBit(1, 0, image1bit.On)
	img.SetBit(2, 1, image1bit.On)
	img.SetBit(3, 0, image1bit.On)
	img.SetBit(3, 1, image1bit.On)

	want := "┌────┐\n" +
		"│░▀▄█│\n" +
		"└────┘\n"
	if got := Render(img); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderOddHeight(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 1, 3))
	img.SetBit(0, 2, image1bit.On)
	want := "┌─┐\n│░│\n│▀│\n└─┘\n"
	if got := Render(img); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}
