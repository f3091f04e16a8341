// Package display composes the sign's frame and presents it to outputs
package display

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"
)

// Panel geometry
const (
	Width  = 128
	Height = 64
)

// Label colors
var (
	DimWhite = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	Gold     = color.RGBA{R: 0xdd, G: 0x80, B: 0x00, A: 0xff}
)

// InitialTimes is shown in the time slots until the first successful cycle
const InitialTimes = "- mins"

// Label is a single text object on the panel. X, Y is the text baseline origin.
type Label struct {
	Text  string
	Color color.RGBA
	X, Y  int
}

// Layout names every object on the panel. Primary lines carry the station
// label, secondary lines carry the arrival times.
type Layout struct {
	Background     image.Image
	Line1Primary   Label
	Line1Secondary Label
	Line2Primary   Label
	Line2Secondary Label
}

// DefaultLayout places two label/time pairs to the right of the background icon
func DefaultLayout(background image.Image, station string) Layout {
	return Layout{
		Background:     background,
		Line1Primary:   Label{Text: station, Color: DimWhite, X: 40, Y: 13},
		Line1Secondary: Label{Text: InitialTimes, Color: Gold, X: 40, Y: 28},
		Line2Primary:   Label{Text: station, Color: DimWhite, X: 40, Y: 45},
		Line2Secondary: Label{Text: InitialTimes, Color: Gold, X: 40, Y: 60},
	}
}

// labels returns the text objects in draw order
func (l *Layout) labels() []Label {
	return []Label{l.Line1Primary, l.Line1Secondary, l.Line2Primary, l.Line2Secondary}
}

// LoadBackground decodes the BMP background image at path
func LoadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening background: %w", err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding background %s: %w", path, err)
	}
	return img, nil
}
