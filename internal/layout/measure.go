package layout

import (
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// DefaultFontSize is the label font size in pixels.
const DefaultFontSize = 16

// Measurer reports the pixel size of a single line of text.
type Measurer interface {
	Measure(text string) image.Point
}

var (
	regularOnce sync.Once
	regularFont *sfnt.Font
	regularErr  error
	faces       sync.Map // map[float64]font.Face
)

func parseRegular() {
	regularFont, regularErr = opentype.Parse(goregular.TTF)
}

// Face returns the Go regular face at size pixels, cached per size.
func Face(size float64) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) {
		size = DefaultFontSize
	}
	if f, ok := faces.Load(size); ok {
		return f.(font.Face), nil
	}
	regularOnce.Do(parseRegular)
	if regularErr != nil {
		return nil, fmt.Errorf("parse font: %w", regularErr)
	}
	face, err := opentype.NewFace(regularFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	actual, _ := faces.LoadOrStore(size, face)
	return actual.(font.Face), nil
}

// FontMeasurer measures text with a font.Face.
type FontMeasurer struct {
	face font.Face
}

// NewFontMeasurer returns a measurer for the Go regular face at size pixels.
func NewFontMeasurer(size float64) (*FontMeasurer, error) {
	face, err := Face(size)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{face: face}, nil
}

// Face returns the underlying face so text can be drawn with the same metrics.
func (m *FontMeasurer) Face() font.Face { return m.face }

// Measure returns the advance width and ascent+descent height of text.
func (m *FontMeasurer) Measure(text string) image.Point {
	metrics := m.face.Metrics()
	return image.Pt(
		font.MeasureString(m.face, text).Ceil(),
		metrics.Ascent.Ceil()+metrics.Descent.Ceil(),
	)
}

// Ascent returns the distance from the top of a line to its baseline.
func (m *FontMeasurer) Ascent() int { return m.face.Metrics().Ascent.Ceil() }
