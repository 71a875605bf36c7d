package theme

import (
	"image/color"
)

// Theme defines the colours of the annotation canvas.
type Theme struct {
	Name string

	// Canvas
	Background color.RGBA // Letterbox around the image
	Foreground color.RGBA // Status text

	StatusBackground color.RGBA

	// Overlays
	Crosshair  color.RGBA
	Preview    color.RGBA // Box being drawn
	CropLight  color.RGBA // Crop selection dashes
	CropDark   color.RGBA
	Handle     color.RGBA
	Badge      color.RGBA // Near-duplicate count badge
	BadgeText  color.RGBA
	Unknown    color.RGBA // Boxes whose class has no palette entry
	LabelLight color.RGBA // Label text on dark backgrounds
	LabelDark  color.RGBA // Label text on light backgrounds

	// Palette holds the class colours, cycled by class id.
	Palette []color.RGBA
}

// Default returns the hardcoded default dark theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{24, 24, 24, 255},
		Foreground:       color.RGBA{235, 235, 235, 255},
		StatusBackground: color.RGBA{0, 0, 0, 170},
		Crosshair:        color.RGBA{255, 187, 0, 255},
		Preview:          color.RGBA{255, 0, 255, 255},
		CropLight:        color.RGBA{255, 255, 255, 255},
		CropDark:         color.RGBA{0, 0, 0, 255},
		Handle:           color.RGBA{255, 255, 255, 255},
		Badge:            color.RGBA{255, 0, 0, 180},
		BadgeText:        color.RGBA{255, 255, 255, 255},
		Unknown:          color.RGBA{255, 0, 255, 255},
		LabelLight:       color.RGBA{255, 255, 255, 255},
		LabelDark:        color.RGBA{0, 0, 0, 255},
		Palette:          DefaultPalette(),
	}
}

// ClassColor returns the colour of class id. Negative ids, or any id when
// the palette is empty, use Unknown.
func (t *Theme) ClassColor(id int) color.RGBA {
	if id < 0 || len(t.Palette) == 0 {
		return t.Unknown
	}
	return t.Palette[id%len(t.Palette)]
}

// LabelText returns the text colour readable on bg.
func (t *Theme) LabelText(bg color.Color) color.RGBA {
	if Light(bg) {
		return t.LabelDark
	}
	return t.LabelLight
}
