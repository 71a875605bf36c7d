// Package crop cuts an image down to a normalized region and re-derives
// every box against the cropped frame.
package crop

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/view"
)

// ErrEmptyCrop is returned when the region covers less than one pixel on
// either axis.
var ErrEmptyCrop = errors.New("crop region is empty")

// Result is the outcome of Apply.
type Result struct {
	Image *image.NRGBA
	Boxes []annotation.Box
	// Region is the cropped area in source image pixels.
	Region image.Rectangle
}

// Region converts a normalized selection to the pixel rectangle that will be
// cut from an image of size size.
func Region(sel geom.Rect, size image.Point) (image.Rectangle, error) {
	r := view.RectToImage(sel.Canon(), size)
	if r.Dx() < 1 || r.Dy() < 1 {
		return image.Rectangle{}, ErrEmptyCrop
	}
	return r, nil
}

// Boxes re-expresses boxes relative to region. Boxes whose intersection with
// region is empty or thinner than one pixel are dropped; the rest are clipped
// and every field is clamped to [0,1].
func Boxes(boxes []annotation.Box, size image.Point, region image.Rectangle) []annotation.Box {
	w := float64(size.X)
	h := float64(size.Y)
	cr := geom.FromImageRect(region)
	nw := cr.Dx()
	nh := cr.Dy()
	out := make([]annotation.Box, 0, len(boxes))
	if nw <= 0 || nh <= 0 {
		return out
	}
	for _, b := range boxes {
		inter := b.Rect.Scale(w, h).Intersect(cr)
		if inter.Empty() || inter.Dx() < 1 || inter.Dy() < 1 {
			continue
		}
		inter = inter.Translate(-cr.MinX, -cr.MinY)
		b.Rect = geom.Rect{
			X: inter.MinX / nw,
			Y: inter.MinY / nh,
			W: inter.Dx() / nw,
			H: inter.Dy() / nh,
		}.Clamp()
		out = append(out, b)
	}
	return out
}

// Apply crops img and boxes to the normalized selection sel.
func Apply(img image.Image, boxes []annotation.Box, sel geom.Rect) (Result, error) {
	if img == nil {
		return Result{}, ErrEmptyCrop
	}
	bounds := img.Bounds()
	region, err := Region(sel, bounds.Size())
	if err != nil {
		return Result{}, err
	}
	return Result{
		Image:  imaging.Crop(img, region.Add(bounds.Min)),
		Boxes:  Boxes(boxes, bounds.Size(), region),
		Region: region,
	}, nil
}
