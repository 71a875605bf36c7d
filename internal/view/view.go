// Package view maps between normalized image coordinates, image pixels and
// viewport pixels under an aspect-preserving fit plus user zoom and pan.
package view

import (
	"image"
	"math"

	"github.com/example/boxmark/internal/geom"
)

// WheelStep is the wheel delta reported for one notch.
const WheelStep = 120

// zoomBase is the zoom factor applied per wheel notch.
const zoomBase = 1.2

// Limits bounds the user zoom factor.
type Limits struct {
	MinZoom float64
	MaxZoom float64
}

// DefaultLimits returns the stock zoom range.
func DefaultLimits() Limits { return Limits{MinZoom: 0.1, MaxZoom: 10} }

func (l Limits) sane() Limits {
	d := DefaultLimits()
	if !finitePositive(l.MinZoom) {
		l.MinZoom = d.MinZoom
	}
	if !finitePositive(l.MaxZoom) || l.MaxZoom < l.MinZoom {
		l.MaxZoom = math.Max(d.MaxZoom, l.MinZoom)
	}
	return l
}

// State is the zoom factor and pan center of the current image.
type State struct {
	Zoom   float64
	Center geom.Point
	limits Limits
}

// New returns a State at the default view using limits.
func New(limits Limits) *State {
	s := &State{limits: limits.sane()}
	s.Reset()
	return s
}

// Reset returns to zoom 1 centered on the image.
func (s *State) Reset() {
	s.Zoom = 1
	s.Center = geom.Pt(0.5, 0.5)
}

// Limits returns the active zoom bounds.
func (s *State) Limits() Limits { return s.limits }

// SetLimits replaces the zoom bounds and clamps the current zoom into them.
func (s *State) SetLimits(l Limits) {
	s.limits = l.sane()
	s.Zoom = s.clampZoom(s.Zoom)
}

func (s *State) clampZoom(z float64) float64 {
	if !finitePositive(z) {
		z = 1
	}
	return math.Min(math.Max(z, s.limits.MinZoom), s.limits.MaxZoom)
}

// Frame is the geometry of one render pass. Draw is the viewport rectangle
// the scaled image occupies and is the denominator of every conversion.
type Frame struct {
	Image  image.Point
	Canvas image.Point
	Draw   image.Rectangle
}

// FitScale returns the largest scale at which img fits in canvas, or 1 when
// that is not a finite positive number.
func FitScale(img, canvas image.Point) float64 {
	fx := float64(canvas.X) / float64(img.X)
	fy := float64(canvas.Y) / float64(img.Y)
	s := math.Min(fx, fy)
	if !finitePositive(s) {
		return 1
	}
	return s
}

// Layout computes the frame for an image of size img shown in a canvas of
// size canvas. The pan center is clamped to the unit square as a side effect.
func (s *State) Layout(img, canvas image.Point) Frame {
	f := Frame{Image: img, Canvas: canvas}
	if img.X <= 0 || img.Y <= 0 || canvas.X <= 0 || canvas.Y <= 0 {
		return f
	}
	s.Zoom = s.clampZoom(s.Zoom)
	scale := FitScale(img, canvas) * s.Zoom
	if !finitePositive(scale) {
		scale = 1
	}
	sw := max(1, int(math.Round(float64(img.X)*scale)))
	sh := max(1, int(math.Round(float64(img.Y)*scale)))

	s.Center = s.Center.Clamp()
	x := place(canvas.X, sw, s.Center.X)
	y := place(canvas.Y, sh, s.Center.Y)
	f.Draw = image.Rect(x, y, x+sw, y+sh)
	return f
}

func place(canvas, scaled int, center float64) int {
	if scaled <= canvas {
		return int(math.Round(float64(canvas-scaled) / 2))
	}
	desired := float64(canvas)/2 - center*float64(scaled)
	lo := float64(canvas - scaled)
	return int(math.Round(math.Min(math.Max(desired, lo), 0)))
}

// ApplyZoomDelta zooms by 1.2 per wheel notch of delta. When focus lies in
// the image the pan center moves to it, otherwise back to the middle. It
// reports whether the zoom changed.
func (s *State) ApplyZoomDelta(delta float64, focus image.Point, f Frame) bool {
	if delta == 0 || math.IsNaN(delta) {
		return false
	}
	steps := delta / WheelStep
	next := s.clampZoom(s.Zoom * math.Pow(zoomBase, steps))
	if math.Abs(next-s.Zoom) < 1e-4 {
		return false
	}
	if focus.In(f.Draw) {
		s.Center = f.ToNormalized(focus)
	} else {
		s.Center = geom.Pt(0.5, 0.5)
	}
	s.Zoom = next
	return true
}

// ToViewport maps a normalized point to the nearest viewport pixel.
func (f Frame) ToViewport(p geom.Point) image.Point {
	return image.Pt(
		round(float64(f.Draw.Min.X)+p.X*float64(f.Draw.Dx())),
		round(float64(f.Draw.Min.Y)+p.Y*float64(f.Draw.Dy())),
	)
}

// RectToViewport maps a normalized rect into viewport pixels. An empty
// frame yields a degenerate rectangle.
func (f Frame) RectToViewport(r geom.Rect) image.Rectangle {
	r = r.Canon()
	dw := float64(f.Draw.Dx())
	dh := float64(f.Draw.Dy())
	x := round(float64(f.Draw.Min.X) + r.X*dw)
	y := round(float64(f.Draw.Min.Y) + r.Y*dh)
	return image.Rect(x, y, x+round(r.W*dw), y+round(r.H*dh))
}

// ToNormalized maps a viewport pixel back into the unit square. Points
// outside the image clamp to its edges; an empty frame yields the origin.
func (f Frame) ToNormalized(p image.Point) geom.Point {
	return f.ToNormalizedF(float64(p.X), float64(p.Y))
}

// ToNormalizedF is ToNormalized for sub-pixel pointer positions.
func (f Frame) ToNormalizedF(x, y float64) geom.Point {
	if f.Draw.Dx() <= 0 || f.Draw.Dy() <= 0 {
		return geom.Point{}
	}
	return geom.Point{
		X: (x - float64(f.Draw.Min.X)) / float64(f.Draw.Dx()),
		Y: (y - float64(f.Draw.Min.Y)) / float64(f.Draw.Dy()),
	}.Clamp()
}

// RectToImageF scales a normalized rect to image pixels without rounding.
func (f Frame) RectToImageF(r geom.Rect) geom.PixelRect {
	return r.Scale(float64(f.Image.X), float64(f.Image.Y))
}

// RectToImage scales a normalized rect to image pixels, intersects it with
// the image and returns the smallest covering integer rectangle.
func (f Frame) RectToImage(r geom.Rect) image.Rectangle {
	return RectToImage(r, f.Image)
}

// RectToImage is the frame-independent form of Frame.RectToImage.
func RectToImage(r geom.Rect, size image.Point) image.Rectangle {
	bounds := geom.PixelRect{MaxX: float64(size.X), MaxY: float64(size.Y)}
	return r.Scale(float64(size.X), float64(size.Y)).Intersect(bounds).Aligned()
}

// ImageToNormalized is the inverse of RectToImageF.
func (f Frame) ImageToNormalized(r geom.PixelRect) geom.Rect {
	return ImageToNormalized(r, f.Image)
}

// ImageToNormalized divides a pixel rect by the image size.
func ImageToNormalized(r geom.PixelRect, size image.Point) geom.Rect {
	if size.X <= 0 || size.Y <= 0 {
		return geom.Rect{}
	}
	w := float64(size.X)
	h := float64(size.Y)
	return geom.Rect{X: r.MinX / w, Y: r.MinY / h, W: r.Dx() / w, H: r.Dy() / h}
}

func round(v float64) int { return int(math.Floor(v + 0.5)) }

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
