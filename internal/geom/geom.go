// Package geom holds the value types shared by the view, annotation and crop
// code: points and rectangles in the unit square of an image, and float
// rectangles in pixel space.
package geom

import (
	"image"
	"math"
)

// Point is a position relative to the full image extent, top-left origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Clamp returns p with both coordinates limited to [0,1].
func (p Point) Clamp() Point {
	return Point{X: Clamp01(p.X), Y: Clamp01(p.Y)}
}

// Rect is a corner-based rectangle relative to the full image extent.
// Fields may leave [0,1] while a gesture is in progress.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.Right(), r.Bottom()} }

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies in r, edges included.
func (r Rect) Contains(p Point) bool {
	c := r.Canon()
	return p.X >= c.X && p.X <= c.Right() && p.Y >= c.Y && p.Y <= c.Bottom()
}

// Canon returns r with non-negative width and height.
func (r Rect) Canon() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Clamp limits every field of r to [0,1] independently.
func (r Rect) Clamp() Rect {
	return Rect{X: Clamp01(r.X), Y: Clamp01(r.Y), W: Clamp01(r.W), H: Clamp01(r.H)}
}

// Bound intersects r with the unit square, keeping its corners in [0,1].
func (r Rect) Bound() Rect {
	c := r.Canon()
	x0, y0 := Clamp01(c.X), Clamp01(c.Y)
	x1, y1 := Clamp01(c.Right()), Clamp01(c.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Scale maps r into pixel space for an image of w by h pixels.
func (r Rect) Scale(w, h float64) PixelRect {
	c := r.Canon()
	return PixelRect{MinX: c.X * w, MinY: c.Y * h, MaxX: c.Right() * w, MaxY: c.Bottom() * h}
}

// FromCenter builds a rect from the center-based form used on disk.
func FromCenter(cx, cy, w, h float64) Rect {
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// ToCenter returns the center-based form of r.
func (r Rect) ToCenter() (cx, cy, w, h float64) {
	return r.X + r.W/2, r.Y + r.H/2, r.W, r.H
}

// FromPoints builds the rect spanned by two opposite corners given in any order.
func FromPoints(a, b Point) Rect {
	midX := (a.X + b.X) / 2
	midY := (a.Y + b.Y) / 2
	w := math.Abs(a.X - b.X)
	h := math.Abs(a.Y - b.Y)
	return Rect{X: midX - w/2, Y: midY - h/2, W: w, H: h}
}

// Near reports whether every field of a and b differs by at most tol.
func Near(a, b Rect, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.W-b.W) <= tol && math.Abs(a.H-b.H) <= tol
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}

// PixelRect is a float rectangle in image or viewport pixels.
type PixelRect struct {
	MinX, MinY, MaxX, MaxY float64
}

// FromImageRect converts an integer rectangle.
func FromImageRect(r image.Rectangle) PixelRect {
	return PixelRect{MinX: float64(r.Min.X), MinY: float64(r.Min.Y), MaxX: float64(r.Max.X), MaxY: float64(r.Max.Y)}
}

// Dx returns the width of r.
func (r PixelRect) Dx() float64 { return r.MaxX - r.MinX }

// Dy returns the height of r.
func (r PixelRect) Dy() float64 { return r.MaxY - r.MinY }

// Empty reports whether r has no area.
func (r PixelRect) Empty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// Area returns the area of r, zero when empty.
func (r PixelRect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Intersect returns the overlap of r and s. The result may be empty.
func (r PixelRect) Intersect(s PixelRect) PixelRect {
	out := PixelRect{
		MinX: math.Max(r.MinX, s.MinX),
		MinY: math.Max(r.MinY, s.MinY),
		MaxX: math.Min(r.MaxX, s.MaxX),
		MaxY: math.Min(r.MaxY, s.MaxY),
	}
	if out.Empty() {
		return PixelRect{}
	}
	return out
}

// Translate shifts r by (dx, dy).
func (r PixelRect) Translate(dx, dy float64) PixelRect {
	return PixelRect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// alignSnap absorbs floating error from normalized round trips so that a
// value like 9.999999999999998 aligns to 10 rather than 9.
const alignSnap = 1e-6

// Aligned returns the smallest integer rectangle containing r.
func (r PixelRect) Aligned() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		alignDown(r.MinX), alignDown(r.MinY),
		alignUp(r.MaxX), alignUp(r.MaxY),
	)
}

func alignDown(v float64) int {
	if n := math.Round(v); math.Abs(v-n) < alignSnap {
		return int(n)
	}
	return int(math.Floor(v))
}

func alignUp(v float64) int {
	if n := math.Round(v); math.Abs(v-n) < alignSnap {
		return int(n)
	}
	return int(math.Ceil(v))
}

// IoU returns the intersection over union of a and b, in [0,1].
func IoU(a, b PixelRect) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := inter.Area()
	union := a.Area() + b.Area() - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}
