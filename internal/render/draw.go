package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// pen returns the colour of the n-th pixel along a stroke, or nil to skip it.
type pen func(n int) color.Color

func solid(c color.Color) pen { return func(int) color.Color { return c } }

// dashed alternates on and off every dash pixels. A nil off leaves gaps.
func dashed(dash int, on, off color.Color) pen {
	if dash <= 0 {
		dash = 1
	}
	return func(n int) color.Color {
		if (n/dash)%2 == 0 {
			return on
		}
		return off
	}
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

// strokeLine walks from (x0,y0) to (x1,y1) with Bresenham and stamps a
// square of side thick at every step.
func strokeLine(img *image.RGBA, x0, y0, x1, y1, thick int, p pen) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for n := 0; ; n++ {
		if col := p(n); col != nil {
			setThickPixel(img, x0, y0, thick, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	strokeLine(img, x0, y0, x1, y1, thick, solid(col))
}

// strokeRect outlines rect along its outermost pixels.
func strokeRect(img *image.RGBA, rect image.Rectangle, thick int, p pen) {
	if rect.Empty() {
		return
	}
	x0, y0 := rect.Min.X, rect.Min.Y
	x1, y1 := rect.Max.X-1, rect.Max.Y-1
	strokeLine(img, x0, y0, x1, y0, thick, p)
	strokeLine(img, x1, y0, x1, y1, thick, p)
	strokeLine(img, x1, y1, x0, y1, thick, p)
	strokeLine(img, x0, y1, x0, y0, thick, p)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	strokeRect(img, rect, thick, solid(col))
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thick int, c1, c2 color.Color) {
	strokeRect(img, rect, thick, dashed(dash, c1, c2))
}

// fillRect blends col over rect. Theme colours carry straight alpha.
func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	draw.Draw(img, rect, image.NewUniform(color.NRGBA(col)), image.Point{}, draw.Over)
}

// cornerHandles returns the four grab squares of rect, tl tr bl br.
func cornerHandles(rect image.Rectangle, size int) []image.Rectangle {
	hs := size / 2
	return []image.Rectangle{
		image.Rect(rect.Min.X-hs, rect.Min.Y-hs, rect.Min.X+hs, rect.Min.Y+hs),
		image.Rect(rect.Max.X-hs, rect.Min.Y-hs, rect.Max.X+hs, rect.Min.Y+hs),
		image.Rect(rect.Min.X-hs, rect.Max.Y-hs, rect.Min.X+hs, rect.Max.Y+hs),
		image.Rect(rect.Max.X-hs, rect.Max.Y-hs, rect.Max.X+hs, rect.Max.Y+hs),
	}
}
