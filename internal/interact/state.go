// Package interact turns pointer events into box edits: drawing new boxes,
// moving and resizing existing ones, point deletion and crop selection.
package interact

import (
	"fmt"
	"image"

	"github.com/example/boxmark/internal/geom"
)

// State is one of Idle, DrawingNewBox, Dragging or CropSelecting.
type State interface {
	isState()
	fmt.Stringer
}

// Idle means no gesture is in progress.
type Idle struct{}

// DrawingNewBox waits for the second click of a new box.
type DrawingNewBox struct {
	Anchor geom.Point
}

// Dragging moves or resizes the box at Index. StartRect and StartPos are in
// viewport pixels; Original restores the box when the drag is cancelled.
type Dragging struct {
	Index     int
	Handle    Handle
	StartRect image.Rectangle
	StartPos  image.Point
	Original  geom.Rect
}

// CropSelecting is the explicit crop mode. Anchored is set once the first
// corner has been clicked.
type CropSelecting struct {
	Anchor   geom.Point
	Anchored bool
}

func (Idle) isState()          {}
func (DrawingNewBox) isState() {}
func (Dragging) isState()      {}
func (CropSelecting) isState() {}

func (Idle) String() string          { return "idle" }
func (DrawingNewBox) String() string { return "drawing" }
func (d Dragging) String() string    { return fmt.Sprintf("dragging %d (%v)", d.Index, d.Handle) }
func (c CropSelecting) String() string {
	if c.Anchored {
		return "crop: pick second corner"
	}
	return "crop: pick first corner"
}

// Handle is the part of a box grabbed by the pointer.
type Handle int

const (
	HandleNone Handle = iota
	HandleMove
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleMove:
		return "move"
	case HandleNW:
		return "nw"
	case HandleNE:
		return "ne"
	case HandleSW:
		return "sw"
	case HandleSE:
		return "se"
	}
	return fmt.Sprintf("Handle(%d)", int(h))
}

// GrabTolerance is the distance in viewport pixels within which a corner
// counts as grabbed.
const GrabTolerance = 6

// HitTest reports which handle of r, in viewport pixels, lies under p.
// Corners are tried NW, NE, SW, SE before the interior.
func HitTest(r image.Rectangle, p image.Point) Handle {
	corners := [4]struct {
		pt image.Point
		h  Handle
	}{
		{r.Min, HandleNW},
		{image.Pt(r.Max.X, r.Min.Y), HandleNE},
		{image.Pt(r.Min.X, r.Max.Y), HandleSW},
		{r.Max, HandleSE},
	}
	for _, c := range corners {
		if abs(p.X-c.pt.X) <= GrabTolerance && abs(p.Y-c.pt.Y) <= GrabTolerance {
			return c.h
		}
	}
	if p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y {
		return HandleMove
	}
	return HandleNone
}

// Drag applies the pointer delta d to start according to h.
func Drag(start image.Rectangle, h Handle, d image.Point) image.Rectangle {
	r := start
	switch h {
	case HandleMove:
		r = r.Add(d)
	case HandleNW:
		r.Min = r.Min.Add(d)
	case HandleNE:
		r.Min.Y += d.Y
		r.Max.X += d.X
	case HandleSW:
		r.Min.X += d.X
		r.Max.Y += d.Y
	case HandleSE:
		r.Max = r.Max.Add(d)
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
