package interact

import (
	"errors"
	"image"
	"log"
	"math"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/crop"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/view"
)

// MinBoxPixels is the smallest new box, in image pixels on either axis.
const MinBoxPixels = 4

// Target is the document the machine edits.
type Target interface {
	// Frame returns the geometry of the last render pass.
	Frame() view.Frame
	Boxes() *annotation.Store
	FocusedClass() int
	// ApplyCrop replaces the image and boxes with the crop to sel.
	ApplyCrop(sel geom.Rect) error
	// Zoom applies a wheel delta around focus, in viewport pixels.
	Zoom(delta float64, focus image.Point) bool
}

// Machine holds the current gesture. The zero value is not usable; call New.
type Machine struct {
	target  Target
	state   State
	pointer image.Point
	cursor  geom.Point
}

// New returns a machine in the Idle state editing t.
func New(t Target) *Machine {
	return &Machine{target: t, state: Idle{}}
}

// State returns the active gesture.
func (m *Machine) State() State { return m.state }

// Pointer returns the last pointer position clamped to the canvas.
func (m *Machine) Pointer() image.Point { return m.pointer }

// Cursor returns the last pointer position as a normalized image point.
func (m *Machine) Cursor() geom.Point { return m.cursor }

// Preview returns the rect of the box being drawn.
func (m *Machine) Preview() (geom.Rect, bool) {
	if s, ok := m.state.(DrawingNewBox); ok {
		return geom.FromPoints(m.cursor, s.Anchor), true
	}
	return geom.Rect{}, false
}

// CropPreview returns the crop selection spanned so far.
func (m *Machine) CropPreview() (geom.Rect, bool) {
	if s, ok := m.state.(CropSelecting); ok && s.Anchored {
		return geom.FromPoints(m.cursor, s.Anchor), true
	}
	return geom.Rect{}, false
}

// Cropping reports whether crop mode is active.
func (m *Machine) Cropping() bool {
	_, ok := m.state.(CropSelecting)
	return ok
}

// BeginCrop enters crop mode, dropping any gesture in progress.
func (m *Machine) BeginCrop() {
	m.Cancel()
	m.state = CropSelecting{}
}

// Cancel aborts the current gesture or crop mode. A cancelled drag puts the
// box back where it started.
func (m *Machine) Cancel() bool {
	switch s := m.state.(type) {
	case Idle:
		return false
	case Dragging:
		if err := m.target.Boxes().SetRect(s.Index, s.Original); err != nil {
			log.Printf("cancel drag: %v", err)
		}
	}
	m.state = Idle{}
	return true
}

// Reset forgets the gesture without touching the boxes. Used when the image
// is replaced.
func (m *Machine) Reset() { m.state = Idle{} }

// Handle feeds one pointer event through the machine and reports whether
// the frame needs repainting.
func (m *Machine) Handle(e mouse.Event) bool {
	m.track(e)
	switch {
	case isWheel(e.Button):
		if e.Direction == mouse.DirRelease {
			return false
		}
		return m.target.Zoom(wheelDelta(e.Button), m.pointer)
	case e.Direction == mouse.DirNone:
		return m.move()
	case e.Button == mouse.ButtonRight && e.Direction == mouse.DirPress:
		return m.rightDown()
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		return m.leftDown(e.Modifiers)
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		return m.leftUp()
	}
	return false
}

func (m *Machine) track(e mouse.Event) {
	f := m.target.Frame()
	x := clampf(float64(e.X), 0, float64(f.Canvas.X-1))
	y := clampf(float64(e.Y), 0, float64(f.Canvas.Y-1))
	m.pointer = image.Pt(int(math.Round(x)), int(math.Round(y)))
	m.cursor = f.ToNormalizedF(x, y)
}

func (m *Machine) move() bool {
	switch s := m.state.(type) {
	case Dragging:
		m.applyDrag(s)
	}
	// the cross-hair follows the pointer in every state
	return true
}

func (m *Machine) leftDown(mods key.Modifiers) bool {
	switch s := m.state.(type) {
	case Idle:
		idx, h := m.hit(m.pointer)
		if idx >= 0 && h != HandleNone && (h != HandleMove || mods&(key.ModControl|key.ModAlt) != 0) {
			b, _ := m.target.Boxes().At(idx)
			m.state = Dragging{
				Index:     idx,
				Handle:    h,
				StartRect: m.target.Frame().RectToViewport(b.Rect),
				StartPos:  m.pointer,
				Original:  b.Rect,
			}
			return true
		}
		m.state = DrawingNewBox{Anchor: m.cursor}
		return true
	case DrawingNewBox:
		m.commit(s)
		m.state = Idle{}
		return true
	case CropSelecting:
		if !s.Anchored {
			m.state = CropSelecting{Anchor: m.cursor, Anchored: true}
			return true
		}
		sel := geom.FromPoints(m.cursor, s.Anchor)
		m.state = Idle{}
		if err := m.target.ApplyCrop(sel); err != nil && !errors.Is(err, crop.ErrEmptyCrop) {
			log.Printf("crop: %v", err)
		}
		return true
	}
	return false
}

func (m *Machine) leftUp() bool {
	if s, ok := m.state.(Dragging); ok {
		m.applyDrag(s)
		m.state = Idle{}
		return true
	}
	return false
}

func (m *Machine) rightDown() bool {
	if _, ok := m.state.(Idle); !ok {
		return m.Cancel()
	}
	if !m.pointer.In(m.target.Frame().Draw) {
		return false
	}
	return m.target.Boxes().DeleteAt(m.cursor)
}

// commit appends the drawn box unless it is under MinBoxPixels on an axis.
func (m *Machine) commit(s DrawingNewBox) bool {
	r := geom.FromPoints(m.cursor, s.Anchor)
	img := m.target.Frame().Image
	if r.W*float64(img.X) < MinBoxPixels || r.H*float64(img.Y) < MinBoxPixels {
		return false
	}
	m.target.Boxes().Append(annotation.NewBox(m.target.FocusedClass(), r))
	return true
}

func (m *Machine) applyDrag(s Dragging) {
	f := m.target.Frame()
	r := Drag(s.StartRect, s.Handle, m.pointer.Sub(s.StartPos))
	next := geom.FromPoints(f.ToNormalized(r.Min), f.ToNormalized(r.Max))
	if err := m.target.Boxes().SetRect(s.Index, next); err != nil {
		log.Printf("drag: %v", err)
		m.state = Idle{}
	}
}

// hit returns the first box with a handle under p.
func (m *Machine) hit(p image.Point) (int, Handle) {
	f := m.target.Frame()
	store := m.target.Boxes()
	for i := 0; i < store.Len(); i++ {
		b, _ := store.At(i)
		if h := HitTest(f.RectToViewport(b.Rect), p); h != HandleNone {
			return i, h
		}
	}
	return -1, HandleNone
}

func isWheel(b mouse.Button) bool {
	switch b {
	case mouse.ButtonWheelUp, mouse.ButtonWheelDown:
		return true
	}
	return false
}

func wheelDelta(b mouse.Button) float64 {
	if b == mouse.ButtonWheelDown {
		return -view.WheelStep
	}
	return view.WheelStep
}

func clampf(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}
