package interact

import (
	"image"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/crop"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/view"
)

type fakeDoc struct {
	frame   view.Frame
	store   *annotation.Store
	class   int
	crops   []geom.Rect
	zooms   []float64
	cropErr error
}

func newFakeDoc(boxes ...annotation.Box) *fakeDoc {
	return &fakeDoc{
		frame: view.Frame{
			Image:  image.Pt(1000, 800),
			Canvas: image.Pt(1000, 800),
			Draw:   image.Rect(0, 0, 1000, 800),
		},
		store: annotation.NewStore(boxes...),
	}
}

func (d *fakeDoc) Frame() view.Frame { return d.frame }
func (d *fakeDoc) Boxes() *annotation.Store { return d.store }
func (d *fakeDoc) FocusedClass() int { return d.class }
func (d *fakeDoc) ApplyCrop(sel geom.Rect) error { d.crops = append(d.crops, sel); return d.cropErr }
func (d *fakeDoc) Zoom(delta float64, _ image.Point) bool {
	d.zooms = append(d.zooms, delta)
	return true
}

func press(x, y float32, b mouse.Button) mouse.Event {
	return mouse.Event{X: x, Y: y, Button: b, Direction: mouse.DirPress}
}

func release(x, y float32, b mouse.Button) mouse.Event {
	return mouse.Event{X: x, Y: y, Button: b, Direction: mouse.DirRelease}
}

func moveTo(x, y float32) mouse.Event {
	return mouse.Event{X: x, Y: y, Direction: mouse.DirNone}
}

func TestNewBoxCommit(t *testing.T) {
	doc := newFakeDoc()
	doc.class = 3
	m := New(doc)
	m.Handle(press(100, 80, mouse.ButtonLeft))
	if _, ok := m.State().(DrawingNewBox); !ok {
		t.Fatalf("state = %v", m.State())
	}
	m.Handle(release(100, 80, mouse.ButtonLeft))
	m.Handle(moveTo(300, 320))
	if r, ok := m.Preview(); !ok || !geom.Near(r, geom.R(0.1, 0.1, 0.2, 0.3), 1e-9) {
		t.Fatalf("preview = %+v %v", r, ok)
	}
	m.Handle(press(300, 320, mouse.ButtonLeft))
	if _, ok := m.State().(Idle); !ok {
		t.Fatalf("state after commit = %v", m.State())
	}
	if doc.store.Len() != 1 {
		t.Fatalf("boxes = %d", doc.store.Len())
	}
	b, _ := doc.store.At(0)
	if b.ClassID != 3 || !geom.Near(b.Rect, geom.R(0.1, 0.1, 0.2, 0.3), 1e-9) || b.Confidence != 1 {
		t.Fatalf("box = %+v", b)
	}
}

func TestNewBoxReverseDirection(t *testing.T) {
	doc := newFakeDoc()
	m := New(doc)
	m.Handle(press(300, 320, mouse.ButtonLeft))
	m.Handle(press(100, 80, mouse.ButtonLeft))
	b, ok := doc.store.At(0)
	if !ok || !geom.Near(b.Rect, geom.R(0.1, 0.1, 0.2, 0.3), 1e-9) {
		t.Fatalf("box = %+v", b)
	}
}

func TestNewBoxTooSmallRejected(t *testing.T) {
	doc := newFakeDoc()
	m := New(doc)
	m.Handle(press(100, 80, mouse.ButtonLeft))
	m.Handle(press(101, 80.4, mouse.ButtonLeft))
	if doc.store.Len() != 0 {
		t.Fatalf("tiny box committed: %+v", doc.store.Boxes())
	}
	if _, ok := m.State().(Idle); !ok {
		t.Fatalf("state = %v", m.State())
	}
}

func TestRightClickCancelsWithoutDelete(t *testing.T) {
	doc := newFakeDoc(annotation.NewBox(0, geom.R(0, 0, 1, 1)))
	m := New(doc)
	m.Handle(press(500, 400, mouse.ButtonLeft))
	m.Handle(press(500, 400, mouse.ButtonRight))
	if _, ok := m.State().(Idle); !ok {
		t.Fatalf("state = %v", m.State())
	}
	if doc.store.Len() != 1 {
		t.Fatal("right-click during a gesture deleted a box")
	}
	m.Handle(press(500, 400, mouse.ButtonRight))
	if doc.store.Len() != 0 {
		t.Fatal("right-click while idle did not delete")
	}
}

func TestRightClickDeletesSmallest(t *testing.T) {
	doc := newFakeDoc(
		annotation.NewBox(0, geom.R(0, 0, 0.8, 0.8)),
		annotation.NewBox(1, geom.R(0.2, 0.2, 0.2, 0.2)),
	)
	m := New(doc)
	m.Handle(press(300, 240, mouse.ButtonRight))
	if doc.store.Len() != 1 {
		t.Fatalf("len = %d", doc.store.Len())
	}
	if b, _ := doc.store.At(0); b.ClassID != 0 {
		t.Fatalf("wrong box removed, left %+v", b)
	}
	// nothing under the pointer
	m.Handle(press(950, 780, mouse.ButtonRight))
	if doc.store.Len() != 1 {
		t.Fatal("delete with no box under pointer changed the store")
	}
}

func TestInteriorNeedsModifierToMove(t *testing.T) {
	doc := newFakeDoc(annotation.NewBox(0, geom.R(0.2, 0.25, 0.2, 0.25)))
	m := New(doc)
	m.Handle(press(300, 300, mouse.ButtonLeft))
	if _, ok := m.State().(DrawingNewBox); !ok {
		t.Fatalf("plain click inside box: state = %v", m.State())
	}
	m.Cancel()

	e := press(300, 300, mouse.ButtonLeft)
	e.Modifiers = key.ModControl
	m.Handle(e)
	d, ok := m.State().(Dragging)
	if !ok || d.Handle != HandleMove || d.Index != 0 {
		t.Fatalf("state = %v", m.State())
	}
	m.Handle(moveTo(400, 380))
	b, _ := doc.store.At(0)
	if !geom.Near(b.Rect, geom.R(0.3, 0.35, 0.2, 0.25), 1e-9) {
		t.Fatalf("live drag rect = %+v", b.Rect)
	}
	m.Handle(release(400, 380, mouse.ButtonLeft))
	if _, ok := m.State().(Idle); !ok {
		t.Fatalf("state after release = %v", m.State())
	}
}

func TestCornerResizeClampsToImage(t *testing.T) {
	doc := newFakeDoc(annotation.NewBox(0, geom.R(0.5, 0.5, 0.2, 0.25)))
	doc.frame.Canvas = image.Pt(1200, 1000)
	doc.frame.Draw = image.Rect(100, 100, 1100, 900)
	m := New(doc)
	// SE corner at (800, 700)
	m.Handle(press(803, 697, mouse.ButtonLeft))
	if d, ok := m.State().(Dragging); !ok || d.Handle != HandleSE {
		t.Fatalf("state = %v", m.State())
	}
	m.Handle(moveTo(1199, 999))
	m.Handle(release(2000, 2000, mouse.ButtonLeft))
	b, _ := doc.store.At(0)
	if !geom.Near(b.Rect, geom.R(0.5, 0.5, 0.5, 0.5), 1e-9) {
		t.Fatalf("resized rect = %+v", b.Rect)
	}
}

func TestCancelDragRestores(t *testing.T) {
	orig := geom.R(0.5, 0.5, 0.2, 0.25)
	doc := newFakeDoc(annotation.NewBox(0, orig))
	m := New(doc)
	m.Handle(press(500, 400, mouse.ButtonLeft))
	m.Handle(moveTo(300, 100))
	m.Handle(press(300, 100, mouse.ButtonRight))
	b, _ := doc.store.At(0)
	if b.Rect != orig {
		t.Fatalf("rect after cancel = %+v", b.Rect)
	}
	if doc.store.Len() != 1 {
		t.Fatal("cancel deleted a box")
	}
}

func TestCropMode(t *testing.T) {
	doc := newFakeDoc()
	m := New(doc)
	m.Handle(press(100, 100, mouse.ButtonLeft))
	m.BeginCrop()
	if !m.Cropping() {
		t.Fatal("not cropping")
	}
	m.Handle(press(750, 600, mouse.ButtonLeft))
	m.Handle(moveTo(250, 200))
	if r, ok := m.CropPreview(); !ok || !geom.Near(r, geom.R(0.25, 0.25, 0.5, 0.5), 1e-9) {
		t.Fatalf("crop preview = %+v %v", r, ok)
	}
	m.Handle(press(250, 200, mouse.ButtonLeft))
	if len(doc.crops) != 1 || !geom.Near(doc.crops[0], geom.R(0.25, 0.25, 0.5, 0.5), 1e-9) {
		t.Fatalf("crops = %+v", doc.crops)
	}
	if m.Cropping() || doc.store.Len() != 0 {
		t.Fatalf("state %v, boxes %d", m.State(), doc.store.Len())
	}
}

func TestCropRightClickLeavesMode(t *testing.T) {
	doc := newFakeDoc(annotation.NewBox(0, geom.R(0, 0, 1, 1)))
	doc.cropErr = crop.ErrEmptyCrop
	m := New(doc)
	m.BeginCrop()
	m.Handle(press(100, 100, mouse.ButtonLeft))
	m.Handle(press(100, 100, mouse.ButtonRight))
	if m.Cropping() || len(doc.crops) != 0 || doc.store.Len() != 1 {
		t.Fatalf("state %v crops %v boxes %d", m.State(), doc.crops, doc.store.Len())
	}
}

func TestWheelZooms(t *testing.T) {
	doc := newFakeDoc()
	m := New(doc)
	m.Handle(mouse.Event{X: 10, Y: 10, Button: mouse.ButtonWheelUp, Direction: mouse.DirStep})
	m.Handle(mouse.Event{X: 10, Y: 10, Button: mouse.ButtonWheelDown, Direction: mouse.DirStep})
	if len(doc.zooms) != 2 || doc.zooms[0] != 120 || doc.zooms[1] != -120 {
		t.Fatalf("zooms = %v", doc.zooms)
	}
}

func TestCursorClamped(t *testing.T) {
	doc := newFakeDoc()
	m := New(doc)
	m.Handle(moveTo(-50, 5000))
	if c := m.Cursor(); c.X != 0 || c.Y < 0.99 || c.Y > 1 {
		t.Fatalf("cursor = %+v", c)
	}
	if p := m.Pointer(); p != image.Pt(0, 799) {
		t.Fatalf("pointer = %v", p)
	}
}

func TestHitTest(t *testing.T) {
	r := image.Rect(100, 100, 200, 200)
	cases := []struct {
		p    image.Point
		want Handle
	}{
		{image.Pt(98, 103), HandleNW},
		{image.Pt(205, 95), HandleNE},
		{image.Pt(100, 200), HandleSW},
		{image.Pt(206, 206), HandleSE},
		{image.Pt(150, 150), HandleMove},
		{image.Pt(207, 150), HandleNone},
	}
	for _, c := range cases {
		if got := HitTest(r, c.p); got != c.want {
			t.Errorf("HitTest(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}
