// Package session owns the image being annotated together with its boxes,
// view and gesture state, and the dataset it belongs to.
package session

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/anthonynsimon/bild/adjust"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/crop"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/interact"
	"github.com/example/boxmark/internal/overlap"
	"github.com/example/boxmark/internal/view"
)

// ContrastMax is the top of the contrast slider. The midpoint is neutral.
const ContrastMax = 1000

// ErrNoImage is returned by operations that need an open image.
var ErrNoImage = errors.New("no image open")

// Document is the single owner of the current image, its boxes, the view
// and the pointer machine. It is driven from one goroutine.
type Document struct {
	path      string
	labelPath string

	src     image.Image
	display image.Image

	store   *annotation.Store
	view    *view.State
	frame   view.Frame
	machine *interact.Machine

	classes     []string
	focused     int
	contrast    int
	gamma       float64
	confidences []float64

	pixelsDirty bool
	boxesDirty  bool
}

// Option configures a Document.
type Option func(*Document)

// WithLimits sets the zoom bounds.
func WithLimits(l view.Limits) Option {
	return func(d *Document) { d.view.SetLimits(l) }
}

// WithClasses sets the class names.
func WithClasses(names []string) Option {
	return func(d *Document) { d.classes = names }
}

// WithGamma sets the initial display gamma.
func WithGamma(g float64) Option {
	return func(d *Document) { d.SetGamma(g) }
}

// NewDocument returns an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		store:    annotation.NewStore(),
		view:     view.New(view.DefaultLimits()),
		contrast: ContrastMax / 2,
		gamma:    1,
	}
	d.machine = interact.New(d)
	d.store.OnChange(func(annotation.Change) { d.boxesDirty = true })
	for _, o := range opts {
		o(d)
	}
	return d
}

// Load atomically replaces the image and boxes and resets view and gesture.
func (d *Document) Load(img image.Image, boxes []annotation.Box) {
	d.src = img
	d.store.Replace(boxes)
	d.resetState()
	d.pixelsDirty = false
	d.boxesDirty = false
	d.confidences = nil
}

func (d *Document) resetState() {
	d.view.Reset()
	d.machine.Reset()
	d.frame = view.Frame{}
	d.rebuildDisplay()
}

// Open loads the image at path and its label file. A missing label file
// means no boxes; the confidence side file is consumed if present.
func (d *Document) Open(path string) error {
	img, err := dataset.OpenImage(path)
	if err != nil {
		return err
	}
	labelPath := dataset.LabelPath(path)
	boxes, err := annotation.LoadFile(labelPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	d.path = path
	d.labelPath = labelPath
	d.Load(img, boxes)
	d.confidences = dataset.ReadConfidences(labelPath)
	return nil
}

// ReloadLabels re-reads the label file and confidences, keeping the image.
func (d *Document) ReloadLabels() error {
	if d.labelPath == "" {
		return ErrNoImage
	}
	boxes, err := annotation.LoadFile(d.labelPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	d.store.Replace(boxes)
	d.machine.Reset()
	d.boxesDirty = false
	d.confidences = dataset.ReadConfidences(d.labelPath)
	return nil
}

// Save writes the label file, and the image only when its pixels changed.
func (d *Document) Save() error {
	if d.src == nil || d.labelPath == "" {
		return ErrNoImage
	}
	if err := annotation.SaveFile(d.labelPath, d.store.Boxes()); err != nil {
		return err
	}
	d.boxesDirty = false
	if d.pixelsDirty {
		if err := dataset.SaveImage(d.path, d.src); err != nil {
			return err
		}
		d.pixelsDirty = false
	}
	return nil
}

// Path returns the image path, empty for an in-memory image.
func (d *Document) Path() string { return d.path }

// LabelPath returns the label file of the image.
func (d *Document) LabelPath() string { return d.labelPath }

// Image returns the source pixels.
func (d *Document) Image() image.Image { return d.src }

// Display returns the source with the display gamma applied.
func (d *Document) Display() image.Image { return d.display }

// Size returns the image size in pixels.
func (d *Document) Size() image.Point {
	if d.src == nil {
		return image.Point{}
	}
	return d.src.Bounds().Size()
}

// Boxes returns the box store.
func (d *Document) Boxes() *annotation.Store { return d.store }

// View returns the zoom and pan state.
func (d *Document) View() *view.State { return d.view }

// Machine returns the pointer machine bound to this document.
func (d *Document) Machine() *interact.Machine { return d.machine }

// Confidences returns the side-channel confidences of the current image.
func (d *Document) Confidences() []float64 { return d.confidences }

// Classes returns the class names.
func (d *Document) Classes() []string { return d.classes }

// SetClasses replaces the class names and clamps the focused class.
func (d *Document) SetClasses(names []string) {
	d.classes = names
	d.SetFocusedClass(d.focused)
}

// FocusedClass is the class given to new boxes.
func (d *Document) FocusedClass() int { return d.focused }

// SetFocusedClass selects the class for new boxes, clamped to the class list.
func (d *Document) SetFocusedClass(id int) {
	d.focused = max(0, min(id, len(d.classes)-1))
}

// PixelsDirty reports unsaved pixel changes from a crop.
func (d *Document) PixelsDirty() bool { return d.pixelsDirty }

// Dirty reports any unsaved change.
func (d *Document) Dirty() bool { return d.pixelsDirty || d.boxesDirty }

// Layout recomputes the frame for a canvas of size canvas. It is called at
// the start of every render pass.
func (d *Document) Layout(canvas image.Point) view.Frame {
	d.frame = d.view.Layout(d.Size(), canvas)
	return d.frame
}

// Frame returns the geometry of the last render pass.
func (d *Document) Frame() view.Frame { return d.frame }

// Zoom applies a wheel delta around focus.
func (d *Document) Zoom(delta float64, focus image.Point) bool {
	if d.src == nil {
		return false
	}
	return d.view.ApplyZoomDelta(delta, focus, d.frame)
}

// ResetZoom returns to the fitted view.
func (d *Document) ResetZoom() { d.view.Reset() }

// ApplyCrop replaces the image with the selected region and re-derives the
// boxes. An empty selection leaves the document untouched.
func (d *Document) ApplyCrop(sel geom.Rect) error {
	if d.src == nil {
		return ErrNoImage
	}
	res, err := crop.Apply(d.src, d.store.Boxes(), sel)
	if err != nil {
		return err
	}
	d.src = res.Image
	d.store.Replace(res.Boxes)
	d.confidences = nil
	d.pixelsDirty = true
	d.resetState()
	return nil
}

// Overlap analyses the current boxes at threshold.
func (d *Document) Overlap(threshold float64) overlap.Result {
	return overlap.New(threshold).Analyze(d.store.Boxes(), d.Size())
}

// StatusLine summarises the boxes per class.
func (d *Document) StatusLine() string {
	return annotation.StatusLine(d.store.Boxes(), d.classes)
}

// GammaForContrast maps a slider value in [0, ContrastMax] to a gamma.
func GammaForContrast(v int) float64 {
	p := float64(v)/ContrastMax + 0.5
	return math.Pow(1/p, 7)
}

// SetContrast sets the slider value and rebuilds the display image.
func (d *Document) SetContrast(v int) {
	d.contrast = max(0, min(v, ContrastMax))
	d.SetGamma(GammaForContrast(d.contrast))
}

// Contrast returns the slider value.
func (d *Document) Contrast() int { return d.contrast }

// ContrastPercent is the slider value as shown to the user.
func (d *Document) ContrastPercent() int {
	return int((float64(d.contrast)/ContrastMax + 0.5) * 100)
}

// Gamma returns the display gamma.
func (d *Document) Gamma() float64 { return d.gamma }

// SetGamma sets the display gamma; non-positive values reset it to 1.
func (d *Document) SetGamma(g float64) {
	if !(g > 0) || math.IsInf(g, 0) {
		g = 1
	}
	d.gamma = g
	d.rebuildDisplay()
}

// rebuildDisplay applies out = (in/255)^gamma to the source. bild raises to
// 1/g, hence the inversion.
func (d *Document) rebuildDisplay() {
	if d.src == nil {
		d.display = nil
		return
	}
	if math.Abs(d.gamma-1) < 1e-9 {
		d.display = d.src
		return
	}
	d.display = adjust.Gamma(d.src, 1/d.gamma)
}

func (d *Document) String() string {
	return fmt.Sprintf("%s (%d boxes)", d.path, d.store.Len())
}
