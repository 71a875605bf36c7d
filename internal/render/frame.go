// Package render composes one annotation frame: the letterboxed image,
// class-coloured boxes, overlap badges, the cross-hair, gesture previews and
// the label callouts.
package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"strconv"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/interact"
	"github.com/example/boxmark/internal/layout"
	"github.com/example/boxmark/internal/overlap"
	"github.com/example/boxmark/internal/session"
	"github.com/example/boxmark/internal/theme"
	"github.com/example/boxmark/internal/view"
)

const (
	// Stroke is the default box outline width.
	Stroke = 3

	dashLen    = 6
	handleSize = 8

	badgeW        = 20
	badgeH        = 16
	badgeFontSize = 12
)

// Options controls what a frame shows.
type Options struct {
	Theme *theme.Theme

	// Scaler resamples the image into the draw rect. Nil means ApproxBiLinear.
	Scaler xdraw.Scaler

	Stroke   int
	FontSize float64

	// Hints dashes near-duplicate boxes, adds count badges and joins the
	// class names of a cluster into one label.
	Hints     bool
	Threshold float64

	Labels            bool
	AvoidLabelOverlap bool
	ShowConfidence    bool

	Crosshair bool
	Status    bool
}

// DefaultOptions returns the window defaults.
func DefaultOptions() Options {
	return Options{
		Theme:             theme.Default(),
		Stroke:            Stroke,
		FontSize:          layout.DefaultFontSize,
		Hints:             true,
		Threshold:         overlap.DefaultThreshold,
		Labels:            true,
		AvoidLabelOverlap: true,
		ShowConfidence:    true,
		Crosshair:         true,
		Status:            true,
	}
}

// Scene is the read-only snapshot one pass draws.
type Scene struct {
	Image       image.Image
	Frame       view.Frame
	Boxes       []annotation.Box
	Classes     []string
	Confidences []float64

	// Cursor is the normalized pointer; the origin means no pointer yet.
	Cursor geom.Point

	Preview    geom.Rect
	HasPreview bool
	Crop       geom.Rect
	HasCrop    bool
	// Active is the index of the box being dragged, or -1.
	Active int

	Status string
	// Message is a transient notice drawn across the top.
	Message string
}

// SceneOf lays doc out for a canvas of size canvas and captures what it
// shows. The scene shares no mutable state with doc, so it can be drawn on
// another goroutine.
func SceneOf(doc *session.Document, canvas image.Point) Scene {
	f := doc.Layout(canvas)
	m := doc.Machine()
	sc := Scene{
		Image:       doc.Display(),
		Frame:       f,
		Boxes:       doc.Boxes().Boxes(),
		Classes:     slices.Clone(doc.Classes()),
		Confidences: slices.Clone(doc.Confidences()),
		Cursor:      m.Cursor(),
		Active:      -1,
		Status:      doc.StatusLine(),
	}
	sc.Preview, sc.HasPreview = m.Preview()
	sc.Crop, sc.HasCrop = m.CropPreview()
	if d, ok := m.State().(interact.Dragging); ok {
		sc.Active = d.Index
	}
	return sc
}

// Result describes what a pass placed.
type Result struct {
	Overlap overlap.Result
	Labels  []layout.Label
}

// Draw renders sc into dst. The context is checked between stages; a
// cancelled pass leaves dst partially drawn and returns ctx.Err().
func Draw(ctx context.Context, dst *image.RGBA, sc Scene, opts Options) (Result, error) {
	var res Result
	th := opts.Theme
	if th == nil {
		th = theme.Default()
	}
	stroke := opts.Stroke
	if stroke <= 0 {
		stroke = Stroke
	}

	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)
	if sc.Image != nil && !sc.Frame.Draw.Empty() {
		scaler := opts.Scaler
		if scaler == nil {
			scaler = xdraw.ApproxBiLinear
		}
		scaler.Scale(dst, sc.Frame.Draw, sc.Image, sc.Image.Bounds(), draw.Src, nil)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if opts.Crosshair && sc.Cursor != (geom.Point{}) {
		p := sc.Frame.ToViewport(sc.Cursor)
		b := dst.Bounds()
		drawLine(dst, p.X, b.Min.Y, p.X, b.Max.Y-1, th.Crosshair, stroke)
		drawLine(dst, b.Min.X, p.Y, b.Max.X-1, p.Y, th.Crosshair, stroke)
	}
	if sc.HasPreview {
		drawRect(dst, sc.Frame.RectToViewport(sc.Preview), th.Preview, stroke)
	}

	if opts.Hints {
		res.Overlap = overlap.New(opts.Threshold).Analyze(sc.Boxes, sc.Frame.Image)
	}
	rects := make([]image.Rectangle, len(sc.Boxes))
	for i, b := range sc.Boxes {
		rects[i] = sc.Frame.RectToViewport(b.Rect)
		col := th.ClassColor(b.ClassID)
		if opts.Hints && res.Overlap.Flagged(i) {
			drawDashedRect(dst, rects[i], dashLen, stroke, col, nil)
			drawBadge(dst, rects[i], res.Overlap.Count(i)+1, th)
		} else {
			drawRect(dst, rects[i], col, stroke)
		}
	}
	if sc.Active >= 0 && sc.Active < len(rects) {
		for _, h := range cornerHandles(rects[sc.Active], handleSize) {
			fillRect(dst, h, th.Handle)
			drawRect(dst, h, th.CropDark, 1)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if sc.HasCrop {
		r := sc.Frame.RectToViewport(sc.Crop)
		drawDashedRect(dst, r, 4, 2, th.CropLight, th.CropDark)
		for _, h := range cornerHandles(r, handleSize) {
			fillRect(dst, h, th.CropLight)
			drawRect(dst, h, th.CropDark, 1)
		}
	}

	if opts.Labels && len(sc.Boxes) > 0 {
		labels, err := drawLabels(dst, sc, rects, res.Overlap, opts, th, stroke)
		if err != nil {
			return res, err
		}
		res.Labels = labels
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if opts.Status && sc.Status != "" {
		if err := drawStatus(dst, sc.Status, opts.FontSize, th); err != nil {
			return res, err
		}
	}
	if sc.Message != "" {
		if err := drawMessage(dst, sc.Message, opts.FontSize, th); err != nil {
			return res, err
		}
	}
	return res, nil
}

func drawLabels(dst *image.RGBA, sc Scene, rects []image.Rectangle, ov overlap.Result, opts Options, th *theme.Theme, stroke int) ([]layout.Label, error) {
	m, err := layout.NewFontMeasurer(opts.FontSize)
	if err != nil {
		return nil, err
	}
	var confs []float64
	if opts.ShowConfidence {
		confs = sc.Confidences
	}
	texts := layout.Texts(sc.Boxes, sc.Classes, confs, ov, opts.Hints)
	items := make([]layout.Item, len(sc.Boxes))
	for i := range sc.Boxes {
		items[i] = layout.Item{Box: rects[i], Text: texts[i]}
	}
	var labels []layout.Label
	if opts.AvoidLabelOverlap {
		labels = layout.Place(items, dst.Bounds().Size(), m)
	} else {
		labels = layout.PlaceFixed(items, m, m.Measure("M").Y, stroke)
	}
	ascent := m.Ascent()
	for i, l := range labels {
		bg := th.ClassColor(sc.Boxes[i].ClassID)
		draw.Draw(dst, l.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
		text(dst, m.Face(), th.LabelText(bg), l.Rect.Min.X+layout.XMargin, l.Rect.Min.Y+layout.YMargin+ascent, l.Text)
	}
	return labels, nil
}

func drawBadge(dst *image.RGBA, box image.Rectangle, count int, th *theme.Theme) {
	tr := image.Pt(box.Max.X, box.Min.Y)
	r := image.Rectangle{Min: tr.Add(image.Pt(-22, 2))}
	r.Max = r.Min.Add(image.Pt(badgeW, badgeH))
	fillRect(dst, r, th.Badge)
	m, err := layout.NewFontMeasurer(badgeFontSize)
	if err != nil {
		return
	}
	s := strconv.Itoa(count)
	sz := m.Measure(s)
	x := r.Min.X + (badgeW-sz.X)/2
	y := r.Min.Y + (badgeH-sz.Y)/2 + m.Ascent()
	text(dst, m.Face(), th.BadgeText, x, y, s)
}

func drawStatus(dst *image.RGBA, status string, size float64, th *theme.Theme) error {
	m, err := layout.NewFontMeasurer(size)
	if err != nil {
		return err
	}
	b := dst.Bounds()
	h := m.Measure(status).Y + 2*layout.YMargin
	bar := image.Rect(b.Min.X, b.Max.Y-h, b.Max.X, b.Max.Y)
	fillRect(dst, bar, th.StatusBackground)
	text(dst, m.Face(), th.Foreground, bar.Min.X+layout.XMargin, bar.Min.Y+layout.YMargin+m.Ascent(), status)
	return nil
}

func drawMessage(dst *image.RGBA, msg string, size float64, th *theme.Theme) error {
	m, err := layout.NewFontMeasurer(size)
	if err != nil {
		return err
	}
	b := dst.Bounds()
	sz := m.Measure(msg).Add(image.Pt(4*layout.XMargin, 2*layout.YMargin))
	x := b.Min.X + (b.Dx()-sz.X)/2
	r := image.Rect(x, b.Min.Y+8, x+sz.X, b.Min.Y+8+sz.Y)
	fillRect(dst, r, th.StatusBackground)
	drawRect(dst, r, th.Foreground, 1)
	text(dst, m.Face(), th.Foreground, r.Min.X+2*layout.XMargin, r.Min.Y+layout.YMargin+m.Ascent(), msg)
	return nil
}

// text draws s with its baseline at y.
func text(dst *image.RGBA, face font.Face, col color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
