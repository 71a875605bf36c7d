package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/mobile/event/mouse"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/geom"
	"github.com/example/boxmark/internal/session"
	"github.com/example/boxmark/internal/view"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var black = color.RGBA{0, 0, 0, 255}

func scene(img image.Image, canvas image.Point, boxes ...annotation.Box) Scene {
	f := view.New(view.DefaultLimits()).Layout(img.Bounds().Size(), canvas)
	return Scene{Image: img, Frame: f, Boxes: boxes, Classes: []string{"cat", "dog"}, Active: -1}
}

func bare() Options {
	o := DefaultOptions()
	o.Labels = false
	o.Crosshair = false
	o.Status = false
	return o
}

func TestDrawLetterboxesImage(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	sc := scene(solidImage(100, 50, red), image.Pt(200, 200))
	if sc.Frame.Draw != image.Rect(0, 50, 200, 150) {
		t.Fatalf("draw rect = %v", sc.Frame.Draw)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	if _, err := Draw(context.Background(), dst, sc, bare()); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(100, 10); got != DefaultOptions().Theme.Background {
		t.Errorf("letterbox = %v", got)
	}
	if got := dst.RGBAAt(100, 100); got != red {
		t.Errorf("image pixel = %v", got)
	}
}

func TestDrawBoxOutline(t *testing.T) {
	sc := scene(solidImage(100, 100, black), image.Pt(100, 100), annotation.NewBox(0, geom.R(0.25, 0.25, 0.5, 0.5)))
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if _, err := Draw(context.Background(), dst, sc, bare()); err != nil {
		t.Fatal(err)
	}
	green := color.RGBA{0, 255, 0, 255}
	if got := dst.RGBAAt(25, 50); got != green {
		t.Errorf("left edge = %v", got)
	}
	if got := dst.RGBAAt(74, 50); got != green {
		t.Errorf("right edge = %v", got)
	}
	if got := dst.RGBAAt(50, 50); got != black {
		t.Errorf("interior = %v", got)
	}
}

func TestDrawOverlapHints(t *testing.T) {
	box := annotation.NewBox(0, geom.R(0.25, 0.25, 0.5, 0.5))
	dup := annotation.NewBox(1, geom.R(0.25, 0.25, 0.5, 0.5))
	sc := scene(solidImage(100, 100, black), image.Pt(100, 100), box, dup)
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	res, err := Draw(context.Background(), dst, sc, bare())
	if err != nil {
		t.Fatal(err)
	}
	if res.Overlap.Count(0) != 1 || res.Overlap.Count(1) != 1 {
		t.Fatalf("overlap = %+v", res.Overlap)
	}
	if got := dst.RGBAAt(33, 25); got != black {
		t.Errorf("dash gap = %v", got)
	}
	if got := dst.RGBAAt(27, 25); got == black {
		t.Error("dash not drawn")
	}
	if got := dst.RGBAAt(53, 27); got.R < 150 || got.G > 20 {
		t.Errorf("badge = %v", got)
	}

	opts := bare()
	opts.Hints = false
	dst = image.NewRGBA(image.Rect(0, 0, 100, 100))
	res, _ = Draw(context.Background(), dst, sc, opts)
	if res.Overlap.Flagged(0) {
		t.Error("hints off still analysed overlap")
	}
	if got := dst.RGBAAt(33, 25); got == black {
		t.Error("solid outline expected without hints")
	}
}

func TestDrawCrosshair(t *testing.T) {
	sc := scene(solidImage(100, 100, black), image.Pt(100, 100))
	sc.Cursor = geom.Pt(0.5, 0.5)
	opts := bare()
	opts.Crosshair = true
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if _, err := Draw(context.Background(), dst, sc, opts); err != nil {
		t.Fatal(err)
	}
	want := opts.Theme.Crosshair
	if dst.RGBAAt(50, 2) != want || dst.RGBAAt(3, 50) != want {
		t.Errorf("crosshair missing: %v %v", dst.RGBAAt(50, 2), dst.RGBAAt(3, 50))
	}

	sc.Cursor = geom.Point{}
	dst = image.NewRGBA(image.Rect(0, 0, 100, 100))
	Draw(context.Background(), dst, sc, opts)
	if dst.RGBAAt(0, 2) == want {
		t.Error("crosshair drawn without a pointer")
	}
}

func TestDrawLabels(t *testing.T) {
	sc := scene(solidImage(400, 400, black), image.Pt(400, 400),
		annotation.NewBox(0, geom.R(0.25, 0.25, 0.25, 0.25)),
		annotation.NewBox(1, geom.R(0.6, 0.6, 0.2, 0.2)),
	)
	sc.Confidences = []float64{0.5}
	opts := bare()
	opts.Labels = true
	dst := image.NewRGBA(image.Rect(0, 0, 400, 400))
	res, err := Draw(context.Background(), dst, sc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Labels) != 2 {
		t.Fatalf("labels = %+v", res.Labels)
	}
	if res.Labels[0].Text != "cat (0.50)" || res.Labels[1].Text != "dog" {
		t.Fatalf("texts = %q %q", res.Labels[0].Text, res.Labels[1].Text)
	}
	bounds := dst.Bounds()
	for i, l := range res.Labels {
		if !l.Rect.In(bounds) {
			t.Errorf("label %d outside canvas: %v", i, l.Rect)
		}
		if got := dst.RGBAAt(l.Rect.Min.X, l.Rect.Min.Y); got != opts.Theme.ClassColor(sc.Boxes[i].ClassID) {
			t.Errorf("label %d background = %v", i, got)
		}
	}
	if res.Labels[0].Rect.Overlaps(res.Labels[1].Rect) {
		t.Error("labels overlap")
	}
}

func TestDrawStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := scene(solidImage(10, 10, black), image.Pt(10, 10))
	_, err := Draw(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)), sc, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestSceneOfDocument(t *testing.T) {
	doc := session.NewDocument(session.WithClasses([]string{"cat"}))
	doc.Load(solidImage(100, 100, black), []annotation.Box{annotation.NewBox(0, geom.R(0.6, 0.6, 0.2, 0.2))})
	sc := SceneOf(doc, image.Pt(100, 100))
	if sc.Frame.Draw != image.Rect(0, 0, 100, 100) || len(sc.Boxes) != 1 || sc.Active != -1 {
		t.Fatalf("scene = %+v", sc)
	}
	if sc.Status != "Boxes: 1 | cat (0): 1" {
		t.Fatalf("status = %q", sc.Status)
	}

	m := doc.Machine()
	m.Handle(mouse.Event{X: 10, Y: 10, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	m.Handle(mouse.Event{X: 40, Y: 40})
	sc = SceneOf(doc, image.Pt(100, 100))
	if !sc.HasPreview || !geom.Near(sc.Preview, geom.R(0.1, 0.1, 0.3, 0.3), 1e-9) {
		t.Fatalf("preview = %+v %v", sc.Preview, sc.HasPreview)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if _, err := Draw(context.Background(), dst, sc, bare()); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(25, 10); got != DefaultOptions().Theme.Preview {
		t.Errorf("preview edge = %v", got)
	}
}

func TestDrawMessageOverlay(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	sc := scene(solidImage(200, 200, white), image.Pt(200, 200))
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	if _, err := Draw(context.Background(), dst, sc, bare()); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(100, 9); got != white {
		t.Fatalf("pixel without message = %v", got)
	}
	sc.Message = "saved a.txt"
	if _, err := Draw(context.Background(), dst, sc, bare()); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(100, 9); got == white {
		t.Fatal("message box not drawn")
	}
}
