package view

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/example/boxmark/internal/geom"
)

func TestLayoutCentersFittedImage(t *testing.T) {
	s := New(DefaultLimits())
	f := s.Layout(image.Pt(1000, 800), image.Pt(500, 500))
	// fit = min(0.5, 0.625) = 0.5 -> 500x400 centered vertically
	if want := image.Rect(0, 50, 500, 450); f.Draw != want {
		t.Fatalf("Draw = %v, want %v", f.Draw, want)
	}
}

func TestLayoutPansZoomedImage(t *testing.T) {
	s := New(DefaultLimits())
	s.Zoom = 2
	s.Center = geom.Pt(0, 1)
	f := s.Layout(image.Pt(100, 100), image.Pt(100, 100))
	// 200x200 scaled; center (0,1) clamps to the left/bottom edges.
	if want := image.Rect(0, -100, 200, 100); f.Draw != want {
		t.Fatalf("Draw = %v, want %v", f.Draw, want)
	}
	s.Center = geom.Pt(0.5, 0.5)
	f = s.Layout(image.Pt(100, 100), image.Pt(100, 100))
	if want := image.Rect(-50, -50, 150, 150); f.Draw != want {
		t.Fatalf("Draw = %v, want %v", f.Draw, want)
	}
}

func TestFitScaleGuards(t *testing.T) {
	if got := FitScale(image.Pt(0, 10), image.Pt(10, 10)); got != 1 {
		t.Errorf("zero width fit = %v, want 1", got)
	}
	if got := FitScale(image.Pt(10, 10), image.Pt(0, 10)); got != 1 {
		t.Errorf("zero canvas fit = %v, want 1", got)
	}
	if got := FitScale(image.Pt(10, 20), image.Pt(30, 30)); got != 1.5 {
		t.Errorf("fit = %v, want 1.5", got)
	}
}

func TestToNormalizedAlwaysInUnitSquare(t *testing.T) {
	s := New(DefaultLimits())
	f := s.Layout(image.Pt(640, 480), image.Pt(800, 600))
	pts := []image.Point{{-10000, -10000}, {10000, 5}, {400, 300}, {-1, 601}, {f.Draw.Max.X, f.Draw.Max.Y}}
	for _, p := range pts {
		n := f.ToNormalized(p)
		if n.X < 0 || n.X > 1 || n.Y < 0 || n.Y > 1 {
			t.Errorf("ToNormalized(%v) = %+v out of range", p, n)
		}
	}
	if got := (Frame{}).ToNormalized(image.Pt(5, 5)); got != (geom.Point{}) {
		t.Errorf("empty frame = %+v, want origin", got)
	}
}

func TestViewportRoundTrip(t *testing.T) {
	s := New(DefaultLimits())
	f := s.Layout(image.Pt(1000, 800), image.Pt(1000, 800))
	p := geom.Pt(0.25, 0.75)
	back := f.ToNormalized(f.ToViewport(p))
	if math.Abs(back.X-p.X) > 1e-3 || math.Abs(back.Y-p.Y) > 1e-3 {
		t.Fatalf("round trip %+v -> %+v", p, back)
	}
}

func TestImageRoundTrip(t *testing.T) {
	size := image.Pt(4000, 3000)
	f := Frame{Image: size}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		x := rng.Float64() * 0.8
		y := rng.Float64() * 0.8
		r := geom.R(x, y, rng.Float64()*(1-x), rng.Float64()*(1-y))

		exact := f.ImageToNormalized(f.RectToImageF(r))
		if !geom.Near(exact, r, 1e-9) {
			t.Fatalf("float round trip %+v -> %+v", r, exact)
		}
		aligned := ImageToNormalized(geom.FromImageRect(f.RectToImage(r)), size)
		if !geom.Near(aligned, r, 1e-3) {
			t.Fatalf("aligned round trip %+v -> %+v", r, aligned)
		}
	}
}

func TestRectToImageIntersectsBounds(t *testing.T) {
	got := RectToImage(geom.R(-0.5, 0.5, 1, 1), image.Pt(100, 100))
	if want := image.Rect(0, 50, 50, 100); got != want {
		t.Fatalf("RectToImage = %v, want %v", got, want)
	}
}

func TestApplyZoomDelta(t *testing.T) {
	s := New(Limits{MinZoom: 0.5, MaxZoom: 2})
	f := s.Layout(image.Pt(100, 100), image.Pt(100, 100))
	if !s.ApplyZoomDelta(WheelStep, image.Pt(25, 75), f) {
		t.Fatal("expected zoom change")
	}
	if math.Abs(s.Zoom-1.2) > 1e-9 {
		t.Errorf("zoom = %v, want 1.2", s.Zoom)
	}
	if s.Center != geom.Pt(0.25, 0.75) {
		t.Errorf("center = %+v, want focus", s.Center)
	}

	f = s.Layout(image.Pt(100, 100), image.Pt(100, 100))
	if !s.ApplyZoomDelta(10*WheelStep, image.Pt(-40, -40), f) {
		t.Fatal("expected zoom change up to max")
	}
	if s.Zoom != 2 {
		t.Errorf("zoom = %v, want clamp to 2", s.Zoom)
	}
	if s.Center != geom.Pt(0.5, 0.5) {
		t.Errorf("center = %+v, want reset for outside focus", s.Center)
	}
	if s.ApplyZoomDelta(WheelStep, image.Pt(50, 50), f) {
		t.Error("expected no change once clamped at max")
	}
	if s.ApplyZoomDelta(0, image.Pt(50, 50), f) {
		t.Error("expected zero delta to be ignored")
	}
}

func TestLimitsSanitized(t *testing.T) {
	s := New(Limits{MinZoom: -1, MaxZoom: math.NaN()})
	if l := s.Limits(); l != DefaultLimits() {
		t.Fatalf("limits = %+v, want defaults", l)
	}
}
