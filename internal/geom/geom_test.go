package geom

import (
	"image"
	"math"
	"testing"
)

func TestFromPointsEitherDirection(t *testing.T) {
	want := R(0.1, 0.1, 0.2, 0.3)
	for _, pts := range [][2]Point{
		{Pt(0.1, 0.1), Pt(0.3, 0.4)},
		{Pt(0.3, 0.4), Pt(0.1, 0.1)},
		{Pt(0.1, 0.4), Pt(0.3, 0.1)},
	} {
		got := FromPoints(pts[0], pts[1])
		if !Near(got, want, 1e-9) {
			t.Errorf("FromPoints(%v, %v) = %+v, want %+v", pts[0], pts[1], got, want)
		}
	}
}

func TestCenterRoundTrip(t *testing.T) {
	r := FromCenter(0.5, 0.5, 0.2, 0.4)
	if !Near(r, R(0.4, 0.3, 0.2, 0.4), 1e-9) {
		t.Fatalf("unexpected rect %+v", r)
	}
	cx, cy, w, h := r.ToCenter()
	if math.Abs(cx-0.5) > 1e-9 || math.Abs(cy-0.5) > 1e-9 || w != 0.2 || h != 0.4 {
		t.Fatalf("unexpected center form %v %v %v %v", cx, cy, w, h)
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-3: 0, 0: 0, 0.25: 0.25, 1: 1, 7: 1, math.NaN(): 0}
	for in, want := range cases {
		if got := Clamp01(in); got != want {
			t.Errorf("Clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestIoUProperties(t *testing.T) {
	rects := []PixelRect{
		{0, 0, 500, 500},
		{50, 50, 550, 550},
		{10, 10, 510, 510},
		{600, 600, 700, 650},
		{0, 0, 0, 0},
	}
	for i, a := range rects {
		for j, b := range rects {
			ab := IoU(a, b)
			ba := IoU(b, a)
			if ab != ba {
				t.Errorf("IoU not symmetric for %d,%d: %v vs %v", i, j, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("IoU out of range for %d,%d: %v", i, j, ab)
			}
		}
		if !a.Empty() {
			if got := IoU(a, a); math.Abs(got-1) > 1e-12 {
				t.Errorf("IoU(a,a) = %v for %d", got, i)
			}
		}
	}
	if got := IoU(rects[0], rects[3]); got != 0 {
		t.Errorf("disjoint IoU = %v", got)
	}
}

func TestIoUScenarios(t *testing.T) {
	a := R(0, 0, 0.5, 0.5).Scale(1000, 800)
	far := R(0.05, 0.05, 0.5, 0.5).Scale(1000, 800)
	near := R(0.01, 0.01, 0.5, 0.5).Scale(1000, 800)
	if got := IoU(a, far); math.Abs(got-0.68) > 0.01 {
		t.Errorf("offset 0.05 IoU = %v, want ~0.68", got)
	}
	if got := IoU(a, near); math.Abs(got-0.92) > 0.01 {
		t.Errorf("offset 0.01 IoU = %v, want ~0.92", got)
	}
}

func TestAligned(t *testing.T) {
	r := PixelRect{MinX: 10.2, MinY: 3.9, MaxX: 20.1, MaxY: 4.0}
	if got, want := r.Aligned(), image.Rect(10, 3, 21, 4); got != want {
		t.Fatalf("Aligned = %v, want %v", got, want)
	}
	sel := FromPoints(Pt(0.5, 0.5), Pt(0.1, 0.1)).Scale(100, 100)
	if got, want := sel.Aligned(), image.Rect(10, 10, 50, 50); got != want {
		t.Fatalf("Aligned(%+v) = %v, want %v", sel, got, want)
	}
}

func TestContainsIncludesEdges(t *testing.T) {
	r := R(0.2, 0.2, 0.2, 0.2)
	if !r.Contains(Pt(0.2, 0.4)) {
		t.Fatal("expected edge point to be contained")
	}
	if r.Contains(Pt(0.41, 0.3)) {
		t.Fatal("expected outside point to be rejected")
	}
}

func TestBoundKeepsCornersInside(t *testing.T) {
	got := R(0.9, -0.2, 0.5, 0.4).Bound()
	if !Near(got, R(0.9, 0, 0.1, 0.2), 1e-9) {
		t.Fatalf("Bound = %+v", got)
	}
}
