// Package overlap finds near-duplicate boxes by pairwise IoU.
package overlap

import (
	"image"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/geom"
)

// DefaultThreshold is the IoU at which two boxes count as near-duplicates.
const DefaultThreshold = 0.90

// Analyzer compares every pair of boxes in image-pixel space.
type Analyzer struct {
	Threshold float64
}

// New returns an Analyzer with threshold, falling back to DefaultThreshold
// when it is outside (0,1].
func New(threshold float64) Analyzer {
	if !(threshold > 0 && threshold <= 1) {
		threshold = DefaultThreshold
	}
	return Analyzer{Threshold: threshold}
}

// Result holds the per-box output of one analysis.
type Result struct {
	// Partners lists, for each box, the indices of its near-duplicates in
	// ascending order.
	Partners [][]int
	// Classes lists, for each box with partners, the distinct class ids of
	// the box and its partners: the box's own class first, then partner
	// classes in partner order.
	Classes [][]int
}

// Count returns the number of near-duplicate partners of box i.
func (r Result) Count(i int) int {
	if i < 0 || i >= len(r.Partners) {
		return 0
	}
	return len(r.Partners[i])
}

// Flagged reports whether box i has at least one partner.
func (r Result) Flagged(i int) bool { return r.Count(i) > 0 }

// Analyze runs the O(n²) pairwise scan over boxes for an image of size img.
func (a Analyzer) Analyze(boxes []annotation.Box, img image.Point) Result {
	n := len(boxes)
	res := Result{Partners: make([][]int, n), Classes: make([][]int, n)}
	if n < 2 {
		return res
	}
	w := float64(img.X)
	h := float64(img.Y)
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	px := make([]geom.PixelRect, n)
	for i, b := range boxes {
		px[i] = b.Rect.Scale(w, h)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if geom.IoU(px[i], px[j]) >= a.Threshold {
				res.Partners[i] = append(res.Partners[i], j)
				res.Partners[j] = append(res.Partners[j], i)
			}
		}
	}
	for i, partners := range res.Partners {
		if len(partners) == 0 {
			continue
		}
		seen := map[int]bool{boxes[i].ClassID: true}
		classes := []int{boxes[i].ClassID}
		for _, j := range partners {
			c := boxes[j].ClassID
			if !seen[c] {
				seen[c] = true
				classes = append(classes, c)
			}
		}
		res.Classes[i] = classes
	}
	return res
}
