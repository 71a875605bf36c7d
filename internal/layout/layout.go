// Package layout composes the callout text of each box and places the
// callouts around their boxes without overlapping each other or leaving the
// canvas. Placement is greedy in box order.
package layout

import (
	"fmt"
	"image"
	"strings"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/overlap"
)

const (
	// XMargin and YMargin pad the text inside its background.
	XMargin = 5
	YMargin = 2

	gap      = 4
	pad      = 3
	maxSteps = 12
)

// Separator joins class names of a near-duplicate cluster.
const Separator = " • "

// Anchor records which rule placed a label.
type Anchor int

const (
	AboveLeft Anchor = iota
	AboveRight
	BelowLeft
	BelowRight
	Stepped
	Forced
	Fixed
)

func (a Anchor) String() string {
	switch a {
	case AboveLeft:
		return "above-left"
	case AboveRight:
		return "above-right"
	case BelowLeft:
		return "below-left"
	case BelowRight:
		return "below-right"
	case Stepped:
		return "stepped"
	case Forced:
		return "forced"
	case Fixed:
		return "fixed"
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// Item is one box to label, in viewport pixels.
type Item struct {
	Box  image.Rectangle
	Text string
}

// Label is a placed callout background.
type Label struct {
	Rect   image.Rectangle
	Text   string
	Anchor Anchor
}

// Texts builds the callout text of every box: the class name, with the
// side-channel confidence when one exists for that index, or the joined
// names of a near-duplicate cluster spanning more than one name.
func Texts(boxes []annotation.Box, names []string, confidences []float64, ov overlap.Result, hints bool) []string {
	out := make([]string, len(boxes))
	for i, b := range boxes {
		base := annotation.ClassName(names, b.ClassID)
		text := base
		if i < len(confidences) {
			text = fmt.Sprintf("%s (%.2f)", base, confidences[i])
		}
		if hints && i < len(ov.Classes) && len(ov.Classes[i]) > 0 {
			if joined, ok := clusterText(ov.Classes[i], names); ok {
				text = joined
			}
		}
		out[i] = text
	}
	return out
}

func clusterText(classes []int, names []string) (string, bool) {
	seen := map[string]bool{}
	var uniq []string
	for _, c := range classes {
		n := annotation.ClassName(names, c)
		if !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	if len(uniq) < 2 {
		return "", false
	}
	return strings.Join(uniq, Separator), true
}

// Size returns the background size for text: the measured text plus margins.
func Size(m Measurer, text string) image.Point {
	return m.Measure(text).Add(image.Pt(2*XMargin, 2*YMargin))
}

// Place positions a label for every item in order. Each label tries the
// four corners around its box, then steps down from above-left, and as a
// last resort sits above-left even if it overlaps.
func Place(items []Item, canvas image.Point, m Measurer) []Label {
	bounds := image.Rectangle{Max: canvas}
	placed := make([]Label, 0, len(items))
	fits := func(r image.Rectangle) bool {
		bg := r.Inset(-pad)
		if !bg.In(bounds) {
			return false
		}
		for _, p := range placed {
			if bg.Overlaps(p.Rect) {
				return false
			}
		}
		return true
	}
	for _, it := range items {
		sz := Size(m, it.Text)
		b := it.Box
		anchors := [4]image.Point{
			{b.Min.X, b.Min.Y - sz.Y - gap},
			{b.Max.X - sz.X, b.Min.Y - sz.Y - gap},
			{b.Min.X, b.Max.Y + gap},
			{b.Max.X - sz.X, b.Max.Y + gap},
		}
		label := Label{Text: it.Text, Anchor: Forced, Rect: image.Rectangle{Min: anchors[0], Max: anchors[0].Add(sz)}}
		found := false
		for i, a := range anchors {
			r := image.Rectangle{Min: a, Max: a.Add(sz)}
			if fits(r) {
				label.Rect = r
				label.Anchor = Anchor(i)
				found = true
				break
			}
		}
		for step := 1; !found && step <= maxSteps; step++ {
			a := anchors[0].Add(image.Pt(0, step*(sz.Y+gap)))
			r := image.Rectangle{Min: a, Max: a.Add(sz)}
			if fits(r) {
				label.Rect = r
				label.Anchor = Stepped
				found = true
			}
		}
		placed = append(placed, label)
	}
	return placed
}

// PlaceFixed puts each label above its box when there is room for a line of
// lineHeight pixels plus the stroke, otherwise inside the top-left corner.
// Collisions are ignored.
func PlaceFixed(items []Item, m Measurer, lineHeight, stroke int) []Label {
	out := make([]Label, 0, len(items))
	need := lineHeight + 2*YMargin + stroke + 1
	for _, it := range items {
		tl := it.Box.Min.Add(image.Pt(-stroke/2, 0))
		if it.Box.Min.Y > need {
			tl.Y = it.Box.Min.Y - need
		}
		out = append(out, Label{Rect: image.Rectangle{Min: tl, Max: tl.Add(Size(m, it.Text))}, Text: it.Text, Anchor: Fixed})
	}
	return out
}
