// Package annotation holds the ordered box list of the current image and
// reads and writes it in the center-based label file format.
package annotation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/boxmark/internal/geom"
)

// DefaultConfidence is the confidence of a box with none recorded.
const DefaultConfidence = 1.0

// ErrIndexOutOfRange is returned when a box index does not exist.
var ErrIndexOutOfRange = errors.New("box index out of range")

// Box is one labelled rectangle in normalized corner-based coordinates.
type Box struct {
	ClassID    int       `json:"class_id"`
	Rect       geom.Rect `json:"rect"`
	Confidence float64   `json:"confidence"`
}

// NewBox returns a box with the default confidence.
func NewBox(class int, r geom.Rect) Box {
	return Box{ClassID: class, Rect: r, Confidence: DefaultConfidence}
}

// ClassName returns names[id], or "Class id" when id is not in names.
func ClassName(names []string, id int) string {
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return fmt.Sprintf("Class %d", id)
}

// ClassCount is the number of boxes with one class id.
type ClassCount struct {
	ClassID int
	Count   int
}

// CountByClass returns the per-class totals of boxes, ordered by class id.
func CountByClass(boxes []Box) []ClassCount {
	counts := map[int]int{}
	for _, b := range boxes {
		counts[b.ClassID]++
	}
	out := make([]ClassCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, ClassCount{ClassID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassID < out[j].ClassID })
	return out
}

// StatusLine summarises boxes as "Boxes: N | name (i): count | ...".
func StatusLine(boxes []Box, names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Boxes: %d", len(boxes))
	for _, c := range CountByClass(boxes) {
		fmt.Fprintf(&sb, " | %s (%d): %d", ClassName(names, c.ClassID), c.ClassID, c.Count)
	}
	return sb.String()
}
