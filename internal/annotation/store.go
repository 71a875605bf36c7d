package annotation

import (
	"fmt"

	"github.com/example/boxmark/internal/geom"
)

// ChangeKind identifies what happened to the store.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Removed
	Replaced
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change describes one mutation. Index is -1 for Replaced.
type Change struct {
	Kind  ChangeKind
	Index int
}

// Store is the ordered box list of one image. It is not safe for
// concurrent use; the UI loop owns it.
type Store struct {
	boxes     []Box
	listeners []func(Change)
}

// NewStore returns a store holding a copy of boxes.
func NewStore(boxes ...Box) *Store {
	s := &Store{}
	s.boxes = append(s.boxes, boxes...)
	return s
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func(Change)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

func (s *Store) emit(c Change) {
	for _, fn := range s.listeners {
		fn(c)
	}
}

// Len returns the number of boxes.
func (s *Store) Len() int { return len(s.boxes) }

// At returns the box at i.
func (s *Store) At(i int) (Box, bool) {
	if i < 0 || i >= len(s.boxes) {
		return Box{}, false
	}
	return s.boxes[i], true
}

// Boxes returns a copy of the boxes in order.
func (s *Store) Boxes() []Box {
	out := make([]Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// Append adds b at the end.
func (s *Store) Append(b Box) {
	s.boxes = append(s.boxes, b)
	s.emit(Change{Kind: Added, Index: len(s.boxes) - 1})
}

// SetRect moves or resizes the box at i.
func (s *Store) SetRect(i int, r geom.Rect) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("set rect %d: %w", i, ErrIndexOutOfRange)
	}
	s.boxes[i].Rect = r
	s.emit(Change{Kind: Updated, Index: i})
	return nil
}

// SetClass changes the class of the box at i.
func (s *Store) SetClass(i, class int) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("set class %d: %w", i, ErrIndexOutOfRange)
	}
	s.boxes[i].ClassID = class
	s.emit(Change{Kind: Updated, Index: i})
	return nil
}

// Remove deletes the box at i.
func (s *Store) Remove(i int) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("remove %d: %w", i, ErrIndexOutOfRange)
	}
	s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
	s.emit(Change{Kind: Removed, Index: i})
	return nil
}

// Replace swaps in a new box list.
func (s *Store) Replace(boxes []Box) {
	s.boxes = append(s.boxes[:0:0], boxes...)
	s.emit(Change{Kind: Replaced, Index: -1})
}

// Clear removes every box.
func (s *Store) Clear() { s.Replace(nil) }

// BoxAt returns the index of the box to delete for a click at p: among the
// boxes containing p, the one with the smallest width+height.
func (s *Store) BoxAt(p geom.Point) int {
	best := -1
	bestSize := 0.0
	for i, b := range s.boxes {
		if !b.Rect.Contains(p) {
			continue
		}
		size := b.Rect.W + b.Rect.H
		if best < 0 || size < bestSize {
			best = i
			bestSize = size
		}
	}
	return best
}

// DeleteAt removes the box chosen by BoxAt. It reports whether one was removed.
func (s *Store) DeleteAt(p geom.Point) bool {
	i := s.BoxAt(p)
	if i < 0 {
		return false
	}
	return s.Remove(i) == nil
}
