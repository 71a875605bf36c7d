package dataset

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// List is the ordered set of images in one directory plus the current
// position within it.
type List struct {
	Dir   string
	paths []string
	index int
}

// Open lists dir. It fails with ErrNoImages when dir holds none.
func Open(dir string) (*List, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoImages)
	}
	return &List{Dir: dir, paths: paths}, nil
}

// Len returns the number of images.
func (l *List) Len() int { return len(l.paths) }

// Index returns the current position, -1 when the list is empty.
func (l *List) Index() int {
	if len(l.paths) == 0 {
		return -1
	}
	return l.index
}

// Paths returns a copy of the image paths.
func (l *List) Paths() []string { return slices.Clone(l.paths) }

// Current returns the selected image path.
func (l *List) Current() (string, bool) {
	if len(l.paths) == 0 {
		return "", false
	}
	return l.paths[l.index], true
}

// Seek moves to i clamped to the list and returns the path there.
func (l *List) Seek(i int) (string, bool) {
	if len(l.paths) == 0 {
		return "", false
	}
	l.index = max(0, min(i, len(l.paths)-1))
	return l.paths[l.index], true
}

// Refresh re-reads the directory. The current image stays selected when it
// still exists; otherwise the index is clamped.
func (l *List) Refresh() error {
	paths, err := ListImages(l.Dir)
	if err != nil {
		return err
	}
	cur, ok := l.Current()
	l.paths = paths
	if ok {
		if i := slices.Index(paths, cur); i >= 0 {
			l.index = i
			return nil
		}
	}
	l.index = max(0, min(l.index, len(paths)-1))
	return nil
}

// RemoveCurrent deletes the selected image and its label file from disk and
// drops it from the list. The selection moves to the following image, or to
// the new last one. When the image cannot be removed the list and the label
// file are left untouched. It fails with ErrNoImages when the list is empty.
func (l *List) RemoveCurrent() error {
	cur, ok := l.Current()
	if !ok {
		return ErrNoImages
	}
	if err := os.Remove(cur); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", cur, err)
	}
	l.paths = slices.Delete(l.paths, l.index, l.index+1)
	if l.index >= len(l.paths) {
		l.index = max(0, len(l.paths)-1)
	}
	if err := os.Remove(LabelPath(cur)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", LabelPath(cur), err)
	}
	return nil
}
