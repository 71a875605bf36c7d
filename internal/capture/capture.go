// Package capture grabs the desktop into a new dataset image.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/example/boxmark/internal/dataset"
)

type grabber interface {
	Monitors() ([]Monitor, error)
	Screen() (*image.RGBA, error)
}

var backend grabber = newBackend()

var (
	errNoMonitors  = errors.New("no monitors available")
	errUnsupported = errors.New("screen capture is not supported on this platform")
)

// Monitor is one output in the desktop layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// Monitors lists the connected outputs.
func Monitors() ([]Monitor, error) {
	return backend.Monitors()
}

// FindMonitor resolves a selector: an index (optionally prefixed with #),
// "primary", or part of an output name. An empty selector picks the first.
func FindMonitor(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	if sel == "" {
		return monitors[0], nil
	}
	if sel == "primary" {
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, m := range monitors {
		if strings.Contains(strings.ToLower(m.Name), sel) {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

// Grab captures the whole screen, or a single monitor when selector is set.
func Grab(selector string) (image.Image, error) {
	img, err := backend.Screen()
	if err != nil {
		return nil, err
	}
	if selector == "" {
		return img, nil
	}
	monitors, err := backend.Monitors()
	if err != nil {
		return nil, err
	}
	mon, err := FindMonitor(monitors, selector)
	if err != nil {
		return nil, err
	}
	region := mon.Rect.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("monitor %q is outside the screen", mon.Name)
	}
	return imaging.Crop(img, region), nil
}

// SnapshotName is the file name used for a grab taken at t.
func SnapshotName(t time.Time) string {
	return fmt.Sprintf("snapshot-%d.png", t.Unix())
}

// Snapshot grabs the screen into dir and returns the written path.
func Snapshot(dir, selector string) (string, error) {
	img, err := Grab(selector)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SnapshotName(time.Now()))
	if err := dataset.SaveImage(path, img); err != nil {
		return "", err
	}
	return path, nil
}
