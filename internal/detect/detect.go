// Package detect runs the external object detector. It never touches the
// in-memory boxes; callers merge or reload what it produces.
package detect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/geom"
)

var (
	// ErrNotStarted is returned when the detector process could not start in time.
	ErrNotStarted = errors.New("detector did not start")
	// ErrTimeout is returned when the detector did not finish in time.
	ErrTimeout = errors.New("detector timed out")
)

// Detection is one detected object in normalized corner form.
type Detection struct {
	ClassID    int       `json:"class_id"`
	Confidence float64   `json:"confidence"`
	Rect       geom.Rect `json:"rect"`
}

// Request names the files of one detection run.
type Request struct {
	Image string
	// Labels is where a detector that writes files puts its output.
	Labels string
	// Names is the class-names file.
	Names string
	// Classes are the loaded class names, for backends that prompt with them.
	Classes []string
}

// Result is the pass/fail outcome of a run plus whatever diagnostics the
// backend produced.
type Result struct {
	OK          bool
	Diagnostics string
	Detections  []Detection
}

// Detector is a detection backend.
type Detector interface {
	Detect(ctx context.Context, req Request) (Result, error)
}

// fileWriter is implemented by backends that write the label file themselves.
type fileWriter interface {
	WritesLabels() bool
}

// ToBoxes converts detections into boxes with bounded rects.
func ToBoxes(dets []Detection) []annotation.Box {
	out := make([]annotation.Box, 0, len(dets))
	for _, d := range dets {
		r := d.Rect.Canon().Bound()
		if r.W <= 0 || r.H <= 0 {
			continue
		}
		out = append(out, annotation.Box{ClassID: d.ClassID, Rect: r, Confidence: d.Confidence})
	}
	return out
}

// WriteLabels writes detections to labelPath and their confidences to the
// side file read on the next open.
func WriteLabels(labelPath string, dets []Detection) error {
	boxes := ToBoxes(dets)
	if err := annotation.SaveFile(labelPath, boxes); err != nil {
		return err
	}
	confs := make([]map[string]float64, len(boxes))
	for i, b := range boxes {
		confs[i] = map[string]float64{"conf": b.Confidence}
	}
	data, err := json.Marshal(map[string]any{"detections": confs})
	if err != nil {
		return fmt.Errorf("encode confidences: %w", err)
	}
	if err := os.WriteFile(dataset.ConfidencePath(labelPath), data, 0o644); err != nil {
		return fmt.Errorf("write confidences: %w", err)
	}
	return nil
}

// Autolabel runs d for req and makes sure req.Labels holds the result.
func Autolabel(ctx context.Context, d Detector, req Request) (Result, error) {
	res, err := d.Detect(ctx, req)
	if err != nil {
		return res, err
	}
	if w, ok := d.(fileWriter); ok && w.WritesLabels() {
		return res, nil
	}
	if !res.OK {
		return res, nil
	}
	if err := WriteLabels(req.Labels, res.Detections); err != nil {
		return res, err
	}
	return res, nil
}
