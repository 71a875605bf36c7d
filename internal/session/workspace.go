package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/detect"
)

var errNoDetector = errors.New("detect: no backend configured")

// Workspace walks a directory of images with one open Document.
type Workspace struct {
	Doc *Document

	list      *dataset.List
	detector  detect.Detector
	namesPath string
	autolabel bool

	// OnDetect is called after every detector run.
	OnDetect func(detect.Result, error)
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithDetector sets the backend used for autolabel and explicit runs.
func WithDetector(d detect.Detector) WorkspaceOption {
	return func(w *Workspace) { w.detector = d }
}

// WithClassNames loads the class-names file into the document and passes
// its path to the detector.
func WithClassNames(path string) WorkspaceOption {
	return func(w *Workspace) { w.namesPath = path }
}

// WithAutolabel enables running the detector for images without labels.
func WithAutolabel(on bool) WorkspaceOption {
	return func(w *Workspace) { w.autolabel = on }
}

// NewWorkspace opens dir and its first image.
func NewWorkspace(ctx context.Context, dir string, doc *Document, opts ...WorkspaceOption) (*Workspace, error) {
	list, err := dataset.Open(dir)
	if err != nil {
		return nil, err
	}
	w := &Workspace{Doc: doc, list: list}
	for _, o := range opts {
		o(w)
	}
	if w.namesPath != "" {
		names, err := dataset.LoadClassNames(w.namesPath)
		if err != nil {
			return nil, err
		}
		doc.SetClasses(names)
	}
	if err := w.Goto(ctx, 0); err != nil {
		return nil, err
	}
	return w, nil
}

// List returns the image list.
func (w *Workspace) List() *dataset.List { return w.list }

// Goto opens image i, clamped to the list, after re-reading the directory.
// An image with a missing or empty label file is autolabelled first when a
// detector and class names are configured.
func (w *Workspace) Goto(ctx context.Context, i int) error {
	if err := w.list.Refresh(); err != nil {
		return err
	}
	path, ok := w.list.Seek(i)
	if !ok {
		return dataset.ErrNoImages
	}
	if err := w.Doc.Open(path); err != nil {
		return err
	}
	if w.autolabel && w.detector != nil && w.namesPath != "" && annotation.IsEmptyFile(w.Doc.LabelPath()) {
		if _, err := w.Detect(ctx); err != nil {
			log.Printf("autolabel: %v", err)
		}
	}
	return nil
}

// Next saves the current image and opens the following one.
func (w *Workspace) Next(ctx context.Context) error {
	if err := w.saveOpen(); err != nil {
		return err
	}
	return w.Goto(ctx, w.list.Index()+1)
}

// Prev saves the current image and opens the previous one.
func (w *Workspace) Prev(ctx context.Context) error {
	if err := w.saveOpen(); err != nil {
		return err
	}
	return w.Goto(ctx, w.list.Index()-1)
}

func (w *Workspace) saveOpen() error {
	if w.Doc.Image() == nil {
		return nil
	}
	return w.Doc.Save()
}

// Save writes the current labels and any cropped pixels.
func (w *Workspace) Save() error { return w.Doc.Save() }

// DeleteCurrent removes the current image and its label file from disk and
// opens the image that takes its place.
func (w *Workspace) DeleteCurrent(ctx context.Context) error {
	if err := w.list.RemoveCurrent(); err != nil {
		return err
	}
	if w.list.Len() == 0 {
		w.Doc.Load(nil, nil)
		return dataset.ErrNoImages
	}
	return w.Goto(ctx, w.list.Index())
}

// GotoPath opens the listed image at path.
func (w *Workspace) GotoPath(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.list.Refresh(); err != nil {
		return err
	}
	for i, p := range w.list.Paths() {
		if p == abs {
			return w.Goto(ctx, i)
		}
	}
	return fmt.Errorf("%s is not in %s", path, w.list.Dir)
}

// Detector returns the configured backend, which may be nil.
func (w *Workspace) Detector() detect.Detector { return w.detector }

// Request describes a detector run on the current image.
func (w *Workspace) Request() detect.Request {
	return detect.Request{
		Image:   w.Doc.Path(),
		Labels:  w.Doc.LabelPath(),
		Names:   w.namesPath,
		Classes: w.Doc.Classes(),
	}
}

// Detect runs the detector on the current image, writes its labels and
// reloads them. The in-memory boxes are only replaced after a successful run.
func (w *Workspace) Detect(ctx context.Context) (detect.Result, error) {
	if w.detector == nil {
		return detect.Result{}, errNoDetector
	}
	res, err := detect.Autolabel(ctx, w.detector, w.Request())
	return res, w.Finish(res, err)
}

// Finish completes a run started from Request. It reloads the labels after
// a successful run and reports the outcome to OnDetect.
func (w *Workspace) Finish(res detect.Result, err error) error {
	if err == nil {
		err = w.Doc.ReloadLabels()
	}
	if w.OnDetect != nil {
		w.OnDetect(res, err)
	}
	return err
}
