package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/detect"
)

type detectCmd struct {
	*root
	fs       *flag.FlagSet
	image    string
	classes  string
	write    bool
	detector detectorFlags

	// det overrides the backend built from the flags.
	det    detect.Detector
	stdout io.Writer
}

func (c *detectCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseDetectCmd(args []string, r *root) (*detectCmd, error) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	c := &detectCmd{root: r.subcommand("detect"), fs: fs, stdout: os.Stdout}
	fs.StringVar(&c.image, "image", "", "image to run the detector on")
	fs.StringVar(&c.classes, "classes", r.config.Classes, "class names file")
	fs.BoolVar(&c.write, "write", false, "replace the label file of the image")
	c.detector.register(fs, r.config.Detect)
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.image == "" {
		return nil, &UsageError{of: c, msg: "-image is required"}
	}
	return c, nil
}

func (c *detectCmd) Run() error {
	det := c.det
	if det == nil {
		var err error
		if det, err = c.detector.build(c.root); err != nil {
			return err
		}
	}
	if det == nil {
		return errors.New("detect: no backend configured, set -backend and -script or [detect] in the configuration")
	}
	var names []string
	if c.classes != "" {
		var err error
		if names, err = dataset.LoadClassNames(c.classes); err != nil {
			return fmt.Errorf("detect: %w", err)
		}
	}

	labels := dataset.LabelPath(c.image)
	if !c.write {
		tmp, err := os.MkdirTemp("", "boxmark-detect-")
		if err != nil {
			return fmt.Errorf("detect: %w", err)
		}
		defer os.RemoveAll(tmp)
		labels = filepath.Join(tmp, "labels.txt")
	}

	req := detect.Request{Image: c.image, Labels: labels, Names: c.classes, Classes: names}
	res, err := detect.Autolabel(context.Background(), det, req)
	if err == nil && !res.OK {
		err = fmt.Errorf("detector failed: %s", res.Diagnostics)
	}
	if err != nil {
		c.notifier.Detect(c.image, 0, err)
		return fmt.Errorf("detect %s: %w", c.image, err)
	}

	boxes, err := annotation.LoadFile(labels)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("detect %s: %w", labels, err)
	}
	confs := dataset.ReadConfidences(labels)
	for i, b := range boxes {
		conf := b.Confidence
		if i < len(confs) {
			conf = confs[i]
		}
		cx, cy, w, h := b.Rect.ToCenter()
		fmt.Fprintf(c.stdout, "%s (%d) %.2f at %.4f %.4f %.4f %.4f\n",
			annotation.ClassName(names, b.ClassID), b.ClassID, conf, cx, cy, w, h)
	}
	if c.write {
		fmt.Fprintf(c.stdout, "wrote %d boxes to %s\n", len(boxes), labels)
	}
	c.notifier.Detect(c.image, len(boxes), nil)
	return nil
}
