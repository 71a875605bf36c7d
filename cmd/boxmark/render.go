package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/render"
	"github.com/example/boxmark/internal/session"
)

type renderCmd struct {
	*root
	fs      *flag.FlagSet
	image   string
	labels  string
	classes string
	output  string
	width   int
	height  int
	zoom    float64
	hints   bool
	status  bool
}

func (c *renderCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r.subcommand("render"), fs: fs}
	fs.StringVar(&c.image, "image", "", "image to draw")
	fs.StringVar(&c.labels, "labels", "", "label file (default: the label file of the image)")
	fs.StringVar(&c.classes, "classes", r.config.Classes, "class names file")
	fs.StringVar(&c.output, "output", "", "file to write, format from the extension")
	fs.IntVar(&c.width, "width", 0, "canvas width (default: image width)")
	fs.IntVar(&c.height, "height", 0, "canvas height (default: image height)")
	fs.Float64Var(&c.zoom, "zoom", 1, "zoom factor around the image centre")
	fs.BoolVar(&c.hints, "hints", r.config.Overlap.Hints, "mark near-duplicate boxes")
	fs.BoolVar(&c.status, "status", true, "draw the status bar")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.image == "" || c.output == "" {
		return nil, &UsageError{of: c, msg: "-image and -output are required"}
	}
	if c.width < 0 || c.height < 0 {
		return nil, &UsageError{of: c, msg: "-width and -height must not be negative"}
	}
	return c, nil
}

// openDocument loads image with its boxes from labels, or from the image's
// own label file when labels is empty.
func openDocument(r *root, imagePath, labels, classes string) (*session.Document, error) {
	doc := session.NewDocument(session.WithLimits(r.limits()))
	if classes != "" {
		names, err := dataset.LoadClassNames(classes)
		if err != nil {
			return nil, err
		}
		doc.SetClasses(names)
	}
	if err := doc.Open(imagePath); err != nil {
		return nil, err
	}
	if labels != "" {
		boxes, err := annotation.LoadFile(labels)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		doc.Boxes().Replace(boxes)
	}
	return doc, nil
}

func (c *renderCmd) Run() error {
	doc, err := openDocument(c.root, c.image, c.labels, c.classes)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.image, err)
	}
	canvas := doc.Size()
	if c.width > 0 {
		canvas.X = c.width
	}
	if c.height > 0 {
		canvas.Y = c.height
	}
	v := doc.View()
	v.Zoom = c.zoom
	v.SetLimits(v.Limits())

	opts := c.renderOptions()
	opts.Hints = c.hints
	opts.Status = c.status
	opts.Crosshair = false

	dst := image.NewRGBA(image.Rect(0, 0, canvas.X, canvas.Y))
	res, err := render.Draw(context.Background(), dst, render.SceneOf(doc, canvas), opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.image, err)
	}
	if err := dataset.SaveImage(c.output, dst); err != nil {
		return fmt.Errorf("render %s: %w", c.output, err)
	}
	flagged := 0
	for i := 0; i < doc.Boxes().Len(); i++ {
		if res.Overlap.Flagged(i) {
			flagged++
		}
	}
	fmt.Printf("%s: %d boxes, %d flagged\n", c.output, doc.Boxes().Len(), flagged)
	return nil
}
