package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/crop"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/geom"
)

type cropCmd struct {
	*root
	fs           *flag.FlagSet
	image        string
	labels       string
	rect         geom.Rect
	outputImage  string
	outputLabels string
}

func (c *cropCmd) FlagSet() *flag.FlagSet { return c.fs }

// parseRect reads "x,y,w,h" in normalized image coordinates.
func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("rect %q: %w", s, err)
		}
		if f < 0 || f > 1 {
			return geom.Rect{}, fmt.Errorf("rect %q: %v is outside 0..1", s, f)
		}
		v[i] = f
	}
	return geom.R(v[0], v[1], v[2], v[3]), nil
}

func parseCropCmd(args []string, r *root) (*cropCmd, error) {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	c := &cropCmd{root: r.subcommand("crop"), fs: fs}
	var rect string
	fs.StringVar(&c.image, "image", "", "image to crop")
	fs.StringVar(&c.labels, "labels", "", "label file (default: the label file of the image)")
	fs.StringVar(&rect, "rect", "", "normalized region x,y,w,h")
	fs.StringVar(&c.outputImage, "output-image", "", "where to write the cropped image (default: replace the image)")
	fs.StringVar(&c.outputLabels, "output-labels", "", "where to write the cropped labels (default: replace the label file)")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.image == "" || rect == "" {
		return nil, &UsageError{of: c, msg: "-image and -rect are required"}
	}
	sel, err := parseRect(rect)
	if err != nil {
		return nil, &UsageError{of: c, msg: err.Error()}
	}
	c.rect = sel
	if c.labels == "" {
		c.labels = dataset.LabelPath(c.image)
	}
	if c.outputImage == "" {
		c.outputImage = c.image
	}
	if c.outputLabels == "" {
		c.outputLabels = c.labels
	}
	return c, nil
}

func (c *cropCmd) Run() error {
	img, err := dataset.OpenImage(c.image)
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}
	boxes, err := annotation.LoadFile(c.labels)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("crop %s: %w", c.labels, err)
	}
	res, err := crop.Apply(img, boxes, c.rect)
	if err != nil {
		return fmt.Errorf("crop %s: %w", c.image, err)
	}
	if err := dataset.SaveImage(c.outputImage, res.Image); err != nil {
		return fmt.Errorf("crop %s: %w", c.outputImage, err)
	}
	if err := annotation.SaveFile(c.outputLabels, res.Boxes); err != nil {
		return fmt.Errorf("crop %s: %w", c.outputLabels, err)
	}
	c.notifier.Crop(c.outputImage, res.Image)
	fmt.Printf("%s: %dx%d, %d of %d boxes kept\n", c.outputImage, res.Region.Dx(), res.Region.Dy(), len(res.Boxes), len(boxes))
	return nil
}
