package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/session"
	"github.com/example/boxmark/internal/ui"
)

type labelCmd struct {
	*root
	fs        *flag.FlagSet
	classes   string
	autolabel bool
	width     int
	height    int
	detector  detectorFlags

	dir   string
	image string
}

func (c *labelCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseLabelCmd(args []string, r *root) (*labelCmd, error) {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	c := &labelCmd{root: r.subcommand("label"), fs: fs}
	fs.StringVar(&c.classes, "classes", r.config.Classes, "class names file, one name per line")
	fs.BoolVar(&c.autolabel, "autolabel", r.config.Detect.Autolabel, "run the detector for images without labels")
	fs.IntVar(&c.width, "width", 1280, "window width")
	fs.IntVar(&c.height, "height", 800, "window height")
	c.detector.register(fs, r.config.Detect)
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	target := r.config.ImageDir
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}
	if target == "" {
		return nil, &UsageError{of: c, msg: "no image directory given and image_dir is not configured"}
	}
	fi, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("label %s: %w", target, err)
	}
	if fi.IsDir() {
		c.dir = target
	} else {
		if !dataset.IsImage(target) {
			return nil, fmt.Errorf("label %s: not an image", target)
		}
		c.dir = filepath.Dir(target)
		c.image = target
	}
	return c, nil
}

func (c *labelCmd) Run() error {
	ctx := context.Background()
	det, err := c.detector.build(c.root)
	if err != nil {
		return err
	}
	doc := session.NewDocument(
		session.WithLimits(c.limits()),
		session.WithGamma(c.config.View.Gamma),
	)
	ws, err := session.NewWorkspace(ctx, c.dir, doc,
		session.WithDetector(det),
		session.WithClassNames(c.classes),
		session.WithAutolabel(c.autolabel && det != nil),
	)
	if err != nil {
		return fmt.Errorf("label %s: %w", c.dir, err)
	}
	if c.image != "" {
		if err := ws.GotoPath(ctx, c.image); err != nil {
			return fmt.Errorf("label %s: %w", c.image, err)
		}
	}
	ui.New(ws,
		ui.WithRenderOptions(c.renderOptions()),
		ui.WithNotifier(c.notifier),
		ui.WithSize(c.width, c.height),
	).Run()
	return nil
}
