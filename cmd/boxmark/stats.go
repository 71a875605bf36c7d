package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
)

type statsCmd struct {
	*root
	fs      *flag.FlagSet
	classes string
	dir     string
	stdout  io.Writer
}

func (c *statsCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseStatsCmd(args []string, r *root) (*statsCmd, error) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	c := &statsCmd{root: r.subcommand("stats"), fs: fs, stdout: os.Stdout}
	fs.StringVar(&c.classes, "classes", r.config.Classes, "class names file")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.dir = r.config.ImageDir
	if fs.NArg() > 0 {
		c.dir = fs.Arg(0)
	}
	if c.dir == "" {
		return nil, &UsageError{of: c, msg: "no image directory given"}
	}
	return c, nil
}

func (c *statsCmd) Run() error {
	var names []string
	if c.classes != "" {
		var err error
		if names, err = dataset.LoadClassNames(c.classes); err != nil {
			return fmt.Errorf("stats: %w", err)
		}
	}
	paths, err := dataset.ListImages(c.dir)
	if err != nil {
		return fmt.Errorf("stats %s: %w", c.dir, err)
	}
	var all []annotation.Box
	unlabelled := 0
	for _, p := range paths {
		boxes, err := annotation.LoadFile(dataset.LabelPath(p))
		if errors.Is(err, os.ErrNotExist) {
			unlabelled++
		} else if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		all = append(all, boxes...)
		fmt.Fprintf(c.stdout, "%s: %s\n", filepath.Base(p), annotation.StatusLine(boxes, names))
	}
	fmt.Fprintf(c.stdout, "%d images, %d without labels\n", len(paths), unlabelled)
	fmt.Fprintf(c.stdout, "Total %s\n", annotation.StatusLine(all, names))
	return nil
}
