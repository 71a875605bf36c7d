package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/boxmark/internal/capture"
	"github.com/example/boxmark/internal/clipboard"
	"github.com/example/boxmark/internal/dataset"
)

type snapshotCmd struct {
	*root
	fs            *flag.FlagSet
	dir           string
	monitor       string
	fromClipboard bool
}

func (c *snapshotCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseSnapshotCmd(args []string, r *root) (*snapshotCmd, error) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	c := &snapshotCmd{root: r.subcommand("snapshot"), fs: fs}
	fs.StringVar(&c.dir, "dir", r.config.ImageDir, "image directory to save into")
	fs.StringVar(&c.monitor, "monitor", "", "monitor index, name or \"primary\" (default: whole screen)")
	fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "save the clipboard image instead of capturing the screen")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.dir == "" {
		return nil, &UsageError{of: c, msg: "-dir is required when image_dir is not configured"}
	}
	if c.fromClipboard && c.monitor != "" {
		return nil, &UsageError{of: c, msg: "-monitor cannot be used with -from-clipboard"}
	}
	return c, nil
}

func (c *snapshotCmd) Run() error {
	var (
		path string
		err  error
	)
	if c.fromClipboard {
		path, err = c.saveClipboard()
	} else {
		path, err = capture.Snapshot(c.dir, c.monitor)
	}
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	c.notifier.Save(path)
	fmt.Println(path)
	return nil
}

func (c *snapshotCmd) saveClipboard() (string, error) {
	img, err := clipboard.ReadImage()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(c.dir, capture.SnapshotName(time.Now()))
	if err := dataset.SaveImage(path, img); err != nil {
		return "", err
	}
	return path, nil
}
