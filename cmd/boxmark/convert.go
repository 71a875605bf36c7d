package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/example/boxmark/internal/config"
	"github.com/example/boxmark/internal/detect"
)

type convertModelCmd struct {
	*root
	fs        *flag.FlagSet
	model     string
	python    string
	modelsDir string
}

func (c *convertModelCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConvertModelCmd(args []string, r *root) (*convertModelCmd, error) {
	fs := flag.NewFlagSet("convert-model", flag.ExitOnError)
	c := &convertModelCmd{root: r.subcommand("convert-model"), fs: fs}
	fs.StringVar(&c.model, "model", "", ".pt or .onnx model to import")
	fs.StringVar(&c.python, "python", r.config.Detect.Python, "python interpreter with ultralytics (default: first one found)")
	fs.StringVar(&c.modelsDir, "models-dir", filepath.Join(config.Dir(), "models"), "directory the model is placed in")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.model == "" {
		return nil, &UsageError{of: c, msg: "-model is required"}
	}
	return c, nil
}

func (c *convertModelCmd) Run() error {
	ctx := context.Background()
	python := c.python
	if python == "" {
		python = detect.ResolvePython(ctx, detect.PythonCandidates)
	}
	path, res, err := detect.ImportModel(ctx, python, c.model, c.modelsDir)
	if err != nil {
		if res.Diagnostics != "" {
			return fmt.Errorf("convert-model: %w\n%s", err, res.Diagnostics)
		}
		return fmt.Errorf("convert-model: %w", err)
	}
	fmt.Println(path)
	return nil
}
