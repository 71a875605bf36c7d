package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/example/boxmark/assets"
	"github.com/example/boxmark/internal/config"
	"github.com/example/boxmark/internal/detect"
	"github.com/example/boxmark/internal/notify"
	"github.com/example/boxmark/internal/render"
	"github.com/example/boxmark/internal/theme"
	"github.com/example/boxmark/internal/view"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	alerts      map[notify.Event]*bool
	themeName   string
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:     program,
		notifier:    r.notifier,
		config:      r.config,
		alerts:      r.alerts,
		themeName:   r.themeName,
		activeTheme: r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, fixed, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	for _, msg := range fixed {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	r := &root{
		fs:       flag.NewFlagSet("boxmark", flag.ExitOnError),
		program:  "boxmark",
		notifier: notify.New(notify.LoadPreferences()),
		config:   cfg,
		alerts:   map[notify.Event]*bool{},
	}
	defaults := map[notify.Event]bool{
		notify.EventSave:   cfg.Notify.Save,
		notify.EventCrop:   cfg.Notify.Crop,
		notify.EventDetect: cfg.Notify.Detect,
		notify.EventCopy:   cfg.Notify.Copy,
	}
	for _, ev := range notify.Events {
		r.alerts[ev] = r.fs.Bool("notify-"+string(ev), defaults[ev], fmt.Sprintf("show a desktop notification on %s", ev))
	}

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme: a name ("+strings.Join(assets.ThemeNames(), ", ")+") or a file path")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	for ev, on := range r.alerts {
		r.notifier.Enable(ev, *on)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "label":
		cmd, err = parseLabelCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "crop":
		cmd, err = parseCropCmd(subArgs, r)
	case "detect":
		cmd, err = parseDetectCmd(subArgs, r)
	case "stats":
		cmd, err = parseStatsCmd(subArgs, r)
	case "snapshot":
		cmd, err = parseSnapshotCmd(subArgs, r)
	case "convert-model":
		cmd, err = parseConvertModelCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) loadTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("BOXMARK_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	loader := theme.NewLoader()
	loader.Custom = r.config.Themes
	t, err := loader.Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		return theme.Default()
	}
	return t
}

// renderOptions builds the frame settings from the configuration.
func (r *root) renderOptions() render.Options {
	o := render.DefaultOptions()
	if r.activeTheme != nil {
		o.Theme = r.activeTheme
	}
	if r.config != nil {
		o.Hints = r.config.Overlap.Hints
		o.Threshold = r.config.Overlap.Threshold
		o.AvoidLabelOverlap = r.config.Overlap.AvoidLabelOverlap
		o.FontSize = r.config.Labels.FontSize
		o.ShowConfidence = r.config.Labels.ShowConfidence
	}
	return o
}

func (r *root) limits() view.Limits {
	if r.config == nil {
		return view.DefaultLimits()
	}
	return view.Limits{MinZoom: r.config.View.MinZoom, MaxZoom: r.config.View.MaxZoom}
}

// detectorFlags are shared by every command that can run the detector.
type detectorFlags struct {
	backend string
	python  string
	script  string
	model   string
}

func (d *detectorFlags) register(fs *flag.FlagSet, cfg config.Detect) {
	fs.StringVar(&d.backend, "backend", cfg.Backend, "detector backend: "+strings.Join(config.Backends, ", "))
	fs.StringVar(&d.python, "python", cfg.Python, "python interpreter for the script backend (default: first one found)")
	fs.StringVar(&d.script, "script", cfg.Script, "autolabel script")
	fs.StringVar(&d.model, "model", cfg.Model, "model passed to the script")
}

// build returns the configured backend, or nil when detection is off or
// nothing is configured.
func (d *detectorFlags) build(r *root) (detect.Detector, error) {
	cfg := config.New().Detect
	if r != nil && r.config != nil {
		cfg = r.config.Detect
	}
	switch d.backend {
	case "none":
		return nil, nil
	case "ollama":
		if cfg.OllamaModel == "" {
			return nil, errors.New("ollama backend needs ollama_model in [detect]")
		}
		return detect.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	case "script", "":
		if d.script == "" {
			return nil, nil
		}
		python := d.python
		if python == "" {
			python = detect.ResolvePython(context.Background(), detect.PythonCandidates)
		}
		return &detect.Script{
			Python:        python,
			Path:          d.script,
			Model:         d.model,
			StartTimeout:  cfg.StartTimeout,
			FinishTimeout: cfg.FinishTimeout,
		}, nil
	}
	return nil, fmt.Errorf("unknown detector backend %q", d.backend)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("boxmark: ")
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
