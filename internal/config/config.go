package config

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/boxmark/internal/detect"
	"github.com/example/boxmark/internal/theme"
)

// View holds zoom and display settings.
type View struct {
	MinZoom float64
	MaxZoom float64
	Gamma   float64
}

// Overlap holds duplicate-box hint settings.
type Overlap struct {
	Threshold         float64
	Hints             bool
	AvoidLabelOverlap bool
}

// Labels holds label callout settings.
type Labels struct {
	FontSize       float64
	ShowConfidence bool
}

// Detect selects and configures the detector backend.
type Detect struct {
	Backend       string // script, ollama or none
	Python        string
	Script        string
	Model         string
	OllamaURL     string
	OllamaModel   string
	StartTimeout  time.Duration
	FinishTimeout time.Duration
	Autolabel     bool
}

// Notify holds notification settings.
type Notify struct {
	Save   bool
	Crop   bool
	Detect bool
	Copy   bool
}

// Config holds the application configuration.
type Config struct {
	Theme    string
	Classes  string
	ImageDir string
	View     View
	Overlap  Overlap
	Labels   Labels
	Detect   Detect
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// Backends names the accepted detect backends.
var Backends = []string{"script", "ollama", "none"}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		View:    View{MinZoom: 0.1, MaxZoom: 10, Gamma: 1},
		Overlap: Overlap{Threshold: 0.9, Hints: true, AvoidLabelOverlap: true},
		Labels:  Labels{FontSize: 16, ShowConfidence: true},
		Detect: Detect{
			Backend:       "script",
			OllamaURL:     detect.DefaultOllamaURL,
			StartTimeout:  detect.DefaultStartTimeout,
			FinishTimeout: detect.DefaultFinishTimeout,
			Autolabel:     true,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// Validate resets out of range values to their defaults and returns one
// message per value it replaced.
func (c *Config) Validate() []string {
	def := New()
	var fixed []string
	reset := func(name string, bad bool, apply func()) {
		if bad {
			apply()
			fixed = append(fixed, name)
		}
	}
	reset("view.min_zoom", !(c.View.MinZoom > 0), func() { c.View.MinZoom = def.View.MinZoom })
	reset("view.max_zoom", !(c.View.MaxZoom >= c.View.MinZoom), func() { c.View.MaxZoom = max(def.View.MaxZoom, c.View.MinZoom) })
	reset("view.gamma", !(c.View.Gamma > 0), func() { c.View.Gamma = def.View.Gamma })
	reset("overlap.threshold", !(c.Overlap.Threshold > 0 && c.Overlap.Threshold <= 1), func() { c.Overlap.Threshold = def.Overlap.Threshold })
	reset("labels.font_size", !(c.Labels.FontSize > 0), func() { c.Labels.FontSize = def.Labels.FontSize })
	reset("detect.backend", !slices.Contains(Backends, c.Detect.Backend), func() { c.Detect.Backend = def.Detect.Backend })
	reset("detect.start_timeout", c.Detect.StartTimeout <= 0, func() { c.Detect.StartTimeout = def.Detect.StartTimeout })
	reset("detect.finish_timeout", c.Detect.FinishTimeout <= 0, func() { c.Detect.FinishTimeout = def.Detect.FinishTimeout })
	for i, name := range fixed {
		fixed[i] = fmt.Sprintf("invalid %s, using default", name)
	}
	return fixed
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.Classes != "" {
		fmt.Fprintf(&sb, "classes = %s\n", c.Classes)
	}
	if c.ImageDir != "" {
		fmt.Fprintf(&sb, "image_dir = %s\n", c.ImageDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[view]\n")
	fmt.Fprintf(&sb, "min_zoom = %s\n", formatFloat(c.View.MinZoom))
	fmt.Fprintf(&sb, "max_zoom = %s\n", formatFloat(c.View.MaxZoom))
	fmt.Fprintf(&sb, "gamma = %s\n", formatFloat(c.View.Gamma))
	sb.WriteString("\n")

	sb.WriteString("[overlap]\n")
	fmt.Fprintf(&sb, "threshold = %s\n", formatFloat(c.Overlap.Threshold))
	fmt.Fprintf(&sb, "hints = %v\n", c.Overlap.Hints)
	fmt.Fprintf(&sb, "avoid_label_overlap = %v\n", c.Overlap.AvoidLabelOverlap)
	sb.WriteString("\n")

	sb.WriteString("[labels]\n")
	fmt.Fprintf(&sb, "font_size = %s\n", formatFloat(c.Labels.FontSize))
	fmt.Fprintf(&sb, "show_confidence = %v\n", c.Labels.ShowConfidence)
	sb.WriteString("\n")

	d := c.Detect
	sb.WriteString("[detect]\n")
	fmt.Fprintf(&sb, "backend = %s\n", d.Backend)
	for _, kv := range [][2]string{
		{"python", d.Python},
		{"script", d.Script},
		{"model", d.Model},
		{"ollama_url", d.OllamaURL},
		{"ollama_model", d.OllamaModel},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	fmt.Fprintf(&sb, "start_timeout = %s\n", d.StartTimeout)
	fmt.Fprintf(&sb, "finish_timeout = %s\n", d.FinishTimeout)
	fmt.Fprintf(&sb, "autolabel = %v\n", d.Autolabel)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "crop = %v\n", c.Notify.Crop)
	fmt.Fprintf(&sb, "detect = %v\n", c.Notify.Detect)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		// strings.Builder never fails
		_ = theme.Encode(&sb, c.Themes[name], ": ")
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
