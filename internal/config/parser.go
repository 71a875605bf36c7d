package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/boxmark/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentSection = strings.ToLower(raw)
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := raw[len("theme."):]
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "view":
			err = setViewField(&cfg.View, key, value)
		case currentSection == "overlap":
			err = setOverlapField(&cfg.Overlap, key, value)
		case currentSection == "labels":
			err = setLabelsField(&cfg.Labels, key, value)
		case currentSection == "detect":
			err = setDetectField(&cfg.Detect, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "classes":
		cfg.Classes = value
	case "image_dir":
		cfg.ImageDir = value
	}
	return nil
}

func setViewField(v *View, key, value string) error {
	switch strings.ToLower(key) {
	case "min_zoom":
		return parseFloat(key, value, &v.MinZoom)
	case "max_zoom":
		return parseFloat(key, value, &v.MaxZoom)
	case "gamma":
		return parseFloat(key, value, &v.Gamma)
	}
	return nil
}

func setOverlapField(o *Overlap, key, value string) error {
	switch strings.ToLower(key) {
	case "threshold":
		return parseFloat(key, value, &o.Threshold)
	case "hints":
		return parseBool(key, value, &o.Hints)
	case "avoid_label_overlap":
		return parseBool(key, value, &o.AvoidLabelOverlap)
	}
	return nil
}

func setLabelsField(l *Labels, key, value string) error {
	switch strings.ToLower(key) {
	case "font_size":
		return parseFloat(key, value, &l.FontSize)
	case "show_confidence":
		return parseBool(key, value, &l.ShowConfidence)
	}
	return nil
}

func setDetectField(d *Detect, key, value string) error {
	switch strings.ToLower(key) {
	case "backend":
		d.Backend = strings.ToLower(value)
	case "python":
		d.Python = value
	case "script":
		d.Script = value
	case "model":
		d.Model = value
	case "ollama_url":
		d.OllamaURL = value
	case "ollama_model":
		d.OllamaModel = value
	case "start_timeout":
		return parseDuration(key, value, &d.StartTimeout)
	case "finish_timeout":
		return parseDuration(key, value, &d.FinishTimeout)
	case "autolabel":
		return parseBool(key, value, &d.Autolabel)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	switch strings.ToLower(key) {
	case "save":
		return parseBool(key, value, &n.Save)
	case "crop":
		return parseBool(key, value, &n.Crop)
	case "detect":
		return parseBool(key, value, &n.Detect)
	case "copy":
		return parseBool(key, value, &n.Copy)
	}
	return nil
}

func parseBool(key, value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	*dst = b
	return nil
}

func parseFloat(key, value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	*dst = f
	return nil
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(key, value string, dst *time.Duration) error {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for key %s: %w", key, err)
	}
	*dst = d
	return nil
}
