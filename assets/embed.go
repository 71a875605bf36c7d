package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

// Embedded default themes for boxmark.
//
//go:embed themes/*.theme
var embeddedThemes embed.FS

// ThemeFS exposes the embedded theme files under "themes/".
func ThemeFS() fs.FS { return embeddedThemes }

// ThemeNames lists the embedded themes without their extension.
func ThemeNames() []string {
	entries, err := fs.ReadDir(embeddedThemes, "themes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".theme"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
