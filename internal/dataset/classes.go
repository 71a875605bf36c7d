package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadClassNames reads one class name per line. Trailing carriage returns
// and trailing blank lines are dropped; blank lines in the middle keep their
// index so class ids stay aligned with the file.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("class names: %w", err)
	}
	defer f.Close()
	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		names = append(names, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("class names: %w", err)
	}
	for len(names) > 0 && strings.TrimSpace(names[len(names)-1]) == "" {
		names = names[:len(names)-1]
	}
	return names, nil
}

// FilterClasses returns the indices of names containing query,
// case-insensitively. An empty query matches everything.
func FilterClasses(names []string, query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []int
	for i, n := range names {
		if q == "" || strings.Contains(strings.ToLower(n), q) {
			out = append(out, i)
		}
	}
	return out
}
