package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/boxmark/internal/geom"
)

// line is one parsed label line. confidence is only set when the optional
// sixth field was present and numeric.
type line struct {
	class      int
	cx, cy     float64
	w, h       float64
	confidence *float64
}

func (l line) box() Box {
	b := NewBox(l.class, geom.FromCenter(l.cx, l.cy, l.w, l.h))
	if l.confidence != nil {
		b.Confidence = *l.confidence
	}
	return b
}

// parseLine reads "class cx cy w h [confidence]". It fails when any of the
// first five fields is missing or not a number.
func parseLine(s string) (line, bool) {
	fields := strings.Fields(s)
	if len(fields) < 5 {
		return line{}, false
	}
	var nums [5]float64
	for i := range nums {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || !finite(v) {
			return line{}, false
		}
		nums[i] = v
	}
	l := line{class: int(nums[0]), cx: nums[1], cy: nums[2], w: nums[3], h: nums[4]}
	if len(fields) > 5 {
		if v, err := strconv.ParseFloat(fields[5], 64); err == nil && finite(v) {
			l.confidence = &v
		}
	}
	return l, true
}

// Parse reads boxes from r. Malformed lines, including those with non-finite
// numbers, are skipped; a line of any length never stops the read.
func Parse(r io.Reader) ([]Box, error) {
	var boxes []Box
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if text := strings.TrimSpace(raw); text != "" {
			if l, ok := parseLine(text); ok {
				boxes = append(boxes, l.box())
			}
		}
		if errors.Is(err, io.EOF) {
			return boxes, nil
		}
		if err != nil {
			return boxes, err
		}
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Write emits one line per box. Rects are bounded to the unit square first;
// the confidence column is only written when it differs from the default.
func Write(w io.Writer, boxes []Box) error {
	bw := bufio.NewWriter(w)
	for _, b := range boxes {
		cx, cy, bwid, bh := b.Rect.Bound().ToCenter()
		if _, err := fmt.Fprintf(bw, "%d %.6f %.6f %.6f %.6f", b.ClassID, cx, cy, bwid, bh); err != nil {
			return err
		}
		if b.Confidence != DefaultConfidence {
			if _, err := fmt.Fprintf(bw, " %.6f", b.Confidence); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadFile reads the label file at path. A missing file yields no boxes
// and an error matching fs.ErrNotExist.
func LoadFile(path string) ([]Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	boxes, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read labels %s: %w", path, err)
	}
	return boxes, nil
}

// SaveFile writes boxes to path, creating the parent directory.
func SaveFile(path string, boxes []Box) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create label dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create label file %s: %w", path, err)
	}
	if err := Write(f, boxes); err != nil {
		_ = f.Close()
		return fmt.Errorf("write labels %s: %w", path, err)
	}
	return f.Close()
}

// IsEmptyFile reports whether path is missing or has zero length.
func IsEmptyFile(path string) bool {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	return err == nil && fi.Mode().IsRegular() && fi.Size() == 0
}
