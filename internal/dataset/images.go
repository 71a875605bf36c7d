// Package dataset locates images and their label files on disk and reads the
// small companion files that travel with them.
package dataset

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNoImages is returned when a directory holds no supported images.
var ErrNoImages = errors.New("no images found")

var extensions = map[string]bool{
	".jpg":  true,
	".JPG":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return extensions[filepath.Ext(name)]
}

// ListImages returns the absolute paths of supported images directly in dir,
// in natural order.
func ListImages(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(abs, n)
	}
	return out, nil
}

// NaturalLess compares strings so that digit runs order by numeric value:
// "img2" sorts before "img10". Letters compare case-insensitively first.
func NaturalLess(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[si:i]), "0")
			nb := strings.TrimLeft(string(br[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		ca, cb := unicode.ToLower(ar[i]), unicode.ToLower(br[j])
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	if len(ar)-i != len(br)-j {
		return len(ar)-i < len(br)-j
	}
	return a < b
}

var imagesWord = regexp.MustCompile(`(?i)images`)

// LabelPath returns the label file of an image: a sibling directory named
// like the image's directory with "images" replaced by "labels", holding
// stem.txt. A directory name without "images" keeps labels beside images.
func LabelPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	labelsDir := filepath.Join(filepath.Dir(dir), imagesWord.ReplaceAllString(filepath.Base(dir), "labels"))
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(labelsDir, stem+".txt")
}

// OpenImage decodes the image at path, honouring EXIF orientation.
func OpenImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img to path in the format implied by its extension.
// WebP has no encoder here, so .webp files are rewritten as PNG data.
func SaveImage(path string, img image.Image) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		if err := imaging.Encode(f, img, imaging.PNG); err != nil {
			f.Close()
			return fmt.Errorf("save image: %w", err)
		}
		return f.Close()
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
