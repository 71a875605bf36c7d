package dataset

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNaturalLess(t *testing.T) {
	names := []string{"img10.jpg", "img2.jpg", "IMG1.png", "img02b.jpg", "a.jpg", "img2.JPG"}
	slices.SortStableFunc(names, func(a, b string) int {
		if NaturalLess(a, b) {
			return -1
		}
		if NaturalLess(b, a) {
			return 1
		}
		return 0
	})
	want := []string{"a.jpg", "IMG1.png", "img2.JPG", "img2.jpg", "img02b.jpg", "img10.jpg"}
	if !slices.Equal(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}
}

func TestListImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b10.png", "b9.jpg", "notes.txt", "c.bmp", "d.JPG", "e.gif"} {
		touch(t, filepath.Join(dir, n))
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
		names = append(names, filepath.Base(p))
	}
	want := []string{"b9.jpg", "b10.png", "c.bmp", "d.JPG"}
	if !slices.Equal(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestLabelPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/data/cats/images/001.jpg", "/data/cats/labels/001.txt"},
		{"/data/cats/Images_val/a.b.png", "/data/cats/labels_val/a.b.txt"},
		{"/data/cats/pics/x.jpg", "/data/cats/pics/x.txt"},
	}
	for _, c := range cases {
		if got := LabelPath(c.in); got != c.want {
			t.Errorf("LabelPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obj.names")
	if err := os.WriteFile(path, []byte("cat\r\ndog\n\nbird\n\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadClassNames(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"cat", "dog", "", "bird"}
	if !slices.Equal(got, want) {
		t.Fatalf("names = %q, want %q", got, want)
	}
	if idx := FilterClasses(got, "D"); !slices.Equal(idx, []int{1, 3}) {
		t.Errorf("filter = %v", idx)
	}
	if idx := FilterClasses(got, ""); len(idx) != 4 {
		t.Errorf("empty filter = %v", idx)
	}
}

func TestParseConfidences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []float64
	}{
		{"numbers", `[0.5, 0.25]`, []float64{0.5, 0.25}},
		{"objects", `[{"conf": 0.9}, {"confidence": 0.8}, {"other": 1}]`, []float64{0.9, 0.8}},
		{"confs", `{"confs": [0.1]}`, []float64{0.1}},
		{"detections", `{"detections": [{"conf": 0.7}]}`, []float64{0.7}},
		{"unknown", `{"x": 1}`, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseConfidences([]byte(c.in))
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestReadConfidencesConsumesFile(t *testing.T) {
	label := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(ConfidencePath(label), []byte(`[0.42]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ReadConfidences(label); !slices.Equal(got, []float64{0.42}) {
		t.Fatalf("first read = %v", got)
	}
	if _, err := os.Stat(ConfidencePath(label)); !os.IsNotExist(err) {
		t.Fatalf("confidence file still present: %v", err)
	}
	if got := ReadConfidences(label); got != nil {
		t.Fatalf("second read = %v", got)
	}

	if err := os.WriteFile(ConfidencePath(label), []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ReadConfidences(label); got != nil {
		t.Fatalf("malformed read = %v", got)
	}
	if _, err := os.Stat(ConfidencePath(label)); !os.IsNotExist(err) {
		t.Fatal("malformed confidence file not removed")
	}
}

func TestListNavigation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	for _, n := range []string{"1.jpg", "2.jpg", "3.jpg"} {
		touch(t, filepath.Join(dir, n))
	}
	touch(t, filepath.Join(root, "labels", "2.txt"))

	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := l.Seek(99); filepath.Base(p) != "3.jpg" {
		t.Fatalf("seek clamp = %q", p)
	}
	l.Seek(1)
	if err := l.RemoveCurrent(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "labels", "2.txt")); !os.IsNotExist(err) {
		t.Fatal("label file not removed")
	}
	if p, _ := l.Current(); filepath.Base(p) != "3.jpg" || l.Len() != 2 {
		t.Fatalf("after remove current = %q len %d", p, l.Len())
	}
	if err := l.RemoveCurrent(); err != nil {
		t.Fatal(err)
	}
	if p, _ := l.Current(); filepath.Base(p) != "1.jpg" || l.Index() != 0 {
		t.Fatalf("after removing last = %q", p)
	}

	touch(t, filepath.Join(dir, "0.jpg"))
	if err := l.Refresh(); err != nil {
		t.Fatal(err)
	}
	if p, _ := l.Current(); filepath.Base(p) != "1.jpg" || l.Index() != 1 {
		t.Fatalf("refresh lost selection: %q at %d", p, l.Index())
	}
}

func TestRemoveCurrentKeepsImageThatCannotBeRemoved(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	img := filepath.Join(dir, "1.jpg")
	touch(t, img)
	touch(t, filepath.Join(dir, "2.jpg"))
	label := filepath.Join(root, "labels", "1.txt")
	touch(t, label)

	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	// A non-empty directory under the image's name cannot be removed.
	if err := os.Remove(img); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(img, "keep"))

	if err := l.RemoveCurrent(); err == nil {
		t.Fatal("expected an error")
	}
	if p, _ := l.Current(); filepath.Base(p) != "1.jpg" || l.Len() != 2 {
		t.Fatalf("list changed: %q len %d", p, l.Len())
	}
	if _, err := os.Stat(label); err != nil {
		t.Errorf("label file removed: %v", err)
	}
}

func TestOpenEmptyDir(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected ErrNoImages")
	}
}

func TestSaveOpenImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	for _, name := range []string{"a.png", "b.bmp"} {
		path := filepath.Join(t.TempDir(), name)
		if err := SaveImage(path, img); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		got, err := OpenImage(path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		if got.Bounds().Size() != image.Pt(8, 4) {
			t.Fatalf("%s size = %v", name, got.Bounds())
		}
		if r, _, _, _ := got.At(1, 1).RGBA(); r>>8 != 255 {
			t.Fatalf("%s pixel lost", name)
		}
	}
}
