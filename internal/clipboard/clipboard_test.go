package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

type memBackend struct {
	data map[format][]byte
}

func (m *memBackend) init() error { return nil }

func (m *memBackend) write(f format, data []byte) { m.data[f] = data }

func (m *memBackend) read(f format) []byte { return m.data[f] }

func useBackend(t *testing.T, b backend) {
	t.Helper()
	prev := active
	active = b
	initOnce = sync.Once{}
	initErr = nil
	t.Setenv("DISPLAY", ":0")
	t.Cleanup(func() {
		active = prev
		initOnce = sync.Once{}
		initErr = nil
	})
}

func TestWriteWithoutDisplay(t *testing.T) {
	if !needsDisplay() {
		t.Skip("clipboard does not need a display server here")
	}
	useBackend(t, &memBackend{data: map[format][]byte{}})
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	if err := WriteText("Boxes: 0"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteText: expected errNoDisplay, got %v", err)
	}
	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteImage: expected errNoDisplay, got %v", err)
	}
}

func TestImageRoundTrip(t *testing.T) {
	mem := &memBackend{data: map[format][]byte{}}
	useBackend(t, mem)

	if _, err := ReadImage(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("empty clipboard: %v", err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.RGBA{R: 0xff, A: 0xff})
	if err := WriteImage(src); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(mem.data[fmtImage])); err != nil {
		t.Fatalf("clipboard does not hold a PNG: %v", err)
	}
	got, err := ReadImage()
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Size() != image.Pt(3, 2) {
		t.Fatalf("size = %v", got.Bounds().Size())
	}
	if r, _, _, _ := got.At(2, 1).RGBA(); r != 0xffff {
		t.Errorf("pixel = %v", got.At(2, 1))
	}

	if err := WriteText("Boxes: 1"); err != nil || string(mem.data[fmtText]) != "Boxes: 1" {
		t.Errorf("text = %q, %v", mem.data[fmtText], err)
	}
	mem.data[fmtImage] = []byte("not an image")
	if _, err := ReadImage(); err == nil {
		t.Error("expected decode error")
	}
}
