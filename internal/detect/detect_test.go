package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/example/boxmark/internal/annotation"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/geom"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autolabel.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScriptWritesLabels(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
printf '1 0.5 0.5 0.2 0.4 0.75\n' > "$2"
echo "model=$YOLO_MODEL_PATH names=$3 arg4=$4 pwd=$(pwd -P)"
echo warn >&2
`)
	label := filepath.Join(t.TempDir(), "labels", "a.txt")
	if err := os.MkdirAll(filepath.Dir(label), 0o755); err != nil {
		t.Fatal(err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(script))
	if err != nil {
		t.Fatal(err)
	}
	s := &Script{Python: "/bin/sh", Path: script, Model: "/m/best.onnx"}
	res, err := s.Detect(context.Background(), Request{Image: "img.jpg", Labels: label, Names: "obj.names"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !res.OK {
		t.Fatalf("not OK: %s", res.Diagnostics)
	}
	for _, want := range []string{"exit=0", "model=/m/best.onnx", "names=obj.names", "arg4=/m/best.onnx", "pwd=" + dir, "stderr:\nwarn"} {
		if !strings.Contains(res.Diagnostics, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, res.Diagnostics)
		}
	}
	if len(res.Detections) != 1 {
		t.Fatalf("detections = %+v", res.Detections)
	}
	d := res.Detections[0]
	if d.ClassID != 1 || d.Confidence != 0.75 || !geom.Near(d.Rect, geom.R(0.4, 0.3, 0.2, 0.4), 1e-9) {
		t.Fatalf("detection = %+v", d)
	}
}

func TestScriptFailureIsReported(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho broken >&2\nexit 3\n")
	s := &Script{Python: "/bin/sh", Path: script}
	res, err := s.Detect(context.Background(), Request{Labels: filepath.Join(t.TempDir(), "x.txt")})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.OK || !strings.Contains(res.Diagnostics, "exit=3") || !strings.Contains(res.Diagnostics, "broken") {
		t.Fatalf("result = %+v", res)
	}
}

func TestScriptTimeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nsleep 5\n")
	s := &Script{Python: "/bin/sh", Path: script, FinishTimeout: 200 * time.Millisecond}
	start := time.Now()
	_, err := s.Detect(context.Background(), Request{Labels: filepath.Join(t.TempDir(), "x.txt")})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("timeout did not stop the script")
	}
}

func TestScriptNotStarted(t *testing.T) {
	s := &Script{Python: filepath.Join(t.TempDir(), "no-such-python"), Path: "x.py"}
	_, err := s.Detect(context.Background(), Request{})
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}

func TestEnvExtendsPath(t *testing.T) {
	env := Env([]string{"HOME=/h", "PATH=/usr/bin"})
	if !slices.Contains(env, "PATH=/usr/bin:/opt/homebrew/bin:/usr/local/bin") || !slices.Contains(env, "HOME=/h") {
		t.Fatalf("env = %v", env)
	}
	env = Env([]string{"PATH=/opt/homebrew/bin:/bin"})
	if !slices.Contains(env, "PATH=/opt/homebrew/bin:/bin") {
		t.Fatalf("env = %v", env)
	}
	env = Env(nil)
	if !slices.Contains(env, "PATH="+fallbackPath+":/opt/homebrew/bin:/usr/local/bin") {
		t.Fatalf("env = %v", env)
	}
}

func TestResolvePython(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	fake := writeScript(t, "#!/bin/sh\nexit 0\n")
	if got := ResolvePython(context.Background(), []string{missing, fake}); got != fake {
		t.Fatalf("ResolvePython = %q, want %q", got, fake)
	}
	if got := ResolvePython(context.Background(), []string{missing}); got != "python3" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestImportModelCopiesOnnx(t *testing.T) {
	src := filepath.Join(t.TempDir(), "best.onnx")
	if err := os.WriteFile(src, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	models := filepath.Join(t.TempDir(), "models")
	dst, res, err := ImportModel(context.Background(), "python3", src, models)
	if err != nil || !res.OK {
		t.Fatalf("ImportModel: %v %+v", err, res)
	}
	if dst != filepath.Join(models, "best.onnx") {
		t.Fatalf("dst = %q", dst)
	}
	if data, _ := os.ReadFile(dst); string(data) != "onnx" {
		t.Fatalf("copied data = %q", data)
	}
	if _, _, err := ImportModel(context.Background(), "python3", "model.bin", models); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

type fakeDetector struct {
	res Result
}

func (f fakeDetector) Detect(context.Context, Request) (Result, error) { return f.res, nil }

func TestAutolabelWritesDetections(t *testing.T) {
	label := filepath.Join(t.TempDir(), "labels", "a.txt")
	det := fakeDetector{res: Result{OK: true, Detections: []Detection{
		{ClassID: 0, Confidence: 0.5, Rect: geom.R(0.1, 0.1, 0.2, 0.2)},
		{ClassID: 1, Confidence: 0.9, Rect: geom.R(0.5, 0.5, 0, 0.2)},
	}}}
	if _, err := Autolabel(context.Background(), det, Request{Labels: label}); err != nil {
		t.Fatal(err)
	}
	boxes, err := annotation.LoadFile(label)
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 1 || !geom.Near(boxes[0].Rect, geom.R(0.1, 0.1, 0.2, 0.2), 1e-6) {
		t.Fatalf("boxes = %+v", boxes)
	}
	if confs := dataset.ReadConfidences(label); !slices.Equal(confs, []float64{0.5}) {
		t.Fatalf("confidences = %v", confs)
	}
}

func TestParseOllamaReply(t *testing.T) {
	raw := "```json\n{\n  // boxes\n  \"detections\": [\n    {\"class\": \"Dog\", \"confidence\": 0.8, \"box\": {\"x\": 0.1, \"y\": 0.2, \"w\": 0.3, \"h\": 0.4}},\n    {\"class\": \"unicorn\", \"box\": {\"x\": 0, \"y\": 0, \"w\": 1, \"h\": 1}},\n    {\"class_id\": 0, \"box\": {\"x\": 0.9, \"y\": 0.9, \"w\": 0.5, \"h\": 0.5}},\n  ]\n}\n```"
	dets, err := ParseOllamaReply(raw, []string{"cat", "dog"})
	if err != nil {
		t.Fatal(err)
	}
	if len(dets) != 2 {
		t.Fatalf("detections = %+v", dets)
	}
	if dets[0].ClassID != 1 || dets[0].Confidence != 0.8 || !geom.Near(dets[0].Rect, geom.R(0.1, 0.2, 0.3, 0.4), 1e-9) {
		t.Errorf("first = %+v", dets[0])
	}
	if dets[1].ClassID != 0 || dets[1].Confidence != 1 || !geom.Near(dets[1].Rect, geom.R(0.9, 0.9, 0.1, 0.1), 1e-9) {
		t.Errorf("second = %+v", dets[1])
	}
	if _, err := ParseOllamaReply("no json here", nil); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestNewOllamaRejectsBadURL(t *testing.T) {
	if _, err := NewOllama("localhost", "m"); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
	if o, err := NewOllama("", "llava"); err != nil || o.Model != "llava" {
		t.Fatalf("default url: %v", err)
	}
}
