package detect

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PythonCandidates are tried in order by ResolvePython.
var PythonCandidates = []string{
	"/opt/anaconda3/bin/python",
	"/usr/bin/python3",
	"/opt/homebrew/bin/python3",
	"/usr/local/bin/python3",
	"python3",
	"python",
}

const probeTimeout = 1500 * time.Millisecond

// ConvertTimeout bounds a .pt to .onnx export.
const ConvertTimeout = 180 * time.Second

// ResolvePython returns the first candidate that answers `-V`, or python3.
func ResolvePython(ctx context.Context, candidates []string) string {
	for _, c := range candidates {
		if probe(ctx, c) {
			return c
		}
	}
	return "python3"
}

func probe(ctx context.Context, program string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, program, "-V")
	cmd.Env = Env(os.Environ())
	return cmd.Run() == nil
}

const exportScript = `import sys,os,shutil,subprocess
from pathlib import Path
pt=sys.argv[1]; out=sys.argv[2]
try:
  from ultralytics import YOLO
except ImportError:
  subprocess.check_call([sys.executable, '-m', 'pip', 'install', 'ultralytics'])
  from ultralytics import YOLO
try:
  m=YOLO(pt)
  m.export(format='onnx', imgsz=640, opset=12, dynamic=False, simplify=True, device='cpu')
except Exception:
  import traceback; traceback.print_exc(); sys.exit(3)
ptdir=str(Path(pt).resolve().parent)
cands=[str(p) for p in Path(ptdir).rglob('*.onnx')]
if not cands: sys.exit(4)
cand=max(cands, key=os.path.getmtime)
shutil.copy2(cand, out)
print(out)
`

// ImportModel makes src available in modelsDir as an .onnx file and returns
// its path. An .onnx source is copied when newer than the existing copy; a
// .pt source is exported with ultralytics through python.
func ImportModel(ctx context.Context, python, src, modelsDir string) (string, Result, error) {
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return "", Result{}, fmt.Errorf("models dir: %w", err)
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	switch strings.ToLower(ext) {
	case ".onnx":
		dst := filepath.Join(modelsDir, base)
		if err := copyIfNewer(src, dst); err != nil {
			return "", Result{}, err
		}
		return dst, Result{OK: true}, nil
	case ".pt":
	default:
		return "", Result{}, fmt.Errorf("model %s: unsupported extension %q", src, ext)
	}
	target := filepath.Join(modelsDir, strings.TrimSuffix(base, ext)+".onnx")
	res, err := run(ctx, command{
		Program: python,
		Args:    []string{"-c", exportScript, src, target},
		Env:     Env(os.Environ()),
		Start:   DefaultStartTimeout,
		Finish:  ConvertTimeout,
	})
	if err != nil {
		return "", res, err
	}
	if !res.OK {
		return "", res, fmt.Errorf("convert %s: %s", src, res.Diagnostics)
	}
	if _, err := os.Stat(target); err != nil {
		res.OK = false
		return "", res, fmt.Errorf("converted model not found: %w", err)
	}
	return target, res, nil
}

func copyIfNewer(src, dst string) error {
	si, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if di, err := os.Stat(dst); err == nil && !si.ModTime().After(di.ModTime()) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy model: %w", err)
	}
	return out.Close()
}
