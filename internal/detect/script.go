package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/boxmark/internal/annotation"
)

const (
	DefaultStartTimeout  = 5 * time.Second
	DefaultFinishTimeout = 60 * time.Second
)

// extraPath is appended to PATH so interpreters installed by package
// managers are found when the program is started from a desktop launcher.
var extraPath = []string{"/opt/homebrew/bin", "/usr/local/bin"}

const fallbackPath = "/usr/bin:/bin:/usr/sbin:/sbin"

// Script runs `python script image labels names [model]` from the script's
// directory. The script writes the label file itself and may leave a
// confidence side file next to it.
type Script struct {
	Python        string
	Path          string
	Model         string
	StartTimeout  time.Duration
	FinishTimeout time.Duration
}

// WritesLabels reports that the script produces the label file.
func (s *Script) WritesLabels() bool { return true }

// Detect runs the script for req. Exit status and output are returned as
// diagnostics; the detections are read back from req.Labels.
func (s *Script) Detect(ctx context.Context, req Request) (Result, error) {
	if s.Path == "" {
		return Result{}, fmt.Errorf("autolabel: no script configured")
	}
	args := []string{s.Path, req.Image, req.Labels, req.Names}
	if s.Model != "" {
		args = append(args, s.Model)
	}
	env := Env(os.Environ())
	if s.Model != "" {
		env = append(env, "YOLO_MODEL_PATH="+s.Model)
	}
	dir := filepath.Dir(s.Path)
	if abs, err := filepath.Abs(s.Path); err == nil {
		dir = filepath.Dir(abs)
	}
	res, err := run(ctx, command{
		Program: s.python(),
		Args:    args,
		Env:     env,
		Dir:     dir,
		Start:   orDefault(s.StartTimeout, DefaultStartTimeout),
		Finish:  orDefault(s.FinishTimeout, DefaultFinishTimeout),
	})
	log.Printf("autolabel: %s", strings.ReplaceAll(strings.TrimSpace(res.Diagnostics), "\n", " | "))
	if err != nil {
		return res, err
	}
	if boxes, lerr := annotation.LoadFile(req.Labels); lerr == nil {
		for _, b := range boxes {
			res.Detections = append(res.Detections, Detection{ClassID: b.ClassID, Confidence: b.Confidence, Rect: b.Rect})
		}
	} else if !errors.Is(lerr, os.ErrNotExist) {
		log.Printf("autolabel: %v", lerr)
	}
	return res, nil
}

func (s *Script) python() string {
	if s.Python != "" {
		return s.Python
	}
	return "python3"
}

// Env returns environ with PATH extended by the package-manager bin
// directories when they are missing.
func Env(environ []string) []string {
	out := make([]string, 0, len(environ)+1)
	path := ""
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			path = v
			continue
		}
		out = append(out, kv)
	}
	if path == "" {
		path = fallbackPath
	}
	if !strings.Contains(path, extraPath[0]) {
		path += ":" + strings.Join(extraPath, ":")
	}
	return append(out, "PATH="+path)
}

type command struct {
	Program string
	Args    []string
	Env     []string
	Dir     string
	Start   time.Duration
	Finish  time.Duration
}

// run starts c and waits for it. The start timeout bounds process creation,
// the finish timeout the whole run.
func run(ctx context.Context, c command) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Finish)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := make(chan error, 1)
	go func() { started <- cmd.Start() }()
	select {
	case err := <-started:
		if err != nil {
			return Result{Diagnostics: fmt.Sprintf("failed to start %s: %v", c.Program, err)},
				fmt.Errorf("%w: %s: %v", ErrNotStarted, c.Program, err)
		}
	case <-time.After(c.Start):
		cancel()
		if err := <-started; err == nil {
			_ = cmd.Wait()
		}
		return Result{Diagnostics: "start timed out"}, fmt.Errorf("%w: %s", ErrNotStarted, c.Program)
	}

	err := cmd.Wait()
	res := Result{
		OK:          err == nil,
		Diagnostics: diagnostics(cmd.ProcessState.ExitCode(), stdout.String(), stderr.String()),
	}
	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%w after %v", ErrTimeout, c.Finish)
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}

func diagnostics(code int, stdout, stderr string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit=%d", code)
	if s := strings.TrimSpace(stdout); s != "" {
		fmt.Fprintf(&b, "\nstdout:\n%s", s)
	}
	if s := strings.TrimSpace(stderr); s != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", s)
	}
	return b.String()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
