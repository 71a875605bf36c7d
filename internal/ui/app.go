// Package ui runs the annotation window on shiny.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/boxmark/internal/clipboard"
	"github.com/example/boxmark/internal/detect"
	"github.com/example/boxmark/internal/notify"
	"github.com/example/boxmark/internal/platform"
	"github.com/example/boxmark/internal/render"
	"github.com/example/boxmark/internal/session"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800

	messageTimeout = 2 * time.Second

	// zoomStep is one wheel notch, used by the +/- keys.
	zoomStep = 120
	// contrastStep is how far [ and ] move the contrast slider.
	contrastStep = 50

	frameDropThreshold = 3
)

// App is the annotation window. Every field is owned by the window's event
// goroutine; detector runs hand their results back as events.
type App struct {
	ws       *session.Workspace
	opts     render.Options
	notifier *notify.Notifier
	width    int
	height   int
	onClose  func()

	ctx          context.Context
	keys         keymap
	actions      map[string]func()
	message      string
	messageUntil time.Time
	confirm      string
	detecting    bool
	quit         bool

	// post delivers events to the window loop.
	post func(any)
	now  func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithRenderOptions sets how frames are drawn.
func WithRenderOptions(o render.Options) Option { return func(a *App) { a.opts = o } }

// WithNotifier sets the desktop notifier used after saves, crops, detector
// runs and copies.
func WithNotifier(n *notify.Notifier) Option { return func(a *App) { a.notifier = n } }

// WithSize sets the initial window size.
func WithSize(w, h int) Option {
	return func(a *App) {
		if w > 0 && h > 0 {
			a.width, a.height = w, h
		}
	}
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *App) { a.onClose = fn } }

// New creates the window state for ws.
func New(ws *session.Workspace, opts ...Option) *App {
	a := &App{
		ws:     ws,
		opts:   render.DefaultOptions(),
		width:  defaultWidth,
		height: defaultHeight,
		ctx:    context.Background(),
		post:   func(any) {},
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.register()
	return a
}

// lockedWhileDetecting names the actions that edit boxes or pixels; they
// wait for a running detector, whose result replaces the boxes.
var lockedWhileDetecting = map[string]bool{
	"clear":  true,
	"crop":   true,
	"delete": true,
}

const lockedMessage = "boxes are locked while the detector runs"

// detectDone carries a finished detector run back to the event loop.
type detectDone struct {
	path string
	res  detect.Result
	err  error
}

// Run executes the UI loop using shiny's driver.
func (a *App) Run() { driver.Main(a.Main) }

// Main drives one window on s until it is closed.
func (a *App) Main(s screen.Screen) {
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  a.width,
		Height: a.height,
		Title:  fmt.Sprintf("%s - %s", platform.AppName, a.ws.List().Dir),
	})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	defer func() {
		if err := a.ws.Save(); err != nil && !errors.Is(err, session.ErrNoImage) {
			log.Printf("save on close: %v", err)
		}
		if a.onClose != nil {
			a.onClose()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.ctx = ctx
	a.post = w.Send

	p := newPainter(s, w)
	defer p.close()

	for !a.quit {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			a.width, a.height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			p.submit(a.scene(), a.opts)
		case mouse.Event:
			if a.handleMouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if a.handleKey(e) {
				w.Send(paint.Event{})
			}
		case detectDone:
			a.finishDetect(e)
			w.Send(paint.Event{})
		case error:
			log.Print(e)
		}
	}
}

// canvas is the current window size.
func (a *App) canvas() image.Point { return image.Pt(a.width, a.height) }

// scene lays the document out for the window and snapshots it.
func (a *App) scene() render.Scene {
	sc := render.SceneOf(a.ws.Doc, a.canvas())
	sc.Status = a.statusLine()
	if a.message != "" && a.now().Before(a.messageUntil) {
		sc.Message = a.message
	}
	return sc
}

func (a *App) statusLine() string {
	doc := a.ws.Doc
	s := doc.StatusLine()
	if path := doc.Path(); path != "" {
		s = fmt.Sprintf("%s | %d/%d %s", s, a.ws.List().Index()+1, a.ws.List().Len(), filepath.Base(path))
	}
	if classes, f := doc.Classes(), doc.FocusedClass(); f >= 0 && f < len(classes) {
		s = fmt.Sprintf("%s | class %d %s", s, f, classes[f])
	}
	if c := doc.ContrastPercent(); c != 100 {
		s = fmt.Sprintf("%s | contrast %d%%", s, c)
	}
	if a.detecting {
		s += " | detecting..."
	}
	return s
}

func (a *App) say(format string, args ...any) {
	a.message = fmt.Sprintf(format, args...)
	a.messageUntil = a.now().Add(messageTimeout)
	log.Print(a.message)
	// repaint once the notice expires
	post := a.post
	time.AfterFunc(messageTimeout, func() { post(paint.Event{}) })
}

func (a *App) handleMouse(e mouse.Event) bool {
	dismissed := false
	if a.message != "" && a.now().Before(a.messageUntil) && e.Direction == mouse.DirPress {
		a.messageUntil = time.Time{}
		dismissed = true
	}
	doc := a.ws.Doc
	if doc.Image() == nil {
		return dismissed
	}
	if a.detecting && e.Direction != mouse.DirNone && !e.Button.IsWheel() {
		if e.Direction == mouse.DirPress {
			a.say(lockedMessage)
			return true
		}
		return dismissed
	}
	cropping := doc.Machine().Cropping()
	before := doc.Size()
	changed := doc.Machine().Handle(e)
	if cropping && doc.Size() != before {
		a.say("cropped to %dx%d", doc.Size().X, doc.Size().Y)
		a.notifier.Crop(doc.Path(), doc.Image())
	}
	return changed || dismissed
}

func (a *App) handleKey(e key.Event) bool {
	if e.Direction != key.DirPress {
		return false
	}
	name, ok := a.keys.lookup(e)
	if !ok {
		a.confirm = ""
		return false
	}
	if name != a.confirm {
		a.confirm = ""
	}
	if a.detecting && lockedWhileDetecting[name] {
		a.say(lockedMessage)
		return true
	}
	a.actions[name]()
	return true
}

// confirmed reports whether name was pressed twice in a row, asking for
// the second press otherwise.
func (a *App) confirmed(name, prompt string) bool {
	if a.confirm == name {
		a.confirm = ""
		return true
	}
	a.confirm = name
	a.say("%s", prompt)
	return false
}

func (a *App) startDetect() {
	if a.detecting {
		a.say("detector already running")
		return
	}
	det := a.ws.Detector()
	if det == nil {
		a.say("no detector configured")
		return
	}
	if a.ws.Doc.Path() == "" {
		return
	}
	if a.ws.Doc.Dirty() {
		if err := a.ws.Save(); err != nil {
			a.say("save: %v", err)
			return
		}
	}
	// the run replaces the boxes, so no gesture may be left half done
	a.ws.Doc.Machine().Cancel()
	req := a.ws.Request()
	a.detecting = true
	ctx, post := a.ctx, a.post
	go func() {
		res, err := detect.Autolabel(ctx, det, req)
		post(detectDone{path: req.Image, res: res, err: err})
	}()
}

func (a *App) finishDetect(d detectDone) {
	a.detecting = false
	if d.err == nil && !d.res.OK {
		d.err = fmt.Errorf("detector failed")
	}
	if d.path != a.ws.Doc.Path() {
		// the user moved on; the labels are on disk for when they return
		a.notifier.Detect(d.path, len(d.res.Detections), d.err)
		return
	}
	if err := a.ws.Finish(d.res, d.err); err != nil {
		a.say("detect: %v", err)
		if d.res.Diagnostics != "" {
			log.Print(d.res.Diagnostics)
		}
	} else {
		a.say("detected %d boxes", a.ws.Doc.Boxes().Len())
	}
	a.notifier.Detect(d.path, len(d.res.Detections), d.err)
}

// copyFrame renders the current view off screen and places it on the
// clipboard.
func (a *App) copyFrame() {
	dst := image.NewRGBA(image.Rectangle{Max: a.canvas()})
	if _, err := render.Draw(a.ctx, dst, render.SceneOf(a.ws.Doc, a.canvas()), a.opts); err != nil {
		a.say("copy: %v", err)
		return
	}
	if err := clipboard.WriteImage(dst); err != nil {
		a.say("copy: %v", err)
		return
	}
	a.say("frame copied to clipboard")
	a.notifier.Copy("frame")
}
