package ui

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/boxmark/internal/render"
)

type paintJob struct {
	scene render.Scene
	opts  render.Options
	size  image.Point
}

// painter draws frames on its own goroutine. A newer frame cancels the one
// in flight, up to frameDropThreshold times in a row so that continuous
// input still shows progress.
type painter struct {
	s  screen.Screen
	w  screen.Window
	ch chan paintJob

	mu      sync.Mutex
	cancel  context.CancelFunc
	dropped int
	done    chan struct{}
}

func newPainter(s screen.Screen, w screen.Window) *painter {
	p := &painter{s: s, w: w, ch: make(chan paintJob, 1), done: make(chan struct{})}
	go p.loop()
	return p
}

func (p *painter) submit(sc render.Scene, opts render.Options) {
	job := paintJob{scene: sc, opts: opts, size: sc.Frame.Canvas}
	p.mu.Lock()
	if p.cancel != nil && p.dropped < frameDropThreshold {
		p.cancel()
		p.dropped++
	}
	p.mu.Unlock()
	select {
	case p.ch <- job:
	default:
		select {
		case <-p.ch:
		default:
		}
		p.ch <- job
	}
}

func (p *painter) close() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	close(p.ch)
	<-p.done
}

func (p *painter) loop() {
	defer close(p.done)
	for job := range p.ch {
		ctx, cancel := context.WithCancel(context.Background())
		p.mu.Lock()
		p.cancel = cancel
		p.mu.Unlock()
		err := p.draw(ctx, job)
		p.mu.Lock()
		p.cancel = nil
		if err == nil {
			p.dropped = 0
		}
		p.mu.Unlock()
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("paint: %v", err)
		}
	}
}

func (p *painter) draw(ctx context.Context, job paintJob) error {
	if job.size.X <= 0 || job.size.Y <= 0 {
		return nil
	}
	b, err := p.s.NewBuffer(job.size)
	if err != nil {
		return err
	}
	defer b.Release()
	if _, err := render.Draw(ctx, b.RGBA(), job.scene, job.opts); err != nil {
		return err
	}
	p.w.Upload(image.Point{}, b, b.Bounds())
	p.w.Publish()
	return nil
}
