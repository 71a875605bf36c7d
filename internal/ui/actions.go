package ui

import (
	"context"
	"errors"
	"image"
	"path/filepath"

	"golang.org/x/mobile/event/key"

	"github.com/example/boxmark/internal/clipboard"
	"github.com/example/boxmark/internal/dataset"
	"github.com/example/boxmark/internal/session"
)

func (a *App) register() {
	a.keys = keymap{}
	a.actions = map[string]func(){}
	reg := func(name string, keys shortcutList, fn func()) {
		a.actions[name] = fn
		a.keys.bind(name, keys)
	}
	doc := func() *session.Document { return a.ws.Doc }

	reg("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() {
		if err := a.ws.Save(); err != nil {
			a.say("save: %v", err)
			return
		}
		a.say("saved %s", filepath.Base(doc().LabelPath()))
		a.notifier.Save(doc().LabelPath())
	})
	reg("next", shortcutList{{Code: key.CodeRightArrow}, {Rune: 'd'}}, func() {
		a.navigate(a.ws.Next)
	})
	reg("prev", shortcutList{{Code: key.CodeLeftArrow}, {Rune: 'a'}}, func() {
		a.navigate(a.ws.Prev)
	})
	reg("delete", shortcutList{{Code: key.CodeDeleteForward, Modifiers: key.ModControl}}, func() {
		if doc().Path() == "" || !a.confirmed("delete", "press Ctrl+Delete again to delete the image") {
			return
		}
		name := filepath.Base(doc().Path())
		if err := a.ws.DeleteCurrent(a.ctx); err != nil && !errors.Is(err, dataset.ErrNoImages) {
			a.say("delete: %v", err)
			return
		}
		a.say("deleted %s", name)
	})
	reg("crop", shortcutList{{Rune: 'c'}}, func() {
		if doc().Image() == nil {
			return
		}
		doc().Machine().BeginCrop()
		a.say("drag to select the crop, Escape cancels")
	})
	reg("cancel", shortcutList{{Code: key.CodeEscape}}, func() {
		doc().Machine().Cancel()
	})
	reg("clear", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() {
		if doc().Boxes().Len() == 0 || !a.confirmed("clear", "press Ctrl+C again to clear all boxes") {
			return
		}
		doc().Boxes().Clear()
		doc().Machine().Reset()
		a.say("cleared boxes")
	})
	reg("copy-status", shortcutList{{Rune: 'c', Modifiers: key.ModControl | key.ModShift}}, func() {
		if err := clipboard.WriteText(doc().StatusLine()); err != nil {
			a.say("copy: %v", err)
			return
		}
		a.say("status copied to clipboard")
		a.notifier.Copy("status")
	})
	reg("copy-frame", shortcutList{{Rune: 'p', Modifiers: key.ModControl}}, a.copyFrame)
	reg("detect", shortcutList{{Rune: 'r', Modifiers: key.ModControl}}, a.startDetect)
	reg("zoom-in", shortcutList{{Rune: '+'}, {Rune: '='}, {Code: key.CodeKeypadPlusSign}}, func() {
		a.zoomCentre(zoomStep)
	})
	reg("zoom-out", shortcutList{{Rune: '-'}, {Code: key.CodeKeypadHyphenMinus}}, func() {
		a.zoomCentre(-zoomStep)
	})
	reg("zoom-reset", shortcutList{{Rune: '0', Modifiers: key.ModControl}}, func() {
		doc().ResetZoom()
	})
	reg("contrast-down", shortcutList{{Rune: '['}}, func() {
		doc().SetContrast(doc().Contrast() - contrastStep)
	})
	reg("contrast-up", shortcutList{{Rune: ']'}}, func() {
		doc().SetContrast(doc().Contrast() + contrastStep)
	})
	reg("hints", shortcutList{{Rune: 'h'}}, func() {
		a.opts.Hints = !a.opts.Hints
		if a.opts.Hints {
			a.say("overlap hints on")
		} else {
			a.say("overlap hints off")
		}
	})
	reg("next-class", shortcutList{{Rune: '`'}}, func() {
		if n := len(doc().Classes()); n > 0 {
			doc().SetFocusedClass((doc().FocusedClass() + 1) % n)
		}
	})
	for i, r := range "1234567890" {
		class := i
		reg("class-"+string(r), shortcutList{{Rune: r}}, func() {
			doc().SetFocusedClass(class)
		})
	}
	reg("quit", shortcutList{{Rune: 'q', Modifiers: key.ModControl}}, func() {
		a.quit = true
	})
}

func (a *App) navigate(step func(context.Context) error) {
	if err := step(a.ctx); err != nil {
		a.say("%v", err)
	}
}

// zoomCentre zooms around the middle of the window.
func (a *App) zoomCentre(delta float64) {
	a.ws.Doc.Layout(a.canvas())
	a.ws.Doc.Zoom(delta, image.Pt(a.width/2, a.height/2))
}
