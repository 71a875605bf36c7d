//go:build cgo || windows

package clipboard

import "golang.design/x/clipboard"

type systemBackend struct{}

func newBackend() backend { return systemBackend{} }

func (systemBackend) init() error { return clipboard.Init() }

func (systemBackend) write(f format, data []byte) { clipboard.Write(toSystem(f), data) }

func (systemBackend) read(f format) []byte { return clipboard.Read(toSystem(f)) }

func toSystem(f format) clipboard.Format {
	if f == fmtImage {
		return clipboard.FmtImage
	}
	return clipboard.FmtText
}
