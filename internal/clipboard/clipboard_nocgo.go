//go:build !cgo && !windows

package clipboard

import "errors"

var errCGODisabled = errors.New("clipboard operations require cgo support")

type disabledBackend struct{}

func newBackend() backend { return disabledBackend{} }

func (disabledBackend) init() error { return errCGODisabled }

func (disabledBackend) write(format, []byte) {}

func (disabledBackend) read(format) []byte { return nil }
