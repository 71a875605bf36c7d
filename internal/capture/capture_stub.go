//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import "image"

type stubBackend struct{}

func newBackend() grabber { return stubBackend{} }

func (stubBackend) Monitors() ([]Monitor, error)  { return nil, errUnsupported }
func (stubBackend) Screen() (*image.RGBA, error) { return nil, errUnsupported }
