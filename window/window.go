// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides native windows the renderer can present into.
package window

import (
	"github.com/devblok/triangle/core"
	"github.com/pkg/errors"
)

// Window is a core.Window that also owns its event pump
type Window interface {
	core.Window

	// PollEvents handles pending events, returns false once
	// the window should close
	PollEvents() bool

	// Destroy closes the window and releases the windowing library
	Destroy()
}

var (
	_ Window = (*SDL)(nil)
	_ Window = (*GLFW)(nil)
)

// Backends
const (
	BackendSDL  = "sdl"
	BackendGLFW = "glfw"
)

// New opens a window of the given backend
func New(backend, title string, width, height uint32) (Window, error) {
	switch backend {
	case BackendSDL, "":
		return NewSDL(title, width, height)
	case BackendGLFW:
		return NewGLFW(title, width, height)
	}
	return nil, errors.Errorf("unknown window backend %q", backend)
}
