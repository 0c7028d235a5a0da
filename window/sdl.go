// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

// SDL is an SDL2 window created for Vulkan
type SDL struct {
	window *sdl.Window
}

// NewSDL initialises SDL, loads the Vulkan library and opens the window
func NewSDL(title string, width, height uint32) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &SDL{window: window}, nil
}

// InstanceExtensions implements interface
func (s *SDL) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements interface
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements interface
func (s *SDL) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

// ClientSize implements interface
func (s *SDL) ClientSize() (uint32, uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	return uint32(w), uint32(h)
}

// PollEvents implements interface
func (s *SDL) PollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				return false
			}
		case *sdl.QuitEvent:
			return false
		}
	}
	return true
}

// Destroy implements interface
func (s *SDL) Destroy() {
	s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
