// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// GLFW is a GLFW window without a client API, for Vulkan
type GLFW struct {
	window *glfw.Window
}

// NewGLFW initialises GLFW and opens a fixed size window
func NewGLFW(title string, width, height uint32) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan is not supported")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return &GLFW{window: window}, nil
}

// InstanceExtensions implements interface
func (g *GLFW) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// ProcAddr implements interface
func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface implements interface
func (g *GLFW) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return vk.SurfaceFromPointer(surface), nil
}

// ClientSize implements interface
func (g *GLFW) ClientSize() (uint32, uint32) {
	w, h := g.window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// PollEvents implements interface
func (g *GLFW) PollEvents() bool {
	glfw.PollEvents()
	return !g.window.ShouldClose()
}

// Destroy implements interface
func (g *GLFW) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
