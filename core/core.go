// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Window is the native window the renderer presents into.
// Window creation and the message pump are owned by the caller.
type Window interface {
	// InstanceExtensions returns the instance extensions the
	// platform surface needs
	InstanceExtensions() []string

	// ProcAddr returns vkGetInstanceProcAddr as loaded by the
	// windowing library, nil to use the default loader
	ProcAddr() unsafe.Pointer

	// CreateSurface creates the platform surface for the instance
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// ClientSize returns the current drawable size in pixels
	ClientSize() (width, height uint32)
}

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// CreateSurface creates the window surface for rendering
	CreateSurface(Window) error

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Extensions returns enabled instance extensions
	Extensions() []string

	// Layers returns enabled instance layers
	Layers() []string

	// Inner returns the inner handle of the underlying API
	Inner() vk.Instance

	// Destroy destroys internal members
	Destroy()
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise sets up the configured rendering pipeline
	Initialise() error

	// Draw renders and presents a single frame
	Draw() error

	// Destroy waits for the device to go idle and destroys internal members
	Destroy()
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}
