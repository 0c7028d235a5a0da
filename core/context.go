// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Context owns every handle of the presenter, from the instance
// down to the per-frame sync objects
type Context struct {
	configuration Configuration

	instance *VulkanInstance
	renderer *VulkanRenderer
	time     *Time

	closed bool
}

// NewContext bootstraps Vulkan for the window and builds the swapchain,
// pipeline and frame resources. On failure nothing is left allocated.
func NewContext(window Window, cfg Configuration) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindSetup, "core.Configuration.Validate()", err)
	}

	shaders, err := NewShaderSource(cfg.Renderer)
	if err != nil {
		return nil, err
	}
	defer closeShaderSource(shaders)

	instance, err := NewVulkanInstance(window, cfg.Instance)
	if err != nil {
		return nil, err
	}

	if err := instance.CreateSurface(window); err != nil {
		instance.Destroy()
		return nil, err
	}

	renderer := NewVulkanRenderer(instance, window, shaders, cfg.Renderer)
	if err := renderer.Initialise(); err != nil {
		instance.Destroy()
		return nil, err
	}

	return &Context{
		configuration: cfg,
		instance:      instance,
		renderer:      renderer,
		time:          NewTime(cfg.Time),
	}, nil
}

func closeShaderSource(source ShaderSource) {
	if c, ok := source.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("closing shader source")
		}
	}
}

// DrawFrame renders and presents one frame
func (c *Context) DrawFrame() error {
	return c.renderer.Draw()
}

// Time returns the tickers pacing frames and window events
func (c *Context) Time() *Time {
	return c.time
}

// Renderer returns the renderer
func (c *Context) Renderer() *VulkanRenderer {
	return c.renderer
}

// Instance returns the instance
func (c *Context) Instance() *VulkanInstance {
	return c.instance
}

// Shutdown waits for the device to go idle, then destroys
// everything in reverse creation order. Safe to call twice.
func (c *Context) Shutdown() {
	if c.closed {
		return
	}
	c.closed = true

	c.time.Stop()
	if loop := c.renderer.FrameLoop(); loop != nil {
		log.WithFields(log.Fields{
			"frames":          loop.Frames(),
			"waits":           loop.Waits(),
			"submits":         loop.Submits(),
			"presents":        loop.Presents(),
			"presentFailures": loop.PresentFailures(),
		}).Info("shutting down")
	}
	c.renderer.Destroy()
	c.instance.Destroy()
}
