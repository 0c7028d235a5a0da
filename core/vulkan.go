// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/triangle/device"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer
// for the surface of instance
func NewVulkanRenderer(instance Instance, window Window, shaders ShaderSource, cfg RendererConfiguration) *VulkanRenderer {
	return &VulkanRenderer{
		configuration: cfg,
		instance:      instance,
		window:        window,
		shaders:       shaders,
		surface:       instance.Surface(),
	}
}

var _ Renderer = (*VulkanRenderer)(nil)

// inFlight are the objects owned by one frame in flight
type inFlight struct {
	commandBuffer           vk.CommandBuffer
	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemaphore vk.Semaphore
	fence                   vk.Fence
}

// VulkanRenderer is a Vulkan API renderer
type VulkanRenderer struct {
	configuration RendererConfiguration
	release       releaseStack

	instance Instance
	window   Window
	shaders  ShaderSource
	surface  vk.Surface

	physicalDevice vk.PhysicalDevice
	families       device.QueueFamilies
	logicalDevice  vk.Device
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	framebuffers        []vk.Framebuffer
	imageFormat         vk.Format
	imageColorspace     vk.ColorSpace
	extent              vk.Extent2D

	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipelineCache  vk.PipelineCache
	pipeline       vk.Pipeline

	commandPool vk.CommandPool
	frames      []inFlight

	loop *FrameLoop
}

// Initialise implements interface. A failure releases
// everything created up to that point.
func (v *VulkanRenderer) Initialise() error {
	if v.surface == vk.NullSurface {
		return newError(KindSetup, "core.Initialise()", errors.New("instance has no surface"))
	}

	err := runSteps(&v.release, v.initSteps()...)
	if err != nil {
		return err
	}

	v.loop = newFrameLoop(v, len(v.frames), v.configuration.PresentFailureFatal)
	log.WithField("framesInFlight", len(v.frames)).Info("renderer initialised")
	return nil
}

// initSteps lists the renderer objects in creation order
func (v *VulkanRenderer) initSteps() []initStep {
	return []initStep{
		{"physical device", v.pickPhysicalDevice},
		{"logical device", v.createLogicalDevice},
		{"swapchain", v.createSwapchain},
		{"image views", v.createImageViews},
		{"render pass", v.createRenderPass},
		{"pipeline layout", v.createPipelineLayout},
		{"pipeline cache", v.createPipelineCache},
		{"pipeline", v.createPipeline},
		{"framebuffers", v.createFramebuffers},
		{"command pool", v.createCommandPool},
		{"command buffers", v.allocateCommandBuffers},
		{"synchronization", v.createSynchronization},
	}
}

// Draw implements interface
func (v *VulkanRenderer) Draw() error {
	if v.loop == nil {
		return newError(KindFrame, "core.Draw()", errors.New("renderer not initialised"))
	}
	return v.loop.Draw()
}

// FrameLoop exposes the frame counters
func (v *VulkanRenderer) FrameLoop() *FrameLoop {
	return v.loop
}

// Extent is the size of the swapchain images
func (v *VulkanRenderer) Extent() vk.Extent2D {
	return v.extent
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	var waitIdle func() error
	if v.logicalDevice != nil {
		waitIdle = func() error {
			return frameResult("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(v.logicalDevice))
		}
	}
	teardown(waitIdle, &v.release)
	v.loop = nil
	v.frames = nil
}

func (v *VulkanRenderer) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: v.families.Graphics,
	}

	var commandPool vk.CommandPool
	if err := setupResult("vk.CreateCommandPool()", vk.CreateCommandPool(v.logicalDevice, &cpci, nil, &commandPool)); err != nil {
		return err
	}
	v.release.push("command pool", func() {
		vk.DestroyCommandPool(v.logicalDevice, commandPool, nil)
	})
	v.commandPool = commandPool
	return nil
}

// allocateCommandBuffers allocates one primary buffer per frame in flight,
// they are freed with the pool
func (v *VulkanRenderer) allocateCommandBuffers() error {
	depth := v.configuration.FramesInFlight
	if depth < 1 {
		depth = 1
	}
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(depth),
	}

	commandBuffers := make([]vk.CommandBuffer, depth)
	if err := setupResult("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return err
	}

	v.frames = make([]inFlight, depth)
	for i := range v.frames {
		v.frames[i].commandBuffer = commandBuffers[i]
	}
	return nil
}

// createSynchronization creates two semaphores and a signaled fence per
// frame in flight, so the first wait on each fence returns immediately
func (v *VulkanRenderer) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := range v.frames {
		frame := &v.frames[i]

		var imageAvailable, renderFinished vk.Semaphore
		if err := setupResult("vk.CreateSemaphore()", vk.CreateSemaphore(v.logicalDevice, &sci, nil, &imageAvailable)); err != nil {
			return err
		}
		v.release.push("semaphore", func() {
			vk.DestroySemaphore(v.logicalDevice, imageAvailable, nil)
		})
		if err := setupResult("vk.CreateSemaphore()", vk.CreateSemaphore(v.logicalDevice, &sci, nil, &renderFinished)); err != nil {
			return err
		}
		v.release.push("semaphore", func() {
			vk.DestroySemaphore(v.logicalDevice, renderFinished, nil)
		})

		var fence vk.Fence
		if err := setupResult("vk.CreateFence()", vk.CreateFence(v.logicalDevice, &fci, nil, &fence)); err != nil {
			return err
		}
		v.release.push("fence", func() {
			vk.DestroyFence(v.logicalDevice, fence, nil)
		})

		frame.imageAvailableSemaphore = imageAvailable
		frame.renderFinishedSemaphore = renderFinished
		frame.fence = fence
	}
	return nil
}

func (v *VulkanRenderer) waitForFence(slot int) vk.Result {
	return vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{v.frames[slot].fence}, vk.True, vk.MaxUint64)
}

func (v *VulkanRenderer) resetFence(slot int) vk.Result {
	return vk.ResetFences(v.logicalDevice, 1, []vk.Fence{v.frames[slot].fence})
}

func (v *VulkanRenderer) acquireImage(slot int) (uint32, vk.Result) {
	var imageIndex uint32
	ret := vk.AcquireNextImage(v.logicalDevice, v.swapchain, vk.MaxUint64,
		v.frames[slot].imageAvailableSemaphore, vk.NullFence, &imageIndex)
	return imageIndex, ret
}

func (v *VulkanRenderer) record(slot int, imageIndex uint32) error {
	cmd := v.frames[slot].commandBuffer

	if err := vk.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return errors.Wrap(err, "vk.ResetCommandBuffer()")
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}

	clearValues := make([]vk.ClearValue, 1)
	clear := v.configuration.ClearColor
	clearValues[0].SetColor(clear[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: v.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: v.extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(cmd, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, v.pipeline)
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{Viewport(v.extent)})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{Scissor(v.extent)})
	vk.CmdDraw(cmd, v.configuration.VertexCount, 1, 0, 0)
	vk.CmdEndRenderPass(cmd)

	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}
	return nil
}

func (v *VulkanRenderer) submit(slot int) vk.Result {
	frame := v.frames[slot]
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.renderFinishedSemaphore},
	}}
	return vk.QueueSubmit(v.graphicsQueue, 1, submit, frame.fence)
}

func (v *VulkanRenderer) present(slot int, imageIndex uint32) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.frames[slot].renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(v.presentQueue, &presentInfo)
}

// Viewport covers the whole extent with depth 0..1
func Viewport(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

// Scissor covers the whole extent
func Scissor(extent vk.Extent2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
}
