// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestRenderPassCreateInfo(t *testing.T) {
	rpci := renderPassCreateInfo(vk.FormatB8g8r8a8Srgb)

	require.Len(t, rpci.PAttachments, 1)
	attachment := rpci.PAttachments[0]
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, attachment.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, attachment.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, attachment.StoreOp)
	assert.Equal(t, vk.AttachmentLoadOpDontCare, attachment.StencilLoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, attachment.StencilStoreOp)
	assert.Equal(t, vk.ImageLayoutUndefined, attachment.InitialLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, attachment.FinalLayout)

	require.Len(t, rpci.PSubpasses, 1)
	subpass := rpci.PSubpasses[0]
	assert.Equal(t, vk.PipelineBindPointGraphics, subpass.PipelineBindPoint)
	require.Len(t, subpass.PColorAttachments, 1)
	assert.Equal(t, uint32(0), subpass.PColorAttachments[0].Attachment)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, subpass.PColorAttachments[0].Layout)
	assert.Nil(t, subpass.PDepthStencilAttachment)

	require.Len(t, rpci.PDependencies, 1)
	dep := rpci.PDependencies[0]
	assert.Equal(t, uint32(vk.SubpassExternal), dep.SrcSubpass)
	assert.Equal(t, uint32(0), dep.DstSubpass)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), dep.SrcStageMask)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), dep.DstStageMask)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), dep.DstAccessMask)
}

func TestTriangleState(t *testing.T) {
	state := triangleState()

	assert.Zero(t, state.vertexInput.VertexBindingDescriptionCount)
	assert.Zero(t, state.vertexInput.VertexAttributeDescriptionCount)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, state.inputAssembly.Topology)
	assert.Equal(t, uint32(1), state.viewport.ViewportCount)
	assert.Equal(t, uint32(1), state.viewport.ScissorCount)
	assert.Nil(t, state.viewport.PViewports, "viewport is dynamic")

	assert.Equal(t, vk.PolygonModeFill, state.rasterization.PolygonMode)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), state.rasterization.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, state.rasterization.FrontFace)
	assert.Equal(t, float32(1), state.rasterization.LineWidth)

	assert.Equal(t, vk.SampleCount1Bit, state.multisample.RasterizationSamples)

	require.Len(t, state.colorBlend.PAttachments, 1)
	assert.Equal(t, vk.Bool32(vk.False), state.colorBlend.PAttachments[0].BlendEnable)
	assert.Equal(t, vk.ColorComponentFlags(0xF), state.colorBlend.PAttachments[0].ColorWriteMask)

	assert.ElementsMatch(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, state.dynamic.PDynamicStates)
}

func TestViewportAndScissor(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}

	vp := Viewport(extent)
	assert.Equal(t, float32(800), vp.Width)
	assert.Equal(t, float32(600), vp.Height)
	assert.Equal(t, float32(0), vp.X)
	assert.Equal(t, float32(0), vp.MinDepth)
	assert.Equal(t, float32(1), vp.MaxDepth)

	sc := Scissor(extent)
	assert.Equal(t, extent, sc.Extent)
	assert.Equal(t, vk.Offset2D{}, sc.Offset)
}
