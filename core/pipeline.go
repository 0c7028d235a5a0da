// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// colorAttachment is the single swapchain color attachment
func colorAttachment(format vk.Format) vk.AttachmentDescription {
	return vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
}

// externalDependency makes the subpass wait for the swapchain image
// before writing color
func externalDependency() vk.SubpassDependency {
	return vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
}

func renderPassCreateInfo(format vk.Format) vk.RenderPassCreateInfo {
	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment(format)},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{externalDependency()},
	}
}

func (v *VulkanRenderer) createRenderPass() error {
	rpci := renderPassCreateInfo(v.imageFormat)

	var renderPass vk.RenderPass
	if err := setupResult("vk.CreateRenderPass()", vk.CreateRenderPass(v.logicalDevice, &rpci, nil, &renderPass)); err != nil {
		return err
	}
	v.release.push("render pass", func() {
		vk.DestroyRenderPass(v.logicalDevice, renderPass, nil)
	})
	v.renderPass = renderPass
	return nil
}

// createPipelineLayout creates an empty layout, the triangle
// uses no descriptor sets or push constants
func (v *VulkanRenderer) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := setupResult("vk.CreatePipelineLayout()", vk.CreatePipelineLayout(v.logicalDevice, &plci, nil, &pipelineLayout)); err != nil {
		return err
	}
	v.release.push("pipeline layout", func() {
		vk.DestroyPipelineLayout(v.logicalDevice, pipelineLayout, nil)
	})
	v.pipelineLayout = pipelineLayout
	return nil
}

func (v *VulkanRenderer) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := setupResult("vk.CreatePipelineCache()", vk.CreatePipelineCache(v.logicalDevice, &pcci, nil, &pipelineCache)); err != nil {
		return err
	}
	v.release.push("pipeline cache", func() {
		vk.DestroyPipelineCache(v.logicalDevice, pipelineCache, nil)
	})
	v.pipelineCache = pipelineCache
	return nil
}

// fixedFunctionState is everything of the pipeline apart from shader stages,
// layout and render pass
type fixedFunctionState struct {
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewport      vk.PipelineViewportStateCreateInfo
	rasterization vk.PipelineRasterizationStateCreateInfo
	multisample   vk.PipelineMultisampleStateCreateInfo
	colorBlend    vk.PipelineColorBlendStateCreateInfo
	dynamic       vk.PipelineDynamicStateCreateInfo
}

func triangleState() fixedFunctionState {
	return fixedFunctionState{
		// vertices come from the vertex shader itself
		vertexInput: vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		inputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		viewport: vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		rasterization: vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1.0,
		},
		colorBlend: vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable:    vk.False,
			}},
		},
		dynamic: vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
	}
}

func (v *VulkanRenderer) loadShaders() ([]*VulkanShader, error) {
	names := []struct {
		name       string
		shaderType ShaderType
	}{
		{v.configuration.VertexShader, VertexShaderType},
		{v.configuration.FragmentShader, FragmentShaderType},
	}

	shaders := make([]*VulkanShader, 0, len(names))
	for _, n := range names {
		shader, err := NewVulkanShader(v.shaders, n.name, n.shaderType, v.logicalDevice)
		if err != nil {
			destroyShaders(shaders)
			return nil, err
		}
		shaders = append(shaders, shader)
	}
	return shaders, nil
}

func destroyShaders(shaders []*VulkanShader) {
	for _, s := range shaders {
		s.Destroy()
	}
}

// createPipeline links both shader stages into the graphics pipeline.
// Shader modules are not needed after linking and are destroyed right away.
func (v *VulkanRenderer) createPipeline() error {
	shaders, err := v.loadShaders()
	if err != nil {
		return err
	}
	defer destroyShaders(shaders)

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(shaders))
	for _, shader := range shaders {
		stage, err := shader.Stage(v.configuration.ShaderEntry)
		if err != nil {
			return newError(KindSetup, "core.createPipeline()", errors.Wrap(err, shader.Name()))
		}
		stages = append(stages, stage)
	}

	state := triangleState()
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &state.vertexInput,
		PInputAssemblyState: &state.inputAssembly,
		PViewportState:      &state.viewport,
		PRasterizationState: &state.rasterization,
		PMultisampleState:   &state.multisample,
		PColorBlendState:    &state.colorBlend,
		PDynamicState:       &state.dynamic,
		Layout:              v.pipelineLayout,
		RenderPass:          v.renderPass,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := setupResult("vk.CreateGraphicsPipelines()", vk.CreateGraphicsPipelines(v.logicalDevice, v.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return err
	}
	pipeline := pipelines[0]
	v.release.push("pipeline", func() {
		vk.DestroyPipeline(v.logicalDevice, pipeline, nil)
	})
	v.pipeline = pipeline
	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	v.framebuffers = make([]vk.Framebuffer, 0, len(v.swapchainImageViews))
	for _, view := range v.swapchainImageViews {
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           v.extent.Width,
			Height:          v.extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := setupResult("vk.CreateFramebuffer()", vk.CreateFramebuffer(v.logicalDevice, &fci, nil, &framebuffer)); err != nil {
			return err
		}
		v.release.push("framebuffer", func() {
			vk.DestroyFramebuffer(v.logicalDevice, framebuffer, nil)
		})
		v.framebuffers = append(v.framebuffers, framebuffer)
	}
	return nil
}
