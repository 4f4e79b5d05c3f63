package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
	BindPoint      vk.PipelineBindPoint
}

type VulkanPipelineConfig struct {
	/** @brief A pointer to the renderpass to associate with the pipeline. */
	Renderpass *VulkanRenderpass
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	/** @brief Vertex, control, evaluation and fragment stages. */
	Stages []vk.PipelineShaderStageCreateInfo
	/** @brief Control points per patch: 4 for quads, 3 for triangles. */
	PatchControlPoints uint32
	/** @brief The face cull mode. */
	CullMode metadata.FaceCullMode
	/** @brief Indicates if this pipeline should use wireframe mode. */
	IsWireframe bool
	/** @brief An array of push constant data ranges. */
	PushConstantRanges []*metadata.MemoryRange
	/** @brief Stages that read the push constants. */
	PushConstantStages vk.ShaderStageFlags
}

// Positions and texture coordinates live in separate buffers.
var patchVertexBindings = []vk.VertexInputBindingDescription{
	{
		Binding:   VULKAN_VERTEX_BINDING_POSITION,
		Stride:    12,
		InputRate: vk.VertexInputRateVertex,
	},
	{
		Binding:   VULKAN_VERTEX_BINDING_TEXCOORD,
		Stride:    8,
		InputRate: vk.VertexInputRateVertex,
	},
}

var patchVertexAttributes = []vk.VertexInputAttributeDescription{
	{
		Location: 0,
		Binding:  VULKAN_VERTEX_BINDING_POSITION,
		Format:   vk.FormatR32g32b32Sfloat,
		Offset:   0,
	},
	{
		Location: 1,
		Binding:  VULKAN_VERTEX_BINDING_TEXCOORD,
		Format:   vk.FormatR32g32Sfloat,
		Offset:   0,
	},
}

func pushConstantRanges(ranges []*metadata.MemoryRange, stages vk.ShaderStageFlags) ([]vk.PushConstantRange, error) {
	// NOTE: 32 is the max number of ranges we can ever have, since the guaranteed 128 bytes use 4-byte alignment.
	if len(ranges) > 32 {
		return nil, fmt.Errorf("cannot have more than 32 push constant ranges. Passed count: %d", len(ranges))
	}
	out := make([]vk.PushConstantRange, len(ranges))
	for i, r := range ranges {
		out[i] = vk.PushConstantRange{
			StageFlags: stages,
			Offset:     uint32(r.Offset),
			Size:       uint32(r.Size),
		}
	}
	return out, nil
}

func createPipelineLayout(context *VulkanContext, setLayouts []vk.DescriptorSetLayout, ranges []vk.PushConstantRange) (vk.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}

	var layout vk.PipelineLayout
	err := context.locks.SafeCall(PipelineManagement, func() error {
		return vkCheck("vkCreatePipelineLayout", vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &layout))
	})
	return layout, err
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{BindPoint: vk.PipelineBindPointGraphics}

	if config.PatchControlPoints == 0 || config.PatchControlPoints > 32 {
		return nil, fmt.Errorf("patch control points %d: %w", config.PatchControlPoints, core.ErrInvalidParameter)
	}

	// Viewport and scissor are dynamic so resizes do not rebuild pipelines.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeLine,
		LineWidth:               1.0,
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	if !config.IsWireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeFill
	}
	switch config.CullMode {
	case metadata.FaceCullModeNone:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeNone)
	case metadata.FaceCullModeFront:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeFrontBit)
	default:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(patchVertexBindings)),
		PVertexBindingDescriptions:      patchVertexBindings,
		VertexAttributeDescriptionCount: uint32(len(patchVertexAttributes)),
		PVertexAttributeDescriptions:    patchVertexAttributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyPatchList,
		PrimitiveRestartEnable: vk.False,
	}

	tessellationState := vk.PipelineTessellationStateCreateInfo{
		SType:              vk.StructureTypePipelineTessellationStateCreateInfo,
		PatchControlPoints: config.PatchControlPoints,
	}

	ranges, err := pushConstantRanges(config.PushConstantRanges, config.PushConstantStages)
	if err != nil {
		return nil, err
	}
	layout, err := createPipelineLayout(context, config.DescriptorSetLayouts, ranges)
	if err != nil {
		return nil, err
	}
	outPipeline.PipelineLayout = layout

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PTessellationState:  &tessellationState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		return vkCheck("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pPipelines))
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline created (%d control points, wireframe=%t).", config.PatchControlPoints, config.IsWireframe)
	return outPipeline, nil
}

func NewComputePipeline(context *VulkanContext, stage vk.PipelineShaderStageCreateInfo, setLayouts []vk.DescriptorSetLayout, pushConstantSize uint64) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{BindPoint: vk.PipelineBindPointCompute}

	ranges, err := pushConstantRanges(
		[]*metadata.MemoryRange{metadata.GetAlignedRange(0, pushConstantSize, 4)},
		vk.ShaderStageFlags(vk.ShaderStageComputeBit))
	if err != nil {
		return nil, err
	}
	layout, err := createPipelineLayout(context, setLayouts, ranges)
	if err != nil {
		return nil, err
	}
	outPipeline.PipelineLayout = layout

	createInfo := vk.ComputePipelineCreateInfo{
		SType:              vk.StructureTypeComputePipelineCreateInfo,
		Stage:              stage,
		Layout:             layout,
		BasePipelineHandle: vk.NullPipeline,
		BasePipelineIndex:  -1,
	}
	pPipelines := make([]vk.Pipeline, 1)
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		return vkCheck("vkCreateComputePipelines", vk.CreateComputePipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.ComputePipelineCreateInfo{createInfo},
			context.Allocator,
			pPipelines))
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Compute pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	_ = context.locks.SafeCall(PipelineManagement, func() error {
		if pipeline.Handle != vk.NullPipeline {
			vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
			pipeline.Handle = vk.NullPipeline
		}
		if pipeline.PipelineLayout != vk.NullPipelineLayout {
			vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = vk.NullPipelineLayout
		}
		return nil
	})
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindPipeline(commandBuffer.Handle, pipeline.BindPoint, pipeline.Handle)
}
