package vulkan

import (
	vk "github.com/goki/vulkan"
)

// VULKAN_TARGET_FORMAT is the colour format of the offscreen target. Captures
// read it back as RGBA bytes without swizzling.
const VULKAN_TARGET_FORMAT = vk.FormatR8g8b8a8Unorm

type VulkanRenderpass struct {
	Handle     vk.RenderPass
	W, H       uint32
	R, G, B, A float32
	Depth      float32
	Stencil    uint32
}

// RenderpassCreate builds the single pass that draws the patches. The colour
// attachment ends in TRANSFER_SRC so the frame can be blitted and read back.
func RenderpassCreate(context *VulkanContext, w, h uint32, clearColor [4]float32, depth float32, stencil uint32) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		W:       w,
		H:       h,
		R:       clearColor[0],
		G:       clearColor[1],
		B:       clearColor[2],
		A:       clearColor[3],
		Depth:   depth,
		Stencil: stencil,
	}

	attachmentDescriptions := []vk.AttachmentDescription{
		// Color attachment
		{
			Format:         VULKAN_TARGET_FORMAT,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined, // Cleared every frame.
			FinalLayout:    vk.ImageLayoutTransferSrcOptimal,
		},
		// Depth attachment
		{
			Format:         context.Device.DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}
	depthAttachmentReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorAttachmentReference,
		PDepthStencilAttachment: &depthAttachmentReference,
	}

	dependencies := []vk.SubpassDependency{
		// The factor dispatch and the previous frame's transfers finish first.
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageTransferBit) | vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessTransferReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit),
			DstStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
				vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) |
				vk.PipelineStageFlags(vk.PipelineStageTessellationControlShaderBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
				vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) |
				vk.AccessFlags(vk.AccessShaderReadBit),
		},
		// The blit and the readback consume the colour attachment.
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			DstAccessMask: vk.AccessFlags(vk.AccessTransferReadBit),
		},
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var pRenderPass vk.RenderPass
	if err := vkCheck("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass)); err != nil {
		return nil, err
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = vk.NullRenderPass
	}
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, frameBuffer vk.Framebuffer) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor([]float32{vr.R, vr.G, vr.B, vr.A})
	clearValues[1].SetDepthStencil(vr.Depth, vr.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: vr.W, Height: vr.H},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}

/**
 * @brief The offscreen colour and depth images plus the framebuffer binding
 * them to the main renderpass.
 */
type VulkanRenderTarget struct {
	Color       *VulkanImage
	Depth       *VulkanImage
	Framebuffer *VulkanFramebuffer
}

func RenderTargetCreate(context *VulkanContext, renderpass *VulkanRenderpass, width, height uint32) (*VulkanRenderTarget, error) {
	target := &VulkanRenderTarget{}

	color, err := ImageCreate(context, width, height,
		VULKAN_TARGET_FORMAT,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)|vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	target.Color = color

	depth, err := ImageCreate(context, width, height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		target.Destroy(context)
		return nil, err
	}
	target.Depth = depth

	framebuffer, err := FramebufferCreate(context, renderpass, width, height, []vk.ImageView{color.View, depth.View})
	if err != nil {
		target.Destroy(context)
		return nil, err
	}
	target.Framebuffer = framebuffer
	return target, nil
}

func (rt *VulkanRenderTarget) Destroy(context *VulkanContext) {
	if rt.Framebuffer != nil {
		rt.Framebuffer.Destroy(context)
		rt.Framebuffer = nil
	}
	if rt.Depth != nil {
		rt.Depth.ImageDestroy(context)
		rt.Depth = nil
	}
	if rt.Color != nil {
		rt.Color.ImageDestroy(context)
		rt.Color = nil
	}
}
