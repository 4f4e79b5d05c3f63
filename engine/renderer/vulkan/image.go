package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Aspect vk.ImageAspectFlags
}

func ImageCreate(
	context *VulkanContext,
	width, height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	memoryFlags vk.MemoryPropertyFlags,
	createView bool,
	viewAspectFlags vk.ImageAspectFlags,
) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
		Aspect: viewAspectFlags,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if err := vkCheck("vkCreateImage", vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	outImage.Handle = handle

	// Query memory requirements.
	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outImage.ImageDestroy(context)
		return nil, fmt.Errorf("image memory: %w", err)
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := context.locks.SafeCall(MemoryManagement, func() error {
		return vkCheck("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &memoryAllocateInfo, context.Allocator, &memory))
	}); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	outImage.Memory = memory

	// TODO: configurable memory offset.
	if err := vkCheck("vkBindImageMemory", vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	if createView {
		if err := outImage.ImageViewCreate(context, format, viewAspectFlags); err != nil {
			outImage.ImageDestroy(context)
			return nil, err
		}
	}

	return outImage, nil
}

func (vi *VulkanImage) ImageViewCreate(context *VulkanContext, format vk.Format, aspectFlags vk.ImageAspectFlags) error {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vkCheck("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		return err
	}
	vi.View = view
	return nil
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(device, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
}

// ImageTransitionLayout records a barrier moving the whole image from
// oldLayout to newLayout.
func ImageTransitionLayout(cmd vk.CommandBuffer, image vk.Image, aspect vk.ImageAspectFlags, oldLayout, newLayout vk.ImageLayout) error {
	srcAccess, srcStage, err := layoutAccess(oldLayout)
	if err != nil {
		return err
	}
	dstAccess, dstStage, err := layoutAccess(newLayout)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// layoutAccess maps the layouts this renderer uses to the access mask and
// stage that touch them.
func layoutAccess(layout vk.ImageLayout) (vk.AccessFlags, vk.PipelineStageFlags, error) {
	switch layout {
	case vk.ImageLayoutUndefined:
		return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), nil
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit), nil
	case vk.ImageLayoutTransferSrcOptimal:
		return vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit), nil
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), nil
	case vk.ImageLayoutPresentSrc:
		return 0, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit), nil
	}
	return 0, 0, fmt.Errorf("unsupported layout transition involving %d: %w", layout, core.ErrInvalidParameter)
}

/**
 * @brief A sampled image: the texture painted on filled patches.
 */
type VulkanTexture struct {
	Image   *VulkanImage
	Sampler vk.Sampler
}

// whitePixel is bound when the scene has no texture.
var whitePixel = &resources.ImageResourceData{Width: 1, Height: 1, Pixels: []byte{0xff, 0xff, 0xff, 0xff}}

// TextureCreate uploads tightly packed RGBA8 pixels through a staging buffer.
func TextureCreate(context *VulkanContext, data *resources.ImageResourceData) (*VulkanTexture, error) {
	if data == nil {
		data = whitePixel
	}
	size := uint64(data.Width) * uint64(data.Height) * uint64(VULKAN_COLOR_FORMAT_BYTES)
	if data.Width == 0 || data.Height == 0 || uint64(len(data.Pixels)) != size {
		return nil, fmt.Errorf("texture %dx%d with %d bytes: %w", data.Width, data.Height, len(data.Pixels), core.ErrInvalidParameter)
	}

	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)
	if err := staging.LoadData(context, 0, data.Pixels); err != nil {
		return nil, err
	}

	image, err := ImageCreate(context, data.Width, data.Height,
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	texture := &VulkanTexture{Image: image}

	var recordErr error
	if err := SingleUse(context, func(cmd vk.CommandBuffer) {
		if recordErr = ImageTransitionLayout(cmd, image.Handle, image.Aspect, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); recordErr != nil {
			return
		}
		region := vk.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     image.Aspect,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageExtent: vk.Extent3D{Width: data.Width, Height: data.Height, Depth: 1},
		}
		vk.CmdCopyBufferToImage(cmd, staging.Handle, image.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
		recordErr = ImageTransitionLayout(cmd, image.Handle, image.Aspect, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	}); err != nil {
		texture.Destroy(context)
		return nil, err
	}
	if recordErr != nil {
		texture.Destroy(context)
		return nil, recordErr
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	if context.Device.SupportsAnisotropy {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = 16
	}
	var sampler vk.Sampler
	if err := vkCheck("vkCreateSampler", vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler)); err != nil {
		texture.Destroy(context)
		return nil, err
	}
	texture.Sampler = sampler

	core.LogDebug("Texture uploaded (%dx%d).", data.Width, data.Height)
	return texture, nil
}

func (t *VulkanTexture) Destroy(context *VulkanContext) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, t.Sampler, context.Allocator)
		t.Sampler = vk.NullSampler
	}
	if t.Image != nil {
		t.Image.ImageDestroy(context)
		t.Image = nil
	}
}
