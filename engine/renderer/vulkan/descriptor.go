package vulkan

import vk "github.com/goki/vulkan"

/**
 * @brief The one descriptor set shared by the factor kernel and the patch
 * pipelines: packed half factors, unpacked float factors and the texture.
 */
type VulkanDescriptorSet struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Set    vk.DescriptorSet
}

func DescriptorSetCreate(context *VulkanContext) (*VulkanDescriptorSet, error) {
	out := &VulkanDescriptorSet{}
	device := context.Device.LogicalDevice

	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         VULKAN_BINDING_PACKED_FACTORS,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		},
		{
			Binding:         VULKAN_BINDING_FACTORS,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageComputeBit) | vk.ShaderStageFlags(vk.ShaderStageTessellationControlBit),
		},
		{
			Binding:         VULKAN_BINDING_TEXTURE,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vkCheck("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(device, &layoutInfo, context.Allocator, &layout)); err != nil {
		return nil, err
	}
	out.Layout = layout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: 2},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 1},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if err := vkCheck("vkCreateDescriptorPool", vk.CreateDescriptorPool(device, &poolInfo, context.Allocator, &pool)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.Pool = pool

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if err := vkCheck("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(device, &allocateInfo, &set)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.Set = set
	return out, nil
}

// WriteFactors points the two factor bindings at the buffers of the current patch set.
func (ds *VulkanDescriptorSet) WriteFactors(context *VulkanContext, packed, factors *VulkanBuffer) {
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          ds.Set,
			DstBinding:      VULKAN_BINDING_PACKED_FACTORS,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{
				{Buffer: packed.Handle, Offset: 0, Range: vk.DeviceSize(packed.Size)},
			},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          ds.Set,
			DstBinding:      VULKAN_BINDING_FACTORS,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{
				{Buffer: factors.Handle, Offset: 0, Range: vk.DeviceSize(factors.Size)},
			},
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (ds *VulkanDescriptorSet) WriteTexture(context *VulkanContext, texture *VulkanTexture) {
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          ds.Set,
			DstBinding:      VULKAN_BINDING_TEXTURE,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{
				{
					Sampler:     texture.Sampler,
					ImageView:   texture.Image.View,
					ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				},
			},
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (ds *VulkanDescriptorSet) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	// Sets are freed with their pool.
	if ds.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(device, ds.Pool, context.Allocator)
		ds.Pool = vk.NullDescriptorPool
		ds.Set = vk.NullDescriptorSet
	}
	if ds.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device, ds.Layout, context.Allocator)
		ds.Layout = vk.NullDescriptorSetLayout
	}
}
