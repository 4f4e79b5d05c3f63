package vulkan

import (
	"fmt"
	"path/filepath"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

// Compiled module names, without the .spv suffix.
const (
	ShaderVertex             = "tessellation.vert"
	ShaderQuadControl        = "quad.tesc"
	ShaderQuadEvaluation     = "quad.tese"
	ShaderTriangleControl    = "triangle.tesc"
	ShaderTriangleEvaluation = "triangle.tese"
	ShaderFragment           = "tessellation.frag"
	ShaderFactors            = "factors.comp"
)

/**
 * @brief A loaded SPIR-V module and the stage it runs in.
 */
type VulkanShaderStage struct {
	Name   string
	Stage  vk.ShaderStageFlagBits
	Module vk.ShaderModule
}

// ShaderPath is where the compiled module called name lives.
func ShaderPath(dir, name string) string {
	return filepath.Join(dir, name+".spv")
}

func ShaderModuleCreate(context *VulkanContext, assets metadata.AssetLoader, dir, name string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	res, err := assets.LoadAsset(ShaderPath(dir, name), nil)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*resources.ShaderResourceData)
	if !ok {
		return nil, fmt.Errorf("shader %s: unexpected resource data %T", name, res.Data)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(data.Code) * 4),
		PCode:    data.Code,
	}
	var module vk.ShaderModule
	if err := vkCheck("vkCreateShaderModule "+name, vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module)); err != nil {
		return nil, err
	}
	return &VulkanShaderStage{Name: name, Stage: stage, Module: module}, nil
}

func (s *VulkanShaderStage) StageInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Module,
		PName:  VulkanSafeString("main"),
	}
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Module != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Module, context.Allocator)
		s.Module = vk.NullShaderModule
	}
}
