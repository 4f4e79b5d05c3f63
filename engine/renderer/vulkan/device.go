package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

type VulkanDevice struct {
	PhysicalDevice   vk.PhysicalDevice
	LogicalDevice    vk.Device
	SwapchainSupport VulkanSwapchainSupportInfo

	// The graphics family also supports compute, so the factor dispatch and
	// the patch draw share one command buffer.
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format

	SupportsAnisotropy bool
	// Largest tessellation factor the hardware accepts.
	MaxTessellationLevel uint32
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	Compute              bool
	DeviceExtensionNames []string
	TessellationShader   bool
	FillModeNonSolid     bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
	HasGraphics         bool
	HasPresent          bool
	HasCompute          bool
}

func DeviceCreate(context *VulkanContext) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{context.Device.GraphicsQueueIndex}
	if !context.Headless && context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, context.Device.PresentQueueIndex)
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		context.locks.SetQueueFamily(indices[i])
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{
		TessellationShader: vk.True,
		FillModeNonSolid:   vk.True,
	}
	if context.Device.SupportsAnisotropy {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	available, err := deviceExtensions(context.Device.PhysicalDevice)
	if err != nil {
		return err
	}
	extensionNames := []string{}
	if !context.Headless {
		extensionNames = append(extensionNames, vk.KhrSwapchainExtensionName)
	}
	if _, ok := available[portabilitySubsetExtensionName]; ok {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var device vk.Device
	if err := vkCheck("vkCreateDevice", vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device)); err != nil {
		return err
	}
	context.Device.LogicalDevice = device
	core.LogInfo("Logical device created.")

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(device, context.Device.GraphicsQueueIndex, 0, &graphicsQueue)
	context.Device.GraphicsQueue = graphicsQueue
	if !context.Headless {
		var presentQueue vk.Queue
		vk.GetDeviceQueue(device, context.Device.PresentQueueIndex, 0, &presentQueue)
		context.Device.PresentQueue = presentQueue
	}
	core.LogInfo("Queues obtained.")

	// Create command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: context.Device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vkCheck("vkCreateCommandPool", vk.CreateCommandPool(device, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		return err
	}
	context.Device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	if !DeviceDetectDepthFormat(context.Device) {
		return fmt.Errorf("no supported depth format: %w", core.ErrNoSuitableDevice)
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.LogicalDevice == nil {
		return
	}

	core.LogInfo("Destroying command pools...")
	if device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogInfo("Destroying logical device...")
	vk.DestroyDevice(device.LogicalDevice, context.Allocator)
	device.LogicalDevice = nil

	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	device.SwapchainSupport = VulkanSwapchainSupportInfo{}
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	// Surface capabilities
	if err := vkCheck("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities)); err != nil {
		return err
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	// Surface formats
	var formatCount uint32
	if err := vkCheck("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil)); err != nil {
		return err
	}
	supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount != 0 {
		if err := vkCheck("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats)); err != nil {
			return err
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	// Present modes
	var presentModeCount uint32
	if err := vkCheck("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil)); err != nil {
		return err
	}
	supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
	if presentModeCount != 0 {
		if err := vkCheck("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes)); err != nil {
			return err
		}
	}
	return nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if properties.OptimalTilingFeatures&flags == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	device.DepthFormat = vk.FormatUndefined
	return false
}

func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32
	if err := vkCheck("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil)); err != nil {
		return err
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found: %w", core.ErrNoSuitableDevice)
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := vkCheck("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices)); err != nil {
		return err
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:           true,
		Present:            !context.Headless,
		Compute:            true,
		TessellationShader: true,
		FillModeNonSolid:   true,
	}
	if !context.Headless {
		requirements.DeviceExtensionNames = []string{vk.KhrSwapchainExtensionName}
	}

	for _, physicalDevice := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()
		properties.Limits.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memory)
		memory.Deref()

		queueInfo := VulkanPhysicalDeviceQueueFamilyInfo{}
		support := VulkanSwapchainSupportInfo{}
		if !PhysicalDeviceMeetsRequirements(physicalDevice, context.Surface, &properties, &features, &requirements, &queueInfo, &support) {
			continue
		}

		name := VulkanString(properties.DeviceName[:])
		core.LogInfo("Selected device: '%s'.", name)
		switch properties.DeviceType {
		case vk.PhysicalDeviceTypeIntegratedGpu:
			core.LogInfo("GPU type is Integrated.")
		case vk.PhysicalDeviceTypeDiscreteGpu:
			core.LogInfo("GPU type is Discrete.")
		case vk.PhysicalDeviceTypeVirtualGpu:
			core.LogInfo("GPU type is Virtual.")
		case vk.PhysicalDeviceTypeCpu:
			core.LogInfo("GPU type is CPU.")
		default:
			core.LogInfo("GPU type is Unknown.")
		}

		core.LogInfo(
			"GPU Driver version: %d.%d.%d",
			vk.Version.Major(vk.Version(properties.DriverVersion)),
			vk.Version.Minor(vk.Version(properties.DriverVersion)),
			vk.Version.Patch(vk.Version(properties.DriverVersion)),
		)
		core.LogInfo(
			"Vulkan API version: %d.%d.%d",
			vk.Version.Major(vk.Version(properties.ApiVersion)),
			vk.Version.Minor(vk.Version(properties.ApiVersion)),
			vk.Version.Patch(vk.Version(properties.ApiVersion)),
		)

		for j := uint32(0); j < memory.MemoryHeapCount; j++ {
			memory.MemoryHeaps[j].Deref()
			memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
			if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
				core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
			} else {
				core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
			}
		}

		context.Device.PhysicalDevice = physicalDevice
		context.Device.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
		context.Device.PresentQueueIndex = queueInfo.PresentFamilyIndex
		context.Device.SwapchainSupport = support
		context.Device.Properties = properties
		context.Device.Features = features
		context.Device.Memory = memory
		context.Device.SupportsAnisotropy = features.SamplerAnisotropy == vk.True
		context.Device.MaxTessellationLevel = properties.Limits.MaxTessellationGenerationLevel

		core.LogInfo("Physical device selected.")
		return nil
	}

	return fmt.Errorf("no physical devices were found which meet the requirements: %w", core.ErrNoSuitableDevice)
}

func PhysicalDeviceMeetsRequirements(
	device vk.PhysicalDevice,
	surface vk.Surface,
	properties *vk.PhysicalDeviceProperties,
	features *vk.PhysicalDeviceFeatures,
	requirements *VulkanPhysicalDeviceRequirements,
	outQueueInfo *VulkanPhysicalDeviceQueueFamilyInfo,
	outSwapchainSupport *VulkanSwapchainSupportInfo,
) bool {
	name := VulkanString(properties.DeviceName[:])

	if requirements.TessellationShader && features.TessellationShader == vk.False {
		core.LogInfo("Device '%s' does not support tessellation shaders, skipping.", name)
		return false
	}
	if requirements.FillModeNonSolid && features.FillModeNonSolid == vk.False {
		core.LogInfo("Device '%s' does not support wireframe fill, skipping.", name)
		return false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	core.LogDebug("Graphics | Present | Compute | Name")
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		flags := queueFamilies[i].QueueFlags
		graphics := flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		compute := flags&vk.QueueFlags(vk.QueueComputeBit) != 0

		// One family must do both, the dispatch and the draw are recorded together.
		if graphics && (compute || !requirements.Compute) && !outQueueInfo.HasGraphics {
			outQueueInfo.GraphicsFamilyIndex = i
			outQueueInfo.HasGraphics = true
			outQueueInfo.HasCompute = compute
		}

		if requirements.Present {
			var supportsPresent vk.Bool32
			if res := vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent); res != vk.Success {
				return false
			}
			// Prefer presenting from the graphics family.
			if supportsPresent == vk.True && (!outQueueInfo.HasPresent || (outQueueInfo.HasGraphics && outQueueInfo.GraphicsFamilyIndex == i)) {
				outQueueInfo.PresentFamilyIndex = i
				outQueueInfo.HasPresent = true
			}
		}
	}

	core.LogDebug("       %t |       %t |       %t | %s",
		outQueueInfo.HasGraphics,
		outQueueInfo.HasPresent,
		outQueueInfo.HasCompute,
		name)

	if (requirements.Graphics && !outQueueInfo.HasGraphics) ||
		(requirements.Present && !outQueueInfo.HasPresent) ||
		(requirements.Compute && !outQueueInfo.HasCompute) {
		return false
	}
	core.LogDebug("Graphics Family Index: %d", outQueueInfo.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", outQueueInfo.PresentFamilyIndex)

	if requirements.Present {
		if err := DeviceQuerySwapchainSupport(device, surface, outSwapchainSupport); err != nil {
			core.LogWarn("Swapchain query failed for '%s': %s", name, err)
			return false
		}
		if len(outSwapchainSupport.Formats) < 1 || len(outSwapchainSupport.PresentModes) < 1 {
			core.LogInfo("Required swapchain support not present, skipping device.")
			return false
		}
	}

	if len(requirements.DeviceExtensionNames) > 0 {
		available, err := deviceExtensions(device)
		if err != nil {
			return false
		}
		for _, required := range requirements.DeviceExtensionNames {
			if _, ok := available[required]; !ok {
				core.LogInfo("Required extension not found: '%s', skipping device.", required)
				return false
			}
		}
	}
	return true
}

func deviceExtensions(device vk.PhysicalDevice) (map[string]struct{}, error) {
	var count uint32
	if err := vkCheck("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if err := vkCheck("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, properties)); err != nil {
			return nil, err
		}
	}
	names := make(map[string]struct{}, count)
	for i := range properties {
		properties[i].Deref()
		names[VulkanString(properties[i].ExtensionName[:])] = struct{}{}
	}
	return names, nil
}
