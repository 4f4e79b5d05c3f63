package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match FramebufferSizeLastGeneration,
	// the swapchain and the offscreen target are rebuilt before the next frame.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when it was last created.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	// Surface is nil when rendering headless.
	Surface  vk.Surface
	Headless bool

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	// Swapchain is nil when rendering headless.
	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
	// Target is what the patches are rendered into. It is blitted to the
	// swapchain image on present and copied to Readback on capture.
	Target   *VulkanRenderTarget
	Readback *VulkanBuffer

	GraphicsCommandBuffers []*VulkanCommandBuffer

	ImageAvailableSemaphores []vk.Semaphore
	QueueCompleteSemaphores  []vk.Semaphore

	InFlightFences []*VulkanFence

	ImageIndex   uint32
	CurrentFrame uint32

	RecreatingSwapchain bool

	locks *VulkanLockPool
}

func NewVulkanContext(headless bool) *VulkanContext {
	return &VulkanContext{
		Headless: headless,
		Device:   &VulkanDevice{},
		locks:    NewVulkanLockPool(),
	}
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that
// has all of propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type for filter %#x with properties %#x", typeFilter, propertyFlags)
}

// Extent is the size of the current render target.
func (vc *VulkanContext) Extent() vk.Extent2D {
	return vk.Extent2D{Width: vc.FramebufferWidth, Height: vc.FramebufferHeight}
}
