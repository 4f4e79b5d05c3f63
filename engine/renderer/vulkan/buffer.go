package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	Size        uint64
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("zero sized buffer: %w", core.ErrInvalidParameter)
	}
	outBuffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vkCheck("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	outBuffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outBuffer.Destroy(context)
		return nil, fmt.Errorf("buffer memory: %w", err)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := context.locks.SafeCall(MemoryManagement, func() error {
		return vkCheck("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory))
	}); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	outBuffer.Memory = memory

	if err := vkCheck("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	return outBuffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
	vb.Size = 0
}

func (vb *VulkanBuffer) hostVisible() bool {
	return vb.MemoryFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0
}

// LoadData copies data into a host visible buffer at offset.
func (vb *VulkanBuffer) LoadData(context *VulkanContext, offset uint64, data []byte) error {
	if !vb.hostVisible() {
		return fmt.Errorf("buffer is not host visible: %w", core.ErrInvalidParameter)
	}
	if offset+uint64(len(data)) > vb.Size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer of %d: %w", len(data), offset, vb.Size, core.ErrInvalidParameter)
	}
	return context.locks.SafeCall(MemoryManagement, func() error {
		var pData unsafe.Pointer
		if err := vkCheck("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, vb.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &pData)); err != nil {
			return err
		}
		vk.Memcopy(pData, data)
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		return nil
	})
}

// ReadData copies size bytes at offset out of a host visible buffer.
func (vb *VulkanBuffer) ReadData(context *VulkanContext, offset, size uint64) ([]byte, error) {
	if !vb.hostVisible() {
		return nil, fmt.Errorf("buffer is not host visible: %w", core.ErrInvalidParameter)
	}
	if offset+size > vb.Size {
		return nil, fmt.Errorf("read of %d bytes at %d overflows buffer of %d: %w", size, offset, vb.Size, core.ErrInvalidParameter)
	}
	out := make([]byte, size)
	err := context.locks.SafeCall(MemoryManagement, func() error {
		var pData unsafe.Pointer
		if err := vkCheck("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, vb.Memory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &pData)); err != nil {
			return err
		}
		copy(out, unsafe.Slice((*byte)(pData), size))
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		return nil
	})
	return out, err
}

// Upload places data in a device local buffer through a temporary staging buffer.
func (vb *VulkanBuffer) Upload(context *VulkanContext, data []byte) error {
	if vb.hostVisible() {
		return vb.LoadData(context, 0, data)
	}
	if uint64(len(data)) > vb.Size {
		return fmt.Errorf("upload of %d bytes overflows buffer of %d: %w", len(data), vb.Size, core.ErrInvalidParameter)
	}
	staging, err := BufferCreate(context, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.Destroy(context)
	if err := staging.LoadData(context, 0, data); err != nil {
		return err
	}
	return SingleUse(context, func(cmd vk.CommandBuffer) {
		region := vk.BufferCopy{SrcOffset: 0, DstOffset: 0, Size: vk.DeviceSize(len(data))}
		vk.CmdCopyBuffer(cmd, staging.Handle, vb.Handle, 1, []vk.BufferCopy{region})
	})
}
