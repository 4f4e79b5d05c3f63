package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

/**
 * @brief GPU copies of one generated patch set: the control point and
 * texture coordinate vertex buffers plus the two factor storage buffers.
 */
type VulkanPatchSet struct {
	ID metadata.PatchSetID

	Positions  *VulkanBuffer
	TexCoords  *VulkanBuffer
	PointCount uint32
	UVCount    uint32

	/** @brief Host visible, the binary16 factors as written by the CPU. */
	Packed *VulkanBuffer
	/** @brief Device local, one float per factor, written by the unpack kernel. */
	Factors       *VulkanBuffer
	FactorType    tessellation.PatchType
	FactorPatches uint32
}

func deviceLocalVertexBuffer(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	buffer, err := BufferCreate(context, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := buffer.Upload(context, data); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

func (ps *VulkanPatchSet) SetPositions(context *VulkanContext, data []byte, count uint32) error {
	buffer, err := deviceLocalVertexBuffer(context, data)
	if err != nil {
		return err
	}
	if ps.Positions != nil {
		ps.Positions.Destroy(context)
	}
	ps.Positions = buffer
	ps.PointCount = count
	return nil
}

func (ps *VulkanPatchSet) SetTexCoords(context *VulkanContext, data []byte, count uint32) error {
	buffer, err := deviceLocalVertexBuffer(context, data)
	if err != nil {
		return err
	}
	if ps.TexCoords != nil {
		ps.TexCoords.Destroy(context)
	}
	ps.TexCoords = buffer
	ps.UVCount = count
	return nil
}

// SetFactors writes the half encoded factors. The storage buffers are only
// rebuilt when the layout changes, which reports true so descriptors get rewritten.
func (ps *VulkanPatchSet) SetFactors(context *VulkanContext, factors *tessellation.Factors) (bool, error) {
	packed := factors.EncodeHalf()
	patchCount := uint32(factors.PatchCount())
	floatSize := uint64(patchCount) * uint64(factors.PatchType().FactorsPerPatch()) * 4

	rebuilt := false
	if ps.Packed == nil || ps.Packed.Size != uint64(len(packed)) || ps.Factors == nil || ps.Factors.Size != floatSize {
		ps.destroyFactors(context)

		packedBuffer, err := BufferCreate(context, uint64(len(packed)),
			vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return false, err
		}
		ps.Packed = packedBuffer

		floatBuffer, err := BufferCreate(context, floatSize,
			vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
		if err != nil {
			ps.destroyFactors(context)
			return false, err
		}
		ps.Factors = floatBuffer
		rebuilt = true
	}

	if err := ps.Packed.LoadData(context, 0, packed); err != nil {
		return rebuilt, err
	}
	ps.FactorType = factors.PatchType()
	ps.FactorPatches = patchCount
	return rebuilt, nil
}

// Validate checks that everything a draw of packet needs was uploaded and agrees.
func (ps *VulkanPatchSet) Validate(packet *metadata.FramePacket) error {
	if ps.ID != packet.PatchSet {
		return fmt.Errorf("patch set %s was not uploaded: %w", packet.PatchSet, core.ErrInvalidParameter)
	}
	if ps.Positions == nil || ps.TexCoords == nil {
		return fmt.Errorf("patch set %s is missing vertex data: %w", ps.ID, core.ErrInvalidParameter)
	}
	if ps.Packed == nil || ps.Factors == nil {
		return fmt.Errorf("patch set %s has no tessellation factors: %w", ps.ID, core.ErrInvalidParameter)
	}
	want := packet.PatchCount * uint32(packet.PatchType.ControlPoints())
	if ps.PointCount != want || ps.UVCount != want {
		return fmt.Errorf("patch set %s has %d points and %d uvs, want %d: %w", ps.ID, ps.PointCount, ps.UVCount, want, core.ErrInvalidParameter)
	}
	if ps.FactorType != packet.PatchType || ps.FactorPatches != packet.PatchCount {
		return fmt.Errorf("factors cover %d %s patches, frame draws %d %s: %w",
			ps.FactorPatches, ps.FactorType, packet.PatchCount, packet.PatchType, core.ErrInvalidParameter)
	}
	return nil
}

func (ps *VulkanPatchSet) destroyFactors(context *VulkanContext) {
	if ps.Packed != nil {
		ps.Packed.Destroy(context)
		ps.Packed = nil
	}
	if ps.Factors != nil {
		ps.Factors.Destroy(context)
		ps.Factors = nil
	}
	ps.FactorPatches = 0
}

func (ps *VulkanPatchSet) Destroy(context *VulkanContext) {
	ps.destroyFactors(context)
	if ps.Positions != nil {
		ps.Positions.Destroy(context)
		ps.Positions = nil
	}
	if ps.TexCoords != nil {
		ps.TexCoords.Destroy(context)
		ps.TexCoords = nil
	}
	ps.PointCount = 0
	ps.UVCount = 0
}
